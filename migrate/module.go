// Package migrate implements the migration runner: tracking-table
// lifecycle, batch arithmetic, and up/down traversal over a registry of
// migration modules.
package migrate

import (
	"fmt"
	"sort"
)

// Module is one migration's up/down pair, registered under a unique
// name (conventionally "<14-digit timestamp>_<description>").
type Module struct {
	Name string
	Up   func(h *Helper) error
	Down func(h *Helper) error
}

// Registry holds the set of migration modules a Runner knows about. The
// original file-discovery design assumes dynamic loading of migration
// source files at runtime; Go has no equivalent, so migrations are
// registered explicitly at program startup instead.
type Registry struct {
	modules map[string]*Module
	order   []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register adds m to the registry. It panics on a duplicate name — a
// programming error in the registration call site, not a runtime
// condition callers recover from.
func (r *Registry) Register(m *Module) *Registry {
	if _, exists := r.modules[m.Name]; exists {
		panic(fmt.Sprintf("migrate: duplicate migration name %q", m.Name))
	}
	r.modules[m.Name] = m
	r.order = append(r.order, m.Name)
	return r
}

// Names returns every registered migration name, lexicographically
// sorted — the same order file discovery would have produced.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

func (r *Registry) module(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}
