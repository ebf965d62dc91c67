package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/onyx-go/pawql"
)

var migrationNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Make generates a scaffold migration file "<14-digit timestamp>_<name>.go"
// under dir (created if missing), populated with an empty Up/Down
// registration ready for a Registry. It returns the written path.
//
// The original design's make(name) assumes the runner can later discover
// and dynamically load this file; Go offers no such mechanism, so the
// generated file's sole job is to give the migration author a starting
// point they still need to import and register explicitly (see Registry).
func Make(dir, name string) (string, error) {
	if !migrationNamePattern.MatchString(name) {
		return "", &pawql.MigrationError{Name: name, Message: "migration name must match [A-Za-z_][A-Za-z0-9_]*"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &pawql.MigrationError{Name: name, Message: "failed to create migration directory", Err: err}
	}

	stamp := time.Now().UTC().Format("20060102150405")
	migrationName := stamp + "_" + name
	path := filepath.Join(dir, migrationName+".go")

	pascal := toPascalCase(name)
	src := fmt.Sprintf(scaffoldTemplate, pascal, pascal, migrationName)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return "", &pawql.MigrationError{Name: migrationName, Message: "failed to write scaffold file", Err: err}
	}
	return path, nil
}

const scaffoldTemplate = `package migrations

import "github.com/onyx-go/pawql/migrate"

// %sModule should be passed to (*migrate.Registry).Register.
var %sModule = &migrate.Module{
	Name: %q,
	Up: func(h *migrate.Helper) error {
		return nil
	},
	Down: func(h *migrate.Helper) error {
		return nil
	},
}
`

func toPascalCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}
