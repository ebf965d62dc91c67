package pawql

// softDeleteOverlay configures the set of tables a Handle treats as
// soft-delete-enabled, and the timestamp column each uses. It is
// immutable once attached to a Handle and is carried through
// transactions unchanged (§4.3).
type softDeleteOverlay struct {
	column string
	tables map[string]bool
}

func newSoftDeleteOverlay(column string, tables ...string) *softDeleteOverlay {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t] = true
	}
	return &softDeleteOverlay{column: column, tables: set}
}

func (o *softDeleteOverlay) covers(table string) bool {
	return o != nil && o.tables[table]
}

// withSoftDeleteApplied returns a builder with the overlay predicate
// injected as a final pass over the IR, for SELECT and UPDATE only — it
// never touches INSERT/DELETE. If the builder's table is not covered, or
// the handle has no overlay, b is returned unchanged. This never
// mutates b; it returns a shallow copy with an extended predicates
// slice, since render() must remain side-effect free and repeatable.
func (b *Builder) withSoftDeleteApplied() *Builder {
	overlay := b.handle.softDelete
	if !overlay.covers(b.source.table) || b.source.subquery != nil {
		return b
	}
	if b.operation != OpSelect && b.operation != OpUpdate {
		return b
	}

	var extra Predicate
	switch b.softDeleteScope {
	case ScopeIncludeAll:
		return b
	case ScopeOnlyTrashed:
		extra = Predicate{Connector: And, Column: overlay.column, Op: IsNotNull()}
	default:
		extra = Predicate{Connector: And, Column: overlay.column, Op: IsNull()}
	}

	clone := *b
	clone.predicates = append(append([]Predicate{}, b.predicates...), extra)
	return &clone
}

// SoftDelete sets the overlay column to the current wall-clock timestamp.
// Idempotence comes from the overlay's own render-time pass: the builder
// keeps its default scope, so withSoftDeleteApplied AND-appends
// "col IS NULL" for us, and a row already soft-deleted is excluded by
// that same predicate on a repeated call. Fails with a ConfigurationError
// if table is not in the handle's covered set.
func (h *Handle) SoftDelete(table string) *Builder {
	b := h.Query(table)
	if !h.softDelete.covers(table) {
		return b.fail("soft_delete", "table %q is not soft-delete-enabled", table)
	}
	return b.Update(Assignment{Column: h.softDelete.column, Value: nowFunc()})
}

// Restore sets the overlay column to null, scoped to OnlyTrashed so the
// overlay's render-time pass AND-appends "col IS NOT NULL" for us — adding
// a second, manual copy of that predicate here would duplicate the one
// withSoftDeleteApplied already injects for a covered UPDATE. Fails with a
// ConfigurationError if table is not in the handle's covered set.
func (h *Handle) Restore(table string) *Builder {
	b := h.Query(table)
	if !h.softDelete.covers(table) {
		return b.fail("restore", "table %q is not soft-delete-enabled", table)
	}
	b.Update(Assignment{Column: h.softDelete.column, Value: nil})
	return b.OnlyTrashed()
}
