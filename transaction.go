package pawql

import "context"

// txDriver marks a Driver as already transaction-bound, so nested
// Transaction calls flatten onto the existing transaction rather than
// opening a new one.
type txDriver interface {
	Driver
	isTransaction() bool
}

// transactionBoundDriver wraps a Driver produced by RunTransaction so
// Handle.Transaction can detect it is already inside one.
type transactionBoundDriver struct {
	Driver
}

func (transactionBoundDriver) isTransaction() bool { return true }

// Transaction runs fn with a handle bound to a transaction-local driver,
// sharing this handle's schema and overlays. The driver's RunTransaction
// emits BEGIN, runs fn, then COMMIT on success or ROLLBACK (re-raising
// fn's error) on failure. If h is already transaction-bound, fn runs
// directly against h instead of opening a nested transaction.
func (h *Handle) Transaction(ctx context.Context, fn func(tx *Handle) error) error {
	if td, ok := h.driver.(txDriver); ok && td.isTransaction() {
		return fn(h)
	}
	return h.driver.RunTransaction(ctx, func(txd Driver) error {
		txHandle := &Handle{
			schema:     h.schema,
			driver:     transactionBoundDriver{txd},
			softDelete: h.softDelete,
		}
		return fn(txHandle)
	})
}
