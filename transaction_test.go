package pawql

import (
	"context"
	"errors"
	"testing"

	"github.com/onyx-go/pawql/memdriver"
)

// Property 6: a transaction callback that returns an error leaves no
// trace; one that returns nil persists everything it did.
func TestTransactionAtomicity(t *testing.T) {
	ctx := context.Background()
	h := NewHandle(nil, memdriver.New())

	boom := errors.New("boom")
	err := h.Transaction(ctx, func(tx *Handle) error {
		if _, err := tx.Query("users").Insert(R("id", 1, "name", "A")).Exec(ctx); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	rows, err := h.Query("users").Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows after failed transaction = %v, want none", rows)
	}

	err = h.Transaction(ctx, func(tx *Handle) error {
		_, err := tx.Query("users").Insert(R("id", 1, "name", "A")).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	rows, err = h.Query("users").Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows after committed transaction = %v, want one row", rows)
	}
}

// A transaction started from inside another flattens onto the same
// callback rather than attempting a nested BEGIN.
func TestNestedTransactionFlattens(t *testing.T) {
	ctx := context.Background()
	h := NewHandle(nil, memdriver.New())

	err := h.Transaction(ctx, func(outer *Handle) error {
		return outer.Transaction(ctx, func(inner *Handle) error {
			_, err := inner.Query("users").Insert(R("id", 1, "name", "A")).Exec(ctx)
			return err
		})
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}

	rows, err := h.Query("users").Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want one row", rows)
	}
}
