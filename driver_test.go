package pawql

import (
	"context"
	"testing"
	"time"

	"github.com/onyx-go/pawql/memdriver"
)

type recordingLogger struct {
	calls int
	sql   string
}

func (r *recordingLogger) Log(sql string, params []interface{}, elapsed time.Duration) {
	r.calls++
	r.sql = sql
}

func TestWithLoggerReportsEveryExec(t *testing.T) {
	ctx := context.Background()
	logger := &recordingLogger{}
	h := NewHandle(nil, WithLogger(memdriver.New(), logger))

	if _, err := h.Query("users").Insert(R("id", 1)).Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if logger.calls != 1 {
		t.Fatalf("logger.calls = %d, want 1", logger.calls)
	}
	if logger.sql == "" {
		t.Fatal("expected logger to receive the rendered SQL")
	}
}

func TestWithLoggerNilLoggerIsNoop(t *testing.T) {
	d := memdriver.New()
	if WithLogger(d, nil) != d {
		t.Fatal("WithLogger(d, nil) should return d unchanged")
	}
}

type panicLogger struct{ calls int }

func (p *panicLogger) Log(sql string, params []interface{}, elapsed time.Duration) {
	p.calls++
	panic("logger blew up")
}

// A panicking Logger must never alter the outcome Exec already obtained.
func TestWithLoggerToleratesPanickingLogger(t *testing.T) {
	ctx := context.Background()
	logger := &panicLogger{}
	h := NewHandle(nil, WithLogger(memdriver.New(), logger))

	res, err := h.Query("users").Insert(R("id", 1)).Exec(ctx)
	if err != nil {
		t.Fatalf("Exec returned error despite logger panic: %v", err)
	}
	if res.RowCount != 1 {
		t.Fatalf("RowCount = %d, want 1", res.RowCount)
	}
	if logger.calls != 1 {
		t.Fatalf("logger.calls = %d, want 1", logger.calls)
	}
}

func TestWithLoggerWrapsTransactionBoundDriver(t *testing.T) {
	ctx := context.Background()
	logger := &recordingLogger{}
	h := NewHandle(nil, WithLogger(memdriver.New(), logger))

	err := h.Transaction(ctx, func(tx *Handle) error {
		_, err := tx.Query("users").Insert(R("id", 1)).Exec(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if logger.calls != 1 {
		t.Fatalf("logger.calls = %d, want 1 (the insert inside the transaction)", logger.calls)
	}
}
