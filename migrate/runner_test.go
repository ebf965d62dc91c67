package migrate_test

import (
	"context"
	"testing"

	"github.com/onyx-go/pawql"
	"github.com/onyx-go/pawql/memdriver"
	"github.com/onyx-go/pawql/migrate"
)

func usersTable(h *migrate.Helper) error {
	t := pawql.NewTableSchema("users")
	t.AddColumn("id", pawql.Column(pawql.Int()).AsPrimaryKey())
	t.AddColumn("name", pawql.Column(pawql.Text()))
	return h.CreateTable(t)
}

func ordersTable(h *migrate.Helper) error {
	t := pawql.NewTableSchema("orders")
	t.AddColumn("id", pawql.Column(pawql.Int()).AsPrimaryKey())
	t.AddColumn("user_id", pawql.Column(pawql.Int()))
	return h.CreateTable(t)
}

func newTestRegistry() *migrate.Registry {
	r := migrate.NewRegistry()
	r.Register(&migrate.Module{
		Name: "0001_create_users",
		Up:   usersTable,
		Down: func(h *migrate.Helper) error { return h.DropTable("users", false) },
	})
	r.Register(&migrate.Module{
		Name: "0002_create_orders",
		Up:   ordersTable,
		Down: func(h *migrate.Helper) error { return h.DropTable("orders", false) },
	})
	return r
}

// S6 — migrations batch.
func TestScenarioMigrationsBatch(t *testing.T) {
	ctx := context.Background()
	driver := memdriver.New()
	runner := migrate.NewRunner(driver, newTestRegistry())

	applied, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("applied = %v, want 2 migrations", applied)
	}

	status, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	batches := map[int]bool{}
	for _, s := range status {
		if !s.Ran {
			t.Errorf("migration %q should have run", s.Name)
		}
		batches[s.Batch] = true
	}
	if len(batches) != 1 {
		t.Fatalf("expected both migrations in one batch, got %v", status)
	}

	rolledBack, err := runner.Down(ctx)
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if len(rolledBack) != 2 {
		t.Fatalf("rolledBack = %v, want 2 migrations", rolledBack)
	}
	want := []string{"0002_create_orders", "0001_create_users"}
	for i, name := range want {
		if rolledBack[i] != name {
			t.Errorf("rolledBack[%d] = %q, want %q (reverse lexicographic order)", i, rolledBack[i], name)
		}
	}

	status, err = runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, s := range status {
		if s.Ran {
			t.Errorf("migration %q should be pending after rollback", s.Name)
		}
	}
}

// Property 5: distinct Up invocations assign strictly increasing batch
// numbers, and a migration already recorded is never re-applied.
func TestBatchMonotonicity(t *testing.T) {
	ctx := context.Background()
	driver := memdriver.New()
	registry := migrate.NewRegistry()
	registry.Register(&migrate.Module{
		Name: "0001_first",
		Up:   usersTable,
		Down: func(h *migrate.Helper) error { return h.DropTable("users", false) },
	})
	runner := migrate.NewRunner(driver, registry)

	if _, err := runner.Up(ctx); err != nil {
		t.Fatalf("first Up: %v", err)
	}
	firstStatus, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	firstBatch := firstStatus[0].Batch

	again, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second Up reapplied %v, want none pending", again)
	}

	registry.Register(&migrate.Module{
		Name: "0002_second",
		Up:   ordersTable,
		Down: func(h *migrate.Helper) error { return h.DropTable("orders", false) },
	})
	applied, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("third Up: %v", err)
	}
	if len(applied) != 1 || applied[0] != "0002_second" {
		t.Fatalf("applied = %v, want only 0002_second", applied)
	}

	status, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	var secondBatch int
	for _, s := range status {
		if s.Name == "0002_second" {
			secondBatch = s.Batch
		}
	}
	if secondBatch <= firstBatch {
		t.Errorf("second batch %d should be strictly greater than first batch %d", secondBatch, firstBatch)
	}
}

func TestDownSteps(t *testing.T) {
	ctx := context.Background()
	driver := memdriver.New()
	runner := migrate.NewRunner(driver, newTestRegistry())

	if _, err := runner.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}

	rolledBack, err := runner.DownSteps(ctx, 1)
	if err != nil {
		t.Fatalf("DownSteps: %v", err)
	}
	if len(rolledBack) != 2 {
		t.Fatalf("one batch should roll back both migrations registered in it, got %v", rolledBack)
	}
}
