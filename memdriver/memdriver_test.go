package memdriver

import (
	"context"
	"errors"
	"testing"

	"github.com/onyx-go/pawql"
)

func TestCreateTableThenInsertAndSelect(t *testing.T) {
	d := New()
	ctx := context.Background()

	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS "users" (
  "id" INTEGER PRIMARY KEY,
  "name" TEXT
)`, nil); err != nil {
		t.Fatalf("create table: %v", err)
	}

	res, err := d.Exec(ctx, `INSERT INTO "users" ("id", "name") VALUES ($1, $2) RETURNING *`, []interface{}{1, "Alice"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if res.RowCount != 1 || len(res.Rows) != 1 {
		t.Fatalf("insert result = %+v, want one row", res)
	}

	res, err = d.Exec(ctx, `SELECT * FROM "users" WHERE "id" = $1`, []interface{}{1})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["name"] != "Alice" {
		t.Fatalf("select result = %+v, want Alice", res.Rows)
	}
}

func TestInsertOnConflictDoUpdate(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users", map[string]interface{}{"id": 1, "name": "Alice"})

	sql := `INSERT INTO "users" ("id", "name") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "name" = $3 RETURNING *`
	res, err := d.Exec(ctx, sql, []interface{}{1, "ignored", "Alice2"})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["name"] != "Alice2" {
		t.Fatalf("rows = %+v, want name=Alice2", res.Rows)
	}

	selectRes, err := d.Exec(ctx, `SELECT * FROM "users"`, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(selectRes.Rows) != 1 {
		t.Fatalf("conflict should update in place, not insert a duplicate row: %+v", selectRes.Rows)
	}
}

func TestInsertOnConflictDoNothing(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users", map[string]interface{}{"id": 1, "name": "Alice"})

	sql := `INSERT INTO "users" ("id", "name") VALUES ($1, $2) ON CONFLICT ("id") DO NOTHING RETURNING *`
	if _, err := d.Exec(ctx, sql, []interface{}{1, "Bob"}); err != nil {
		t.Fatalf("exec: %v", err)
	}

	res, err := d.Exec(ctx, `SELECT * FROM "users"`, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["name"] != "Alice" {
		t.Fatalf("DO NOTHING should leave the existing row untouched, got %+v", res.Rows)
	}
}

func TestUpdateWithWhere(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users",
		map[string]interface{}{"id": 1, "age": 20},
		map[string]interface{}{"id": 2, "age": 30},
	)

	sql := `UPDATE "users" SET "age" = $1 WHERE "id" = $2`
	res, err := d.Exec(ctx, sql, []interface{}{99, 2})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.RowCount != 1 {
		t.Fatalf("RowCount = %d, want 1", res.RowCount)
	}

	selectRes, _ := d.Exec(ctx, `SELECT * FROM "users" WHERE "id" = $1`, []interface{}{1})
	if selectRes.Rows[0]["age"] != 20 {
		t.Fatalf("row 1 should be untouched, got %+v", selectRes.Rows[0])
	}
}

func TestDeleteWithWhere(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users",
		map[string]interface{}{"id": 1},
		map[string]interface{}{"id": 2},
	)

	res, err := d.Exec(ctx, `DELETE FROM "users" WHERE "id" = $1`, []interface{}{1})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if res.RowCount != 1 {
		t.Fatalf("RowCount = %d, want 1", res.RowCount)
	}

	remaining, _ := d.Exec(ctx, `SELECT * FROM "users"`, nil)
	if len(remaining.Rows) != 1 || remaining.Rows[0]["id"] != 2 {
		t.Fatalf("remaining = %+v, want only id=2", remaining.Rows)
	}
}

func TestSelectOrderByLimitOffset(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users",
		map[string]interface{}{"id": 3},
		map[string]interface{}{"id": 1},
		map[string]interface{}{"id": 2},
	)

	res, err := d.Exec(ctx, `SELECT * FROM "users" ORDER BY "id" ASC LIMIT 2 OFFSET 1`, nil)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 2 || res.Rows[0]["id"] != 2 || res.Rows[1]["id"] != 3 {
		t.Fatalf("rows = %+v, want id=2 then id=3 (sorted, offset, limited)", res.Rows)
	}
}

func TestSelectAndOrPrecedence(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users",
		map[string]interface{}{"id": 1, "name": "Alice", "age": 20},
		map[string]interface{}{"id": 2, "name": "Bob", "age": 40},
		map[string]interface{}{"id": 3, "name": "Carol", "age": 40},
	)

	// Mirrors the renderer's flat, unparenthesized precedence: AND binds
	// tighter than OR, so this reads as (name=Bob AND age=40) OR id=1.
	sql := `SELECT * FROM "users" WHERE "name" = $1 AND "age" = $2 OR "id" = $3`
	res, err := d.Exec(ctx, sql, []interface{}{"Bob", 40, 1})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %+v, want Alice (id=1) and Bob (name+age match)", res.Rows)
	}
}

func TestSelectInAndNotIn(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users",
		map[string]interface{}{"id": 1},
		map[string]interface{}{"id": 2},
		map[string]interface{}{"id": 3},
	)

	res, err := d.Exec(ctx, `SELECT * FROM "users" WHERE "id" IN ($1, $2)`, []interface{}{1, 2})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("IN rows = %+v, want 2", res.Rows)
	}

	res, err = d.Exec(ctx, `SELECT * FROM "users" WHERE "id" NOT IN ($1, $2)`, []interface{}{1, 2})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["id"] != 3 {
		t.Fatalf("NOT IN rows = %+v, want only id=3", res.Rows)
	}
}

func TestSelectBetween(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users",
		map[string]interface{}{"id": 1, "age": 15},
		map[string]interface{}{"id": 2, "age": 25},
		map[string]interface{}{"id": 3, "age": 35},
	)

	res, err := d.Exec(ctx, `SELECT * FROM "users" WHERE "age" BETWEEN $1 AND $2`, []interface{}{20, 30})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["id"] != 2 {
		t.Fatalf("rows = %+v, want only id=2", res.Rows)
	}
}

func TestSelectLikeAndIsNull(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users",
		map[string]interface{}{"id": 1, "name": "Alice", "bio": nil},
		map[string]interface{}{"id": 2, "name": "Alison", "bio": "hi"},
		map[string]interface{}{"id": 3, "name": "Bob", "bio": "hi"},
	)

	res, err := d.Exec(ctx, `SELECT * FROM "users" WHERE "name" LIKE $1`, []interface{}{"Ali%"})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("LIKE rows = %+v, want 2", res.Rows)
	}

	res, err = d.Exec(ctx, `SELECT * FROM "users" WHERE "bio" IS NULL`, nil)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["id"] != 1 {
		t.Fatalf("IS NULL rows = %+v, want only id=1", res.Rows)
	}
}

func TestRunTransactionRollsBackOnError(t *testing.T) {
	d := New()
	ctx := context.Background()
	d.Seed("users", map[string]interface{}{"id": 1, "name": "Alice"})

	boom := errors.New("boom")
	err := d.RunTransaction(ctx, func(tx pawql.Driver) error {
		if _, err := tx.Exec(ctx, `INSERT INTO "users" ("id", "name") VALUES ($1, $2)`, []interface{}{2, "Bob"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	res, err := d.Exec(ctx, `SELECT * FROM "users"`, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows after rolled-back transaction = %+v, want only the seeded row", res.Rows)
	}
}

func TestRunTransactionCommitsOnSuccess(t *testing.T) {
	d := New()
	ctx := context.Background()

	err := d.RunTransaction(ctx, func(tx pawql.Driver) error {
		_, err := tx.Exec(ctx, `INSERT INTO "users" ("id", "name") VALUES ($1, $2)`, []interface{}{1, "Alice"})
		return err
	})
	if err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}

	res, err := d.Exec(ctx, `SELECT * FROM "users"`, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows after committed transaction = %+v, want one row", res.Rows)
	}
}
