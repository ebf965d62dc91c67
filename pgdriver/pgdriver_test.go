package pgdriver

import "testing"

func TestProducesRows(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{`SELECT * FROM "users"`, true},
		{`  select "id" from "users"`, true},
		{`INSERT INTO "users" ("id") VALUES ($1)`, false},
		{`INSERT INTO "users" ("id") VALUES ($1) RETURNING *`, true},
		{`UPDATE "users" SET "name" = $1 WHERE "id" = $2`, false},
		{`UPDATE "users" SET "name" = $1 WHERE "id" = $2 RETURNING "name"`, true},
		{`DELETE FROM "users" WHERE "id" = $1`, false},
		{`CREATE TABLE IF NOT EXISTS "users" ("id" INTEGER PRIMARY KEY)`, false},
	}
	for _, c := range cases {
		if got := producesRows(c.query); got != c.want {
			t.Errorf("producesRows(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}
