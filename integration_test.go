//go:build integration

package pawql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/onyx-go/pawql"
	"github.com/onyx-go/pawql/pgdriver"
)

// setupContainer starts a disposable Postgres instance, creates the
// "users" table, and returns the raw driver so callers can build
// whichever Handle configuration their test needs.
func setupContainer(t *testing.T) *pgdriver.Driver {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("pawql_test"),
		postgres.WithUsername("pawql"),
		postgres.WithPassword("pawql"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctr.Terminate(ctx)) })

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	driver, err := pgdriver.Open(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	_, err = driver.Exec(ctx, `CREATE TABLE "users" (
  "id" INTEGER PRIMARY KEY,
  "name" TEXT NOT NULL,
  "age" INTEGER,
  "deleted_at" TIMESTAMP
)`, nil)
	require.NoError(t, err)

	return driver
}

// Property 6 & 7 against a real engine: a failed transaction leaves no
// trace, and a committed one round-trips values through their real
// Postgres column types.
func TestIntegrationTransactionAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := pawql.NewHandle(nil, setupContainer(t))

	boom := errors.New("boom")
	err := h.Transaction(ctx, func(tx *pawql.Handle) error {
		if _, err := tx.Query("users").Insert(pawql.R("id", 1, "name", "Alice", "age", 30)).Exec(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := h.Query("users").Get(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)

	require.NoError(t, h.Transaction(ctx, func(tx *pawql.Handle) error {
		_, err := tx.Query("users").Insert(pawql.R("id", 1, "name", "Alice", "age", 30)).Exec(ctx)
		return err
	}))

	rows, err = h.Query("users").Select().Where(pawql.F("id", 1)).Get(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Alice", rows[0]["name"])
	require.EqualValues(t, 30, rows[0]["age"])
}

func TestIntegrationSoftDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver := setupContainer(t)
	h := pawql.NewHandle(nil, driver, pawql.WithSoftDelete("deleted_at", "users"))

	_, err := h.Query("users").Insert(pawql.R("id", 1, "name", "Alice")).Exec(ctx)
	require.NoError(t, err)

	_, err = h.SoftDelete("users").Where(pawql.F("id", 1)).Exec(ctx)
	require.NoError(t, err)

	rows, err := h.Query("users").Get(ctx)
	require.NoError(t, err)
	require.Empty(t, rows, "soft-deleted row should be excluded by default scope")

	rows, err = h.Query("users").Select().WithTrashed().Get(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = h.Restore("users").Where(pawql.F("id", 1)).Exec(ctx)
	require.NoError(t, err)

	rows, err = h.Query("users").Get(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1, "restored row should be visible again under the default scope")
}

func TestIntegrationUpsertAndCount(t *testing.T) {
	ctx := context.Background()
	h := pawql.NewHandle(nil, setupContainer(t))

	_, err := h.Query("users").
		Insert(pawql.R("id", 1, "name", "Alice", "age", 30)).
		OnConflictDoUpdate([]string{"id"}, pawql.Assignment{Column: "name", Value: "Alice2"}).
		Exec(ctx)
	require.NoError(t, err)

	_, err = h.Query("users").
		Insert(pawql.R("id", 1, "name", "Alice", "age", 30)).
		OnConflictDoUpdate([]string{"id"}, pawql.Assignment{Column: "name", Value: "Alice2"}).
		Exec(ctx)
	require.NoError(t, err)

	count, err := h.Query("users").Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	row, err := h.Query("users").Select().Where(pawql.F("id", 1)).First(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice2", row["name"])
}
