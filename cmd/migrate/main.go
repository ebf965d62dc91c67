// Command migrate drives pawql's migration runner from the shell:
// scaffold new migration files, apply pending ones, roll batches back,
// and report status. Migrations themselves are Go code registered
// against registry (see registry.go); this binary only sequences them.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/onyx-go/pawql"
	"github.com/onyx-go/pawql/internal/logging"
	"github.com/onyx-go/pawql/migrate"
	"github.com/onyx-go/pawql/pgdriver"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dsn, table, dir string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply and inspect pawql schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "Postgres DSN (defaults to $DATABASE_URL)")
	root.PersistentFlags().StringVar(&table, "table", "schema_migrations", "tracking table name")
	root.PersistentFlags().StringVar(&dir, "dir", "migrations", "directory for migrate:make scaffolds")

	root.AddCommand(
		makeCmd(&dir),
		upCmd(&dsn, &table),
		downCmd(&dsn, &table),
		statusCmd(&dsn, &table),
	)
	return root
}

func makeCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:make <name>",
		Short: "Scaffold a new migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.Make(*dir, args[0])
			if err != nil {
				return err
			}
			fmt.Println("created", path)
			return nil
		},
	}
}

func upCmd(dsn, table *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, driver, status, err := newRunner(*dsn, *table)
			if err != nil {
				return err
			}
			defer driver.Close()

			applied, err := runner.Up(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				status.Info("nothing to migrate")
				return nil
			}
			for _, name := range applied {
				status.Info("migrated", "name", name)
			}
			return nil
		},
	}
}

func downCmd(dsn, table *string) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "migrate:down",
		Short: "Roll back the most recent migration batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, driver, status, err := newRunner(*dsn, *table)
			if err != nil {
				return err
			}
			defer driver.Close()

			var rolledBack []string
			if steps > 0 {
				rolledBack, err = runner.DownSteps(cmd.Context(), steps)
			} else {
				rolledBack, err = runner.Down(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(rolledBack) == 0 {
				status.Info("nothing to roll back")
				return nil
			}
			for _, name := range rolledBack {
				status.Info("rolled back", "name", name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "step", 0, "number of batches to roll back (default: the last batch)")
	return cmd
}

func statusCmd(dsn, table *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "List known migrations and whether they have run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, driver, _, err := newRunner(*dsn, *table)
			if err != nil {
				return err
			}
			defer driver.Close()

			entries, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				state := "pending"
				if e.Ran {
					state = fmt.Sprintf("ran (batch %d)", e.Batch)
				}
				fmt.Printf("%-40s %s\n", e.Name, state)
			}
			return nil
		},
	}
}

// newRunner loads .env (if present), resolves the DSN, opens a Postgres
// connection, and wraps it in a migrate.Runner bound to registry. Every
// statement the runner executes flows through a charm-log-backed
// pawql.Logger, so "what ran" and "what the CLI reports" come from the
// same SQL traffic rather than two independently-maintained call sites.
func newRunner(dsn, table string) (*migrate.Runner, *pgdriver.Driver, *log.Logger, error) {
	_ = godotenv.Load()

	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, nil, nil, fmt.Errorf("no DSN given: pass --dsn or set DATABASE_URL")
	}

	driver, err := pgdriver.Open(dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to %s: %w", dsn, err)
	}

	sqlLogger := pawql.NewSQLLogger(logging.NewCharmDriver(os.Stderr), logging.Info)
	logged := pawql.WithLogger(driver, sqlLogger)

	status := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
	runner := migrate.NewRunner(logged, registry, migrate.WithTrackingTable(table))
	return runner, driver, status, nil
}
