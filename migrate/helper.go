package migrate

import (
	"context"

	"github.com/onyx-go/pawql"
)

// Helper is the thin wrapper around a driver passed into every migration
// module's Up/Down function. Its DDL operations share rendering with
// the package's CREATE TABLE renderer.
type Helper struct {
	ctx    context.Context
	driver pawql.Driver
}

// SQL runs a raw statement with positional parameters.
func (h *Helper) SQL(raw string, params ...interface{}) error {
	_, err := h.driver.Exec(h.ctx, raw, params)
	return err
}

// CreateTable renders and runs CREATE TABLE IF NOT EXISTS for t.
func (h *Helper) CreateTable(t *pawql.TableSchema) error {
	stmt, err := pawql.RenderCreateTable(t)
	if err != nil {
		return err
	}
	return h.SQL(stmt)
}

// DropTable renders and runs DROP TABLE IF EXISTS.
func (h *Helper) DropTable(table string, cascade bool) error {
	return h.SQL(pawql.RenderDropTable(table, cascade))
}

// AddColumn renders and runs ALTER TABLE ADD COLUMN.
func (h *Helper) AddColumn(table, column string, def pawql.ColumnDefinition) error {
	stmt, err := pawql.RenderAddColumn(table, column, def)
	if err != nil {
		return err
	}
	return h.SQL(stmt)
}

// DropColumn renders and runs ALTER TABLE DROP COLUMN.
func (h *Helper) DropColumn(table, column string) error {
	return h.SQL(pawql.RenderDropColumn(table, column))
}

// RenameTable renders and runs ALTER TABLE RENAME TO.
func (h *Helper) RenameTable(from, to string) error {
	return h.SQL(pawql.RenderRenameTable(from, to))
}

// RenameColumn renders and runs ALTER TABLE RENAME COLUMN.
func (h *Helper) RenameColumn(table, from, to string) error {
	return h.SQL(pawql.RenderRenameColumn(table, from, to))
}
