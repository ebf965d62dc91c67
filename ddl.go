package pawql

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// renderCreateTable emits CREATE TABLE IF NOT EXISTS for t, column by
// column in declaration order: quoted name, mapped type, PRIMARY KEY,
// NOT NULL (when neither nullable nor primary), an enum CHECK clause, and
// finally a DEFAULT literal.
func renderCreateTable(t *TableSchema) (string, error) {
	var cols []string
	for _, name := range t.Columns() {
		def, _ := t.Column(name)
		colSQL, err := renderColumnClause(name, def)
		if err != nil {
			return "", err
		}
		cols = append(cols, "  "+colSQL)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", quoteIdent(t.Name), strings.Join(cols, ",\n")), nil
}

// renderColumnClause renders one column's portion of a CREATE TABLE/ADD
// COLUMN statement: the part after the comma-separated column list opens.
func renderColumnClause(name string, def ColumnDefinition) (string, error) {
	sqlType, err := def.Type.sqlType()
	if err != nil {
		return "", newConfigErr("schema."+name, "%s", err.Error())
	}

	var b strings.Builder
	b.WriteString(quoteIdent(name))
	b.WriteByte(' ')
	b.WriteString(sqlType)

	if def.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	} else if !def.Nullable {
		b.WriteString(" NOT NULL")
	}

	if def.Type.Kind == KindEnum {
		b.WriteString(" CHECK (")
		b.WriteString(quoteIdent(name))
		b.WriteString(" IN (")
		for i, v := range def.Type.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteStringLiteral(v))
		}
		b.WriteString("))")
	}

	if def.Default != nil {
		lit, err := renderLiteral(def.Default)
		if err != nil {
			return "", newConfigErr("schema."+name, "%s", err.Error())
		}
		b.WriteString(" DEFAULT ")
		b.WriteString(lit)
	}

	return b.String(), nil
}

// renderLiteral turns a Go default value into a SQL literal: numbers
// unquoted, booleans as TRUE/FALSE, strings single-quoted with embedded
// quotes doubled, timestamps as single-quoted ISO-8601.
func renderLiteral(v interface{}) (string, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case string:
		return quoteStringLiteral(val), nil
	case time.Time:
		return quoteStringLiteral(val.UTC().Format(time.RFC3339)), nil
	default:
		return "", fmt.Errorf("value %#v is not representable as a SQL literal", v)
	}
}

func quoteStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// renderAddColumn, renderDropColumn, renderRenameTable, renderRenameColumn,
// and renderDropTable back the migration helper's DDL operations (§4.6);
// they share column rendering with CREATE TABLE.

func renderAddColumn(table, column string, def ColumnDefinition) (string, error) {
	colSQL, err := renderColumnClause(column, def)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table), colSQL), nil
}

func renderDropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(table), quoteIdent(column))
}

func renderRenameTable(from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(from), quoteIdent(to))
}

func renderRenameColumn(table, from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", quoteIdent(table), quoteIdent(from), quoteIdent(to))
}

func renderDropTable(table string, cascade bool) string {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table))
	if cascade {
		sql += " CASCADE"
	}
	return sql
}

// RenderCreateTable, RenderAddColumn, RenderDropColumn, RenderRenameTable,
// RenderRenameColumn and RenderDropTable expose the DDL renderer to the
// migrate package's helper, which cannot reach this package's unexported
// render functions directly.

func RenderCreateTable(t *TableSchema) (string, error) { return renderCreateTable(t) }

func RenderAddColumn(table, column string, def ColumnDefinition) (string, error) {
	return renderAddColumn(table, column, def)
}

func RenderDropColumn(table, column string) string { return renderDropColumn(table, column) }

func RenderRenameTable(from, to string) string { return renderRenameTable(from, to) }

func RenderRenameColumn(table, from, to string) string { return renderRenameColumn(table, from, to) }

func RenderDropTable(table string, cascade bool) string { return renderDropTable(table, cascade) }
