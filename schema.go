package pawql

import (
	"fmt"
	"time"
)

// ColumnKind tags the shape of a column's type descriptor.
type ColumnKind int

const (
	KindInt ColumnKind = iota
	KindText
	KindBool
	KindTimestamp
	KindUuid
	KindJson
	KindEnum
	KindArray
)

// ColumnType is a tagged column type descriptor. Exactly one PostgreSQL
// type corresponds to each Kind: INTEGER, TEXT, BOOLEAN, TIMESTAMP, UUID,
// JSONB, TEXT+CHECK (for Enum), and T[] (for Array).
type ColumnType struct {
	Kind ColumnKind

	// JsonPayload optionally documents the shape stored under Kind==KindJson.
	// It has no effect on rendering; JSONB is JSONB regardless.
	JsonPayload string

	// Values holds the ordered allowed values for Kind==KindEnum.
	Values []string

	// Item holds the element type for Kind==KindArray. It must itself be
	// one of the scalar kinds (Int, Text, Bool, Timestamp, Uuid) — arrays
	// of JSON, Enum, or Array are a configuration error.
	Item *ColumnType
}

func Int() ColumnType       { return ColumnType{Kind: KindInt} }
func Text() ColumnType      { return ColumnType{Kind: KindText} }
func Bool() ColumnType      { return ColumnType{Kind: KindBool} }
func Timestamp() ColumnType { return ColumnType{Kind: KindTimestamp} }
func Uuid() ColumnType      { return ColumnType{Kind: KindUuid} }

func Json(payloadType string) ColumnType {
	return ColumnType{Kind: KindJson, JsonPayload: payloadType}
}

func Enum(values ...string) ColumnType {
	cp := make([]string, len(values))
	copy(cp, values)
	return ColumnType{Kind: KindEnum, Values: cp}
}

func Array(item ColumnType) ColumnType {
	it := item
	return ColumnType{Kind: KindArray, Item: &it}
}

func (t ColumnType) validate() error {
	switch t.Kind {
	case KindEnum:
		if len(t.Values) == 0 {
			return fmt.Errorf("enum must declare at least one allowed value")
		}
	case KindArray:
		if t.Item == nil {
			return fmt.Errorf("array must declare an item type")
		}
		switch t.Item.Kind {
		case KindInt, KindText, KindBool, KindTimestamp, KindUuid:
			// scalar, fine
		default:
			return fmt.Errorf("array item type must be a scalar, not %v", t.Item.Kind)
		}
	}
	return nil
}

// sqlType returns the bare PostgreSQL type name, with no column-level
// constraints attached.
func (t ColumnType) sqlType() (string, error) {
	switch t.Kind {
	case KindInt:
		return "INTEGER", nil
	case KindText:
		return "TEXT", nil
	case KindBool:
		return "BOOLEAN", nil
	case KindTimestamp:
		return "TIMESTAMP", nil
	case KindUuid:
		return "UUID", nil
	case KindJson:
		return "JSONB", nil
	case KindEnum:
		return "TEXT", nil
	case KindArray:
		base, err := t.Item.sqlType()
		if err != nil {
			return "", err
		}
		return base + "[]", nil
	default:
		return "", fmt.Errorf("unsupported column type kind %v", t.Kind)
	}
}

// ColumnDefinition is a complete column declaration: its type plus the
// attributes that affect DDL and default-value handling.
type ColumnDefinition struct {
	Type       ColumnType
	Nullable   bool
	PrimaryKey bool
	// Default is a Go literal (string, int/int64/float64, bool, time.Time)
	// or nil for "no default". Anything else is a configuration error.
	Default interface{}
}

// Column is a convenience constructor for a plain, non-null, non-primary
// column definition; chain AsNullable()/AsPrimaryKey()/WithDefault() to adjust it.
func Column(t ColumnType) ColumnDefinition {
	return ColumnDefinition{Type: t}
}

func (c ColumnDefinition) AsNullable() ColumnDefinition {
	c.Nullable = true
	return c
}

func (c ColumnDefinition) AsPrimaryKey() ColumnDefinition {
	c.PrimaryKey = true
	c.Nullable = false
	return c
}

func (c ColumnDefinition) WithDefault(v interface{}) ColumnDefinition {
	c.Default = v
	return c
}

func (c ColumnDefinition) validate(tableName, colName string) error {
	if err := c.Type.validate(); err != nil {
		return newConfigErr(fmt.Sprintf("schema.%s.%s", tableName, colName), "%s", err.Error())
	}
	if c.PrimaryKey && c.Nullable {
		return newConfigErr(fmt.Sprintf("schema.%s.%s", tableName, colName),
			"a primary key column cannot also be nullable")
	}
	if c.Default != nil {
		if err := validateDefaultLiteral(c.Type, c.Default); err != nil {
			return newConfigErr(fmt.Sprintf("schema.%s.%s", tableName, colName), "%s", err.Error())
		}
	}
	return nil
}

func validateDefaultLiteral(t ColumnType, v interface{}) error {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64, time.Time:
		// representable as a literal
	default:
		return fmt.Errorf("default value %#v is not representable as a SQL literal", v)
	}
	if t.Kind == KindEnum {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("enum default must be a string")
		}
		for _, allowed := range t.Values {
			if allowed == s {
				return nil
			}
		}
		return fmt.Errorf("enum default %q is not among the allowed values %v", s, t.Values)
	}
	return nil
}

// TableSchema is an ordered mapping from column name to column definition.
// Insertion order determines DDL column order.
type TableSchema struct {
	Name    string
	columns []string
	defs    map[string]ColumnDefinition
}

// NewTableSchema creates an empty table schema for the given table name.
func NewTableSchema(name string) *TableSchema {
	return &TableSchema{Name: name, defs: make(map[string]ColumnDefinition)}
}

// AddColumn appends a column definition, preserving insertion order. It
// panics on a duplicate column name — that is a programming error in the
// schema declaration, not a runtime condition callers recover from.
func (t *TableSchema) AddColumn(name string, def ColumnDefinition) *TableSchema {
	if _, exists := t.defs[name]; exists {
		panic(fmt.Sprintf("pawql: duplicate column %q in table %q", name, t.Name))
	}
	t.columns = append(t.columns, name)
	t.defs[name] = def
	return t
}

// Columns returns column names in declaration order.
func (t *TableSchema) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *TableSchema) Column(name string) (ColumnDefinition, bool) {
	def, ok := t.defs[name]
	return def, ok
}

func (t *TableSchema) validate() error {
	for _, name := range t.columns {
		if err := t.defs[name].validate(t.Name, name); err != nil {
			return err
		}
	}
	return nil
}

// Schema is the database-wide mapping from table name to table schema. It
// is built once at startup and is immutable for the life of a Handle.
type Schema struct {
	tables map[string]*TableSchema
	order  []string
}

// NewSchema builds a Schema from the given tables, validating every column
// definition. It returns a ConfigurationError on the first invalid column.
func NewSchema(tables ...*TableSchema) (*Schema, error) {
	s := &Schema{tables: make(map[string]*TableSchema, len(tables))}
	for _, t := range tables {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, exists := s.tables[t.Name]; !exists {
			s.order = append(s.order, t.Name)
		}
		s.tables[t.Name] = t
	}
	return s, nil
}

func (s *Schema) Table(name string) (*TableSchema, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// TableNames returns table names in the order they were passed to NewSchema.
func (s *Schema) TableNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
