package pawql

// OperationKind tags which SQL statement shape a Builder will render.
type OperationKind int

const (
	opUnset OperationKind = iota
	OpSelect
	OpInsert
	OpUpdate
	OpDelete
)

func (k OperationKind) String() string {
	switch k {
	case OpSelect:
		return "select"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unset"
	}
}

// JoinKind tags one of the four join shapes the renderer supports.
type JoinKind string

const (
	JoinInner JoinKind = "INNER JOIN"
	JoinLeft  JoinKind = "LEFT JOIN"
	JoinRight JoinKind = "RIGHT JOIN"
	JoinFull  JoinKind = "FULL OUTER JOIN"
)

// Join is one entry in a builder's join sequence.
type Join struct {
	Kind     JoinKind
	Table    string
	LeftCol  string
	OpToken  string // usually "="
	RightCol string
}

// OrderDirection is ASC or DESC.
type OrderDirection string

const (
	Asc  OrderDirection = "ASC"
	Desc OrderDirection = "DESC"
)

// OrderByClause is one entry in a builder's ORDER BY sequence.
type OrderByClause struct {
	Column    string
	Direction OrderDirection
}

// HavingClause carries a raw fragment with positional placeholders,
// rebased against the outer query's placeholder sequence at render time
// (see render.go), plus the values that fill them.
type HavingClause struct {
	Fragment string
	Values   []interface{}
}

// Assignment is one column=value entry in an UPDATE SET list or an INSERT
// ON CONFLICT DO UPDATE SET list. A slice (not a map) because assignment
// order is part of parameter-numbering (§4.2).
type Assignment struct {
	Column string
	Value  interface{}
}

// ConflictAction tags what an ON CONFLICT clause does on a conflicting row.
type ConflictAction int

const (
	ConflictDoNothing ConflictAction = iota
	ConflictDoUpdate
)

// OnConflict describes an INSERT ... ON CONFLICT clause.
type OnConflict struct {
	Columns     []string
	Action      ConflictAction
	Assignments []Assignment
}

// ReturningKind tags a builder's RETURNING policy for INSERT/UPDATE/DELETE.
type ReturningKind int

const (
	ReturningDefault ReturningKind = iota // RETURNING * for mutations, nothing for SELECT
	ReturningColumns
	ReturningSuppressed
)

// ReturningPolicy is a builder's RETURNING configuration.
type ReturningPolicy struct {
	Kind    ReturningKind
	Columns []string
}

// SoftDeleteScope tags how a builder interacts with a table's soft-delete
// overlay, if any is configured on the owning Handle.
type SoftDeleteScope int

const (
	ScopeDefault SoftDeleteScope = iota // honour the overlay
	ScopeIncludeAll
	ScopeOnlyTrashed
)

// querySource is a builder's FROM target: either a plain table name or a
// subquery rendered inline and aliased.
type querySource struct {
	table    string
	subquery *Builder
	alias    string
}

// Builder is a mutable value accumulating a pending query: an operation
// tag plus one ordered sequence per clause. Each chain method mutates and
// returns the same *Builder; terminal methods render and execute.
//
// Predicate grouping is intentionally unparenthesized: AND/OR predicates
// accumulate into one flat left-to-right sequence, relying on SQL's
// native operator precedence exactly as documented in the package's
// design notes. Mixing Where and OrWhere across multiple calls can
// produce non-obvious groupings — this is preserved deliberately, not a
// bug, and is never silently parenthesized.
type Builder struct {
	handle *Handle

	source    querySource
	operation OperationKind

	projection []string

	predicates []Predicate
	joins      []Join
	orderBy    []OrderByClause
	groupBy    []string
	having     []HavingClause
	limit      *int
	offset     *int

	insertRows        []Row
	updateAssignments []Assignment

	onConflict *OnConflict
	returning  ReturningPolicy

	softDeleteScope SoftDeleteScope

	err error // sticky ConfigurationError, surfaced at render/exec time
}

func newBuilder(h *Handle, table string) *Builder {
	return &Builder{handle: h, source: querySource{table: table}}
}

func (b *Builder) fail(op, format string, args ...interface{}) *Builder {
	if b.err == nil {
		b.err = newConfigErr(op, format, args...)
	}
	return b
}

func (b *Builder) setOperation(op OperationKind, label string) {
	if b.operation != opUnset && b.operation != op {
		b.fail(label, "builder already has operation %v; cannot also call %v", b.operation, op)
		return
	}
	b.operation = op
}

// Select sets the operation to SELECT with the given projected columns
// (defaults to "*" if none are given before rendering).
func (b *Builder) Select(cols ...string) *Builder {
	b.setOperation(OpSelect, "select")
	b.projection = append(b.projection, cols...)
	return b
}

// Insert sets the operation to INSERT with one or more rows. Rows are
// Row values (not maps) because INSERT column order is part of
// parameter numbering and Go maps carry no iteration order. All rows
// must share the column set of the first row.
func (b *Builder) Insert(rows ...Row) *Builder {
	b.setOperation(OpInsert, "insert")
	if len(rows) == 0 {
		return b.fail("insert", "insert requires at least one row")
	}
	for _, row := range rows {
		if len(row) == 0 {
			return b.fail("insert", "insert row must have at least one column")
		}
	}
	b.insertRows = append(b.insertRows, rows...)
	return b
}

// Update sets the operation to UPDATE with the given SET assignments, in
// the order given — that order determines parameter numbering.
func (b *Builder) Update(assignments ...Assignment) *Builder {
	b.setOperation(OpUpdate, "update")
	b.updateAssignments = append(b.updateAssignments, assignments...)
	return b
}

// Delete sets the operation to DELETE (hard delete; ignores any
// soft-delete overlay — use SoftDelete on the Handle for that).
func (b *Builder) Delete() *Builder {
	b.setOperation(OpDelete, "delete")
	return b
}

// Where appends predicates with the AND connector.
func (b *Builder) Where(f Filter) *Builder {
	return b.appendFilter(And, f)
}

// OrWhere appends predicates with the OR connector.
func (b *Builder) OrWhere(f Filter) *Builder {
	return b.appendFilter(Or, f)
}

func (b *Builder) appendFilter(conn Connector, f Filter) *Builder {
	for _, exp := range desugarFilter(f) {
		b.predicates = append(b.predicates, Predicate{Connector: conn, Column: exp.Column, Op: exp.Op})
	}
	return b
}

// WherePredicate appends a single already-built predicate; an escape
// hatch for callers holding a raw Operator rather than a Filter.
func (b *Builder) WherePredicate(conn Connector, column string, op Operator) *Builder {
	b.predicates = append(b.predicates, Predicate{Connector: conn, Column: column, Op: op})
	return b
}

// Join appends a join clause. Column references may be qualified
// (table.col); mutation operations reject joins at render time.
func (b *Builder) Join(kind JoinKind, table, leftCol, opToken, rightCol string) *Builder {
	b.joins = append(b.joins, Join{Kind: kind, Table: table, LeftCol: leftCol, OpToken: opToken, RightCol: rightCol})
	return b
}

func (b *Builder) InnerJoin(table, leftCol, rightCol string) *Builder {
	return b.Join(JoinInner, table, leftCol, "=", rightCol)
}
func (b *Builder) LeftJoin(table, leftCol, rightCol string) *Builder {
	return b.Join(JoinLeft, table, leftCol, "=", rightCol)
}
func (b *Builder) RightJoin(table, leftCol, rightCol string) *Builder {
	return b.Join(JoinRight, table, leftCol, "=", rightCol)
}
func (b *Builder) FullJoin(table, leftCol, rightCol string) *Builder {
	return b.Join(JoinFull, table, leftCol, "=", rightCol)
}

// OrderBy appends an ORDER BY entry.
func (b *Builder) OrderBy(column string, dir OrderDirection) *Builder {
	b.orderBy = append(b.orderBy, OrderByClause{Column: column, Direction: dir})
	return b
}

// GroupBy appends GROUP BY columns.
func (b *Builder) GroupBy(cols ...string) *Builder {
	b.groupBy = append(b.groupBy, cols...)
	return b
}

// Having appends a raw HAVING fragment with its inline placeholder
// values; multiple Having calls are joined with AND.
func (b *Builder) Having(fragment string, values ...interface{}) *Builder {
	b.having = append(b.having, HavingClause{Fragment: fragment, Values: values})
	return b
}

// Limit sets LIMIT.
func (b *Builder) Limit(n int) *Builder {
	b.limit = &n
	return b
}

// Offset sets OFFSET.
func (b *Builder) Offset(n int) *Builder {
	b.offset = &n
	return b
}

// OnConflictDoNothing sets ON CONFLICT (cols) DO NOTHING; meaningful only
// for INSERT.
func (b *Builder) OnConflictDoNothing(cols ...string) *Builder {
	b.onConflict = &OnConflict{Columns: cols, Action: ConflictDoNothing}
	return b
}

// OnConflictDoUpdate sets ON CONFLICT (cols) DO UPDATE SET ...; meaningful
// only for INSERT. Fails at render time if assignments is empty.
func (b *Builder) OnConflictDoUpdate(cols []string, assignments ...Assignment) *Builder {
	b.onConflict = &OnConflict{Columns: cols, Action: ConflictDoUpdate, Assignments: assignments}
	return b
}

// Returning sets the RETURNING policy: with columns, returns exactly those
// columns; with no arguments it suppresses the clause entirely, the same
// as ReturningNone.
func (b *Builder) Returning(cols ...string) *Builder {
	if len(cols) == 0 {
		return b.ReturningNone()
	}
	b.returning = ReturningPolicy{Kind: ReturningColumns, Columns: cols}
	return b
}

// ReturningNone suppresses the RETURNING clause entirely.
func (b *Builder) ReturningNone() *Builder {
	b.returning = ReturningPolicy{Kind: ReturningSuppressed}
	return b
}

// WithTrashed includes soft-deleted rows alongside live ones (IncludeAll
// scope): no predicate is injected by the overlay.
func (b *Builder) WithTrashed() *Builder {
	b.softDeleteScope = ScopeIncludeAll
	return b
}

// OnlyTrashed restricts to soft-deleted rows only.
func (b *Builder) OnlyTrashed() *Builder {
	b.softDeleteScope = ScopeOnlyTrashed
	return b
}
