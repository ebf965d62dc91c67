package pawql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// paramState accumulates the outer parameter vector as rendering proceeds,
// handing out the next positional placeholder on demand. This is the
// single source of truth for parameter numbering (§4.2): INSERT values
// row-major, UPDATE assignments in input order, WHERE predicates
// left-to-right, ON CONFLICT DO UPDATE assignments, then HAVING values,
// then subqueries — in each case by virtue of the order render methods
// are called in.
type paramState struct {
	params []interface{}
}

// next appends v and returns its placeholder token, e.g. "$3".
func (p *paramState) next(v interface{}) string {
	p.params = append(p.params, v)
	return "$" + strconv.Itoa(len(p.params))
}

// nextIndex returns the placeholder index that the next call to next
// would hand out, without consuming it.
func (p *paramState) nextIndex() int {
	return len(p.params) + 1
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// rebasePlaceholders rewrites every "$n" token in sql to "$(n+offset)". It
// is the pure rebasing function the subquery and HAVING-fragment renderers
// both use: (inner_sql, offset) -> rewritten_sql.
func rebasePlaceholders(sql string, offset int) string {
	return placeholderPattern.ReplaceAllStringFunc(sql, func(tok string) string {
		n, _ := strconv.Atoi(tok[1:])
		return "$" + strconv.Itoa(n+offset)
	})
}

// quoteIdent double-quotes a possibly-dotted identifier: "table.col"
// becomes "\"table\".\"col\"" with no internal space.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// quoteProjectionExpr renders a projection/expression identifier. A lone
// "*" and anything containing "(", a space, or a leading quote passes
// through unquoted so callers can write aggregates like "COUNT(*) AS
// total" inline; everything else is dot-split and double-quoted.
func quoteProjectionExpr(expr string) string {
	if expr == "*" {
		return expr
	}
	if strings.ContainsAny(expr, "( ") || strings.HasPrefix(expr, `"`) {
		return expr
	}
	return quoteIdent(expr)
}

// render produces the final (sql, params) pair for b, applying the
// soft-delete overlay (if any) as a final pass over the IR first.
func (b *Builder) render() (string, []interface{}, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	effective := b.withSoftDeleteApplied()

	state := &paramState{}
	var sql string
	var err error

	switch effective.operation {
	case OpSelect:
		sql, err = effective.renderSelect(state)
	case OpInsert:
		sql, err = effective.renderInsert(state)
	case OpUpdate:
		sql, err = effective.renderUpdate(state)
	case OpDelete:
		sql, err = effective.renderDelete(state)
	default:
		return "", nil, newConfigErr("render", "builder has no operation set")
	}
	if err != nil {
		return "", nil, err
	}
	return sql, state.params, nil
}

// renderFromWithParams renders the FROM source, rebasing and appending
// params if the source is a subquery.
func (b *Builder) renderFromWithParams(state *paramState) (string, error) {
	if b.source.subquery != nil {
		inner, innerParams, err := b.source.subquery.render()
		if err != nil {
			return "", err
		}
		offset := state.nextIndex() - 1
		rebased := rebasePlaceholders(inner, offset)
		state.params = append(state.params, innerParams...)
		return fmt.Sprintf("(%s) AS %s", rebased, quoteIdent(b.source.alias)), nil
	}
	return quoteIdent(b.source.table), nil
}

func (b *Builder) renderJoins() (string, error) {
	if len(b.joins) == 0 {
		return "", nil
	}
	var parts []string
	for _, j := range b.joins {
		parts = append(parts, fmt.Sprintf("%s %s ON %s %s %s",
			j.Kind, quoteIdent(j.Table), quoteIdent(j.LeftCol), j.OpToken, quoteIdent(j.RightCol)))
	}
	return " " + strings.Join(parts, " "), nil
}

// renderWhere renders the flattened predicate sequence: the first
// predicate's connector is dropped, subsequent ones render verbatim, per
// the deliberately unparenthesized grouping semantics.
func (b *Builder) renderWhere(state *paramState) (string, error) {
	if len(b.predicates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString(" WHERE ")
	for i, pred := range b.predicates {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(string(pred.Connector))
			sb.WriteString(" ")
		}
		frag, err := renderPredicate(pred, state)
		if err != nil {
			return "", err
		}
		sb.WriteString(frag)
	}
	return sb.String(), nil
}

func renderPredicate(pred Predicate, state *paramState) (string, error) {
	col := quoteIdent(pred.Column)
	op := pred.Op
	switch op.Kind {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEq, OpLess, OpLessEq, OpLike, OpILike:
		return fmt.Sprintf("%s %s %s", col, op.Kind.token(), state.next(op.Value)), nil
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", col), nil
	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", col), nil
	case OpIn:
		if len(op.List) == 0 {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s IN (%s)", col, placeholderList(op.List, state)), nil
	case OpNotIn:
		if len(op.List) == 0 {
			return "TRUE", nil
		}
		return fmt.Sprintf("%s NOT IN (%s)", col, placeholderList(op.List, state)), nil
	case OpBetween:
		lo := state.next(op.Low)
		hi := state.next(op.High)
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, lo, hi), nil
	case OpSubquery:
		if op.Sub == nil {
			return "", newConfigErr("where."+pred.Column, "subquery operator requires a builder")
		}
		inner, innerParams, err := op.Sub.render()
		if err != nil {
			return "", err
		}
		offset := state.nextIndex() - 1
		rebased := rebasePlaceholders(inner, offset)
		state.params = append(state.params, innerParams...)
		return fmt.Sprintf("%s IN (%s)", col, rebased), nil
	default:
		return "", newConfigErr("where."+pred.Column, "unsupported operator kind %v", op.Kind)
	}
}

func placeholderList(values []interface{}, state *paramState) string {
	toks := make([]string, len(values))
	for i, v := range values {
		toks[i] = state.next(v)
	}
	return strings.Join(toks, ", ")
}

func (b *Builder) renderGroupBy() string {
	if len(b.groupBy) == 0 {
		return ""
	}
	cols := make([]string, len(b.groupBy))
	for i, c := range b.groupBy {
		cols[i] = quoteIdent(c)
	}
	return " GROUP BY " + strings.Join(cols, ", ")
}

func (b *Builder) renderHaving(state *paramState) string {
	if len(b.having) == 0 {
		return ""
	}
	var frags []string
	for _, h := range b.having {
		offset := state.nextIndex() - 1
		rebased := rebasePlaceholders(h.Fragment, offset)
		state.params = append(state.params, h.Values...)
		frags = append(frags, rebased)
	}
	return " HAVING " + strings.Join(frags, " AND ")
}

func (b *Builder) renderOrderBy() string {
	if len(b.orderBy) == 0 {
		return ""
	}
	var parts []string
	for _, o := range b.orderBy {
		parts = append(parts, fmt.Sprintf("%s %s", quoteIdent(o.Column), o.Direction))
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) renderLimitOffset() string {
	var sb strings.Builder
	if b.limit != nil {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", *b.limit))
	}
	if b.offset != nil {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", *b.offset))
	}
	return sb.String()
}

func (b *Builder) renderProjection() string {
	if len(b.projection) == 0 {
		return "*"
	}
	cols := make([]string, len(b.projection))
	for i, c := range b.projection {
		cols[i] = quoteProjectionExpr(c)
	}
	return strings.Join(cols, ", ")
}

func (b *Builder) renderSelect(state *paramState) (string, error) {
	from, err := b.renderFromWithParams(state)
	if err != nil {
		return "", err
	}
	joins, err := b.renderJoins()
	if err != nil {
		return "", err
	}
	where, err := b.renderWhere(state)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.renderProjection())
	sb.WriteString(" FROM ")
	sb.WriteString(from)
	sb.WriteString(joins)
	sb.WriteString(where)
	sb.WriteString(b.renderGroupBy())
	sb.WriteString(b.renderHaving(state))
	sb.WriteString(b.renderOrderBy())
	sb.WriteString(b.renderLimitOffset())
	return sb.String(), nil
}

func (b *Builder) renderInsert(state *paramState) (string, error) {
	if len(b.joins) > 0 {
		return "", newConfigErr("insert", "INSERT cannot carry joins")
	}
	if len(b.insertRows) == 0 {
		return "", newConfigErr("insert", "insert requires at least one row")
	}
	cols := make([]string, len(b.insertRows[0]))
	for i, f := range b.insertRows[0] {
		cols[i] = f.Column
	}

	var rowsSQL []string
	for ri, row := range b.insertRows {
		byCol := make(map[string]interface{}, len(row))
		for _, f := range row {
			byCol[f.Column] = f.Value
		}
		var toks []string
		for _, c := range cols {
			v, ok := byCol[c]
			if !ok {
				return "", newConfigErr("insert", "row %d missing column %q present in the first row", ri, c)
			}
			toks = append(toks, state.next(v))
		}
		rowsSQL = append(rowsSQL, "("+strings.Join(toks, ", ")+")")
	}

	quotedCols := make([]string, len(cols))
	for i, c := range cols {
		quotedCols[i] = quoteIdent(c)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdent(b.source.table), strings.Join(quotedCols, ", "), strings.Join(rowsSQL, ", ")))

	if b.onConflict != nil {
		frag, err := renderOnConflict(b.onConflict, state)
		if err != nil {
			return "", err
		}
		sb.WriteString(frag)
	}

	sb.WriteString(b.renderReturning())
	return sb.String(), nil
}

func renderOnConflict(oc *OnConflict, state *paramState) (string, error) {
	quotedCols := make([]string, len(oc.Columns))
	for i, c := range oc.Columns {
		quotedCols[i] = quoteIdent(c)
	}
	base := fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(quotedCols, ", "))
	switch oc.Action {
	case ConflictDoNothing:
		return base + " DO NOTHING", nil
	case ConflictDoUpdate:
		if len(oc.Assignments) == 0 {
			return "", newConfigErr("on_conflict", "DO UPDATE requires at least one assignment")
		}
		sets, err := renderAssignments(oc.Assignments, state)
		if err != nil {
			return "", err
		}
		return base + " DO UPDATE SET " + sets, nil
	default:
		return "", newConfigErr("on_conflict", "unsupported conflict action")
	}
}

func renderAssignments(assignments []Assignment, state *paramState) (string, error) {
	parts := make([]string, len(assignments))
	for i, a := range assignments {
		parts[i] = fmt.Sprintf("%s = %s", quoteIdent(a.Column), state.next(a.Value))
	}
	return strings.Join(parts, ", "), nil
}

func (b *Builder) renderUpdate(state *paramState) (string, error) {
	if len(b.joins) > 0 {
		return "", newConfigErr("update", "UPDATE cannot carry joins")
	}
	if len(b.updateAssignments) == 0 {
		return "", newConfigErr("update", "update requires at least one assignment")
	}
	sets, err := renderAssignments(b.updateAssignments, state)
	if err != nil {
		return "", err
	}
	where, err := b.renderWhere(state)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("UPDATE %s SET %s", quoteIdent(b.source.table), sets))
	sb.WriteString(where)
	sb.WriteString(b.renderReturning())
	return sb.String(), nil
}

func (b *Builder) renderDelete(state *paramState) (string, error) {
	if len(b.joins) > 0 {
		return "", newConfigErr("delete", "DELETE cannot carry joins")
	}
	where, err := b.renderWhere(state)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("DELETE FROM %s", quoteIdent(b.source.table)))
	sb.WriteString(where)
	sb.WriteString(b.renderReturning())
	return sb.String(), nil
}

func (b *Builder) renderReturning() string {
	if b.operation == OpSelect {
		return ""
	}
	switch b.returning.Kind {
	case ReturningSuppressed:
		return ""
	case ReturningColumns:
		cols := make([]string, len(b.returning.Columns))
		for i, c := range b.returning.Columns {
			cols[i] = quoteIdent(c)
		}
		return " RETURNING " + strings.Join(cols, ", ")
	default:
		return " RETURNING *"
	}
}
