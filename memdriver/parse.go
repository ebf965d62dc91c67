package memdriver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/onyx-go/pawql"
)

// This file implements just enough of a SQL reader to execute the exact
// statement shapes pawql's renderer produces: no parser generality is
// attempted. Joins, GROUP BY and HAVING are accepted syntactically where
// present (so render output never trips the driver) but evaluated only
// against the single base table — tests that need those clauses exercised
// for real belong in the build-tagged integration suite against a live
// Postgres instance instead.

var identPattern = regexp.MustCompile(`"([^"]+)"(?:\."([^"]+)")?`)

// unquoteIdent strips double quotes from a possibly-dotted identifier,
// returning just the column part (the part after the last dot).
func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	m := identPattern.FindStringSubmatch(s)
	if m == nil {
		return strings.Trim(s, `"`)
	}
	if m[2] != "" {
		return m[2]
	}
	return m[1]
}

func paramIndex(tok string) (int, error) {
	tok = strings.TrimSpace(tok)
	if !strings.HasPrefix(tok, "$") {
		return 0, fmt.Errorf("memdriver: expected placeholder, got %q", tok)
	}
	return strconv.Atoi(tok[1:])
}

func paramAt(params []interface{}, tok string) (interface{}, error) {
	idx, err := paramIndex(tok)
	if err != nil {
		return nil, err
	}
	if idx < 1 || idx > len(params) {
		return nil, fmt.Errorf("memdriver: placeholder %s out of range (%d params)", tok, len(params))
	}
	return params[idx-1], nil
}

var createTablePattern = regexp.MustCompile(`(?is)^CREATE TABLE IF NOT EXISTS\s+"([^"]+)"\s*\((.+)\)$`)
var columnLinePattern = regexp.MustCompile(`^"([^"]+)"`)

func (d *Driver) execCreateTable(stmt string) error {
	m := createTablePattern.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("memdriver: cannot parse CREATE TABLE: %s", stmt)
	}
	name, body := m[1], m[2]
	t := d.table(name)
	for _, line := range strings.Split(body, ",\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
		if cm := columnLinePattern.FindStringSubmatch(line); cm != nil {
			t.columns = append(t.columns, cm[1])
		}
	}
	return nil
}

var insertHeadPattern = regexp.MustCompile(`(?is)^INSERT INTO\s+"([^"]+)"\s*\((.*?)\)\s*VALUES\s*(.+)$`)
var returningPattern = regexp.MustCompile(`(?is)^(.*?)\s+RETURNING\s+(.+)$`)
var onConflictPattern = regexp.MustCompile(`(?is)^(.*?)\s+ON CONFLICT\s*\((.*?)\)\s*DO\s+(NOTHING|UPDATE SET\s+(.+))$`)

func (d *Driver) execInsert(stmt string, params []interface{}) (pawql.Result, error) {
	returningCols, rest := splitReturning(stmt)

	onConflictCols, conflictAction, conflictAssignments, rest := splitOnConflict(rest)

	m := insertHeadPattern.FindStringSubmatch(rest)
	if m == nil {
		return pawql.Result{}, fmt.Errorf("memdriver: cannot parse INSERT: %s", stmt)
	}
	tableName, colsRaw, valuesRaw := m[1], m[2], m[3]

	var cols []string
	for _, c := range strings.Split(colsRaw, ",") {
		cols = append(cols, unquoteIdent(c))
	}

	rowTuples := splitTopLevel(valuesRaw, ',', '(', ')')
	t := d.table(tableName)

	var produced []map[string]interface{}
	for _, tuple := range rowTuples {
		tuple = strings.TrimSpace(tuple)
		tuple = strings.TrimPrefix(tuple, "(")
		tuple = strings.TrimSuffix(tuple, ")")
		valToks := splitTopLevel(tuple, ',', '(', ')')

		row := make(map[string]interface{}, len(cols))
		for i, tok := range valToks {
			v, err := paramAt(params, strings.TrimSpace(tok))
			if err != nil {
				return pawql.Result{}, err
			}
			row[cols[i]] = v
		}

		if existing := findConflict(t, row, onConflictCols); existing != nil {
			switch conflictAction {
			case "NOTHING":
				produced = append(produced, existing)
				continue
			case "UPDATE":
				for _, a := range conflictAssignments {
					v, err := paramAt(params, a.valueToken)
					if err != nil {
						return pawql.Result{}, err
					}
					existing[a.column] = v
				}
				produced = append(produced, existing)
				continue
			}
		}

		t.rows = append(t.rows, row)
		produced = append(produced, row)
	}

	return resultFor(produced, returningCols), nil
}

type conflictAssignment struct {
	column     string
	valueToken string
}

func splitReturning(stmt string) ([]string, string) {
	m := returningPattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil, stmt
	}
	rest, cols := m[1], m[2]
	if strings.TrimSpace(cols) == "*" {
		return []string{"*"}, rest
	}
	var out []string
	for _, c := range strings.Split(cols, ",") {
		out = append(out, unquoteIdent(c))
	}
	return out, rest
}

func splitOnConflict(stmt string) (cols []string, action string, assignments []conflictAssignment, rest string) {
	m := onConflictPattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil, "", nil, stmt
	}
	rest = m[1]
	for _, c := range strings.Split(m[2], ",") {
		cols = append(cols, unquoteIdent(c))
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(m[3])), "NOTHING") {
		return cols, "NOTHING", nil, rest
	}
	action = "UPDATE"
	for _, pair := range splitTopLevel(m[4], ',', '(', ')') {
		eq := strings.SplitN(pair, "=", 2)
		if len(eq) != 2 {
			continue
		}
		assignments = append(assignments, conflictAssignment{
			column:     unquoteIdent(eq[0]),
			valueToken: strings.TrimSpace(eq[1]),
		})
	}
	return cols, action, assignments, rest
}

func findConflict(t *table, row map[string]interface{}, onCols []string) map[string]interface{} {
	if len(onCols) == 0 {
		return nil
	}
	for _, existing := range t.rows {
		match := true
		for _, c := range onCols {
			if fmt.Sprint(existing[c]) != fmt.Sprint(row[c]) {
				match = false
				break
			}
		}
		if match {
			return existing
		}
	}
	return nil
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// open/close delimiter pairs (so "(1, 2), (3, 4)" splits into two tuples,
// not four scalars).
func splitTopLevel(s string, sep, open, close byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	for i, v := range out {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func resultFor(rows []map[string]interface{}, returningCols []string) pawql.Result {
	if returningCols == nil {
		return pawql.Result{RowCount: len(rows)}
	}
	out := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		out[i] = projectRow(r, returningCols)
	}
	return pawql.Result{Rows: out, RowCount: len(out)}
}

func projectRow(row map[string]interface{}, cols []string) map[string]interface{} {
	if len(cols) == 1 && cols[0] == "*" {
		out := make(map[string]interface{}, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		out[c] = row[c]
	}
	return out
}

var updatePattern = regexp.MustCompile(`(?is)^UPDATE\s+"([^"]+)"\s+SET\s+(.+?)(\s+WHERE\s+.+)?$`)

func (d *Driver) execUpdate(stmt string, params []interface{}) (pawql.Result, error) {
	returningCols, rest := splitReturning(stmt)

	m := updatePattern.FindStringSubmatch(rest)
	if m == nil {
		return pawql.Result{}, fmt.Errorf("memdriver: cannot parse UPDATE: %s", stmt)
	}
	tableName, setsRaw, whereRaw := m[1], m[2], strings.TrimSpace(m[3])

	var assignments []conflictAssignment
	for _, pair := range splitTopLevel(setsRaw, ',', '(', ')') {
		eq := strings.SplitN(pair, "=", 2)
		if len(eq) != 2 {
			continue
		}
		assignments = append(assignments, conflictAssignment{
			column:     unquoteIdent(eq[0]),
			valueToken: strings.TrimSpace(eq[1]),
		})
	}

	pred, err := parseWhere(whereRaw)
	if err != nil {
		return pawql.Result{}, err
	}

	t := d.table(tableName)
	var affected []map[string]interface{}
	for _, row := range t.rows {
		ok, err := pred.eval(row, params)
		if err != nil {
			return pawql.Result{}, err
		}
		if !ok {
			continue
		}
		for _, a := range assignments {
			v, err := paramAt(params, a.valueToken)
			if err != nil {
				return pawql.Result{}, err
			}
			row[a.column] = v
		}
		affected = append(affected, row)
	}
	return resultFor(affected, returningCols), nil
}

var deletePattern = regexp.MustCompile(`(?is)^DELETE FROM\s+"([^"]+)"(\s+WHERE\s+.+)?$`)

func (d *Driver) execDelete(stmt string, params []interface{}) (pawql.Result, error) {
	returningCols, rest := splitReturning(stmt)

	m := deletePattern.FindStringSubmatch(rest)
	if m == nil {
		return pawql.Result{}, fmt.Errorf("memdriver: cannot parse DELETE: %s", stmt)
	}
	tableName, whereRaw := m[1], strings.TrimSpace(m[2])

	pred, err := parseWhere(whereRaw)
	if err != nil {
		return pawql.Result{}, err
	}

	t := d.table(tableName)
	var kept, removed []map[string]interface{}
	for _, row := range t.rows {
		ok, err := pred.eval(row, params)
		if err != nil {
			return pawql.Result{}, err
		}
		if ok {
			removed = append(removed, row)
		} else {
			kept = append(kept, row)
		}
	}
	t.rows = kept
	return resultFor(removed, returningCols), nil
}

var selectPattern = regexp.MustCompile(`(?is)^SELECT\s+(.+?)\s+FROM\s+"([^"]+)"(.*)$`)
var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
var offsetPattern = regexp.MustCompile(`(?i)\bOFFSET\s+(\d+)`)
var orderByPattern = regexp.MustCompile(`(?i)\bORDER BY\s+"?([\w."]+)"?\s+(ASC|DESC)`)
var wherePattern = regexp.MustCompile(`(?is)\bWHERE\s+(.+?)(\s+GROUP BY\s+.+)?(\s+ORDER BY\s+.+)?(\s+LIMIT\s+\d+)?(\s+OFFSET\s+\d+)?$`)

func (d *Driver) execSelect(stmt string, params []interface{}) (pawql.Result, error) {
	m := selectPattern.FindStringSubmatch(stmt)
	if m == nil {
		return pawql.Result{}, fmt.Errorf("memdriver: cannot parse SELECT: %s", stmt)
	}
	projRaw, tableName, rest := m[1], m[2], m[3]

	var pred predicate = alwaysTrue{}
	if wm := wherePattern.FindStringSubmatch(rest); wm != nil {
		p, err := parseWhere(strings.TrimSpace(wm[1]))
		if err != nil {
			return pawql.Result{}, err
		}
		pred = p
	}

	t := d.table(tableName)
	var matched []map[string]interface{}
	for _, row := range t.rows {
		ok, err := pred.eval(row, params)
		if err != nil {
			return pawql.Result{}, err
		}
		if ok {
			matched = append(matched, row)
		}
	}

	if om := orderByPattern.FindStringSubmatch(rest); om != nil {
		col := unquoteIdent(om[1])
		desc := strings.EqualFold(om[2], "DESC")
		matched = sortedRowsBy(matched, col, desc)
	}

	if om := offsetPattern.FindStringSubmatch(rest); om != nil {
		n, _ := strconv.Atoi(om[1])
		if n < len(matched) {
			matched = matched[n:]
		} else {
			matched = nil
		}
	}
	if lm := limitPattern.FindStringSubmatch(rest); lm != nil {
		n, _ := strconv.Atoi(lm[1])
		if n < len(matched) {
			matched = matched[:n]
		}
	}

	if strings.Contains(strings.ToUpper(projRaw), "COUNT(*)") {
		return pawql.Result{Rows: []map[string]interface{}{{"count": int64(len(matched))}}, RowCount: 1}, nil
	}

	maxAgg := regexp.MustCompile(`(?i)^COALESCE\(MAX\((\w+)\),\s*(\d+)\)(?:\s*\+\s*(\d+))?\s+AS\s+(\w+)$`)
	if am := maxAgg.FindStringSubmatch(strings.TrimSpace(projRaw)); am != nil {
		best, found := 0.0, false
		for _, row := range matched {
			if f, ok := toFloat(row[am[1]]); ok && (!found || f > best) {
				best, found = f, true
			}
		}
		if !found {
			best, _ = strconv.ParseFloat(am[2], 64)
		}
		inc, _ := strconv.Atoi(am[3])
		return pawql.Result{Rows: []map[string]interface{}{{am[4]: int64(best) + int64(inc)}}, RowCount: 1}, nil
	}

	cols := projectionColumns(projRaw)
	out := make([]map[string]interface{}, len(matched))
	for i, row := range matched {
		out[i] = projectRow(row, cols)
	}
	return pawql.Result{Rows: out, RowCount: len(out)}, nil
}

func projectionColumns(projRaw string) []string {
	projRaw = strings.TrimSpace(projRaw)
	if projRaw == "*" {
		return []string{"*"}
	}
	var cols []string
	for _, c := range splitTopLevel(projRaw, ',', '(', ')') {
		cols = append(cols, unquoteIdent(c))
	}
	return cols
}

func sortedRowsBy(rows []map[string]interface{}, col string, desc bool) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rows))
	copy(out, rows)
	sortStable(out, col, desc)
	return out
}
