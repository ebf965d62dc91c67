package memdriver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// predicate evaluates a row against the WHERE clause memdriver parsed.
type predicate interface {
	eval(row map[string]interface{}, params []interface{}) (bool, error)
}

type alwaysTrue struct{}

func (alwaysTrue) eval(map[string]interface{}, []interface{}) (bool, error) { return true, nil }

// orGroup is a disjunction of andGroups — the renderer never emits
// parentheses, so this directly mirrors SQL's AND-before-OR precedence.
type orGroup struct {
	clauses []andGroup
}

type andGroup struct {
	atoms []atom
}

type atom struct {
	raw string
}

func (o orGroup) eval(row map[string]interface{}, params []interface{}) (bool, error) {
	for _, clause := range o.clauses {
		ok, err := clause.eval(row, params)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a andGroup) eval(row map[string]interface{}, params []interface{}) (bool, error) {
	for _, at := range a.atoms {
		ok, err := at.eval(row, params)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// parseWhere splits clause (the text after WHERE) on top-level " OR "
// then " AND ", matching the flat, unparenthesized sequence the renderer
// produces.
func parseWhere(clause string) (predicate, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return alwaysTrue{}, nil
	}
	var groups []andGroup
	for _, orPart := range splitKeyword(clause, "OR") {
		var atoms []atom
		for _, andPart := range splitKeyword(orPart, "AND") {
			atoms = append(atoms, atom{raw: strings.TrimSpace(andPart)})
		}
		groups = append(groups, andGroup{atoms: atoms})
	}
	return orGroup{clauses: groups}, nil
}

// splitKeyword splits s on top-level occurrences of " KEYWORD ",
// respecting parenthesis depth so IN (...)/BETWEEN lists are never split.
func splitKeyword(s, keyword string) []string {
	pattern := regexp.MustCompile(`(?i)\s` + keyword + `\s`)
	var out []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			loc := pattern.FindStringIndex(s[i:])
			if loc != nil && loc[0] == 0 {
				out = append(out, s[last:i])
				skip := loc[1] - loc[0]
				i += skip - 1
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

var (
	cmpPattern       = regexp.MustCompile(`(?i)^(.+?)\s*(!=|>=|<=|=|>|<|LIKE|ILIKE)\s*(\$\d+)$`)
	isNullPattern    = regexp.MustCompile(`(?i)^(.+?)\s+IS NULL$`)
	isNotNullPattern = regexp.MustCompile(`(?i)^(.+?)\s+IS NOT NULL$`)
	notInPattern     = regexp.MustCompile(`(?is)^(.+?)\s+NOT IN\s*\((.+)\)$`)
	inPattern        = regexp.MustCompile(`(?is)^(.+?)\s+IN\s*\((.+)\)$`)
	betweenPattern   = regexp.MustCompile(`(?i)^(.+?)\s+BETWEEN\s+(\$\d+)\s+AND\s+(\$\d+)$`)
)

func (a atom) eval(row map[string]interface{}, params []interface{}) (bool, error) {
	s := a.raw
	if s == "FALSE" {
		return false, nil
	}
	if s == "TRUE" {
		return true, nil
	}
	if m := betweenPattern.FindStringSubmatch(s); m != nil {
		col := unquoteIdent(m[1])
		lo, err := paramAt(params, m[2])
		if err != nil {
			return false, err
		}
		hi, err := paramAt(params, m[3])
		if err != nil {
			return false, err
		}
		return compareValues(row[col], lo) >= 0 && compareValues(row[col], hi) <= 0, nil
	}
	if m := notInPattern.FindStringSubmatch(s); m != nil {
		return evalIn(row, params, m[1], m[2], true)
	}
	if m := inPattern.FindStringSubmatch(s); m != nil {
		return evalIn(row, params, m[1], m[2], false)
	}
	if m := isNotNullPattern.FindStringSubmatch(s); m != nil {
		col := unquoteIdent(m[1])
		return row[col] != nil, nil
	}
	if m := isNullPattern.FindStringSubmatch(s); m != nil {
		col := unquoteIdent(m[1])
		return row[col] == nil, nil
	}
	if m := cmpPattern.FindStringSubmatch(s); m != nil {
		col := unquoteIdent(m[1])
		val, err := paramAt(params, m[3])
		if err != nil {
			return false, err
		}
		return evalCmp(row[col], m[2], val)
	}
	return false, fmt.Errorf("memdriver: cannot parse predicate: %q", s)
}

func evalIn(row map[string]interface{}, params []interface{}, colRaw, listRaw string, negate bool) (bool, error) {
	col := unquoteIdent(colRaw)
	var found bool
	for _, tok := range splitTopLevel(listRaw, ',', '(', ')') {
		v, err := paramAt(params, strings.TrimSpace(tok))
		if err != nil {
			return false, err
		}
		if compareValues(row[col], v) == 0 {
			found = true
			break
		}
	}
	if negate {
		return !found, nil
	}
	return found, nil
}

func evalCmp(rowVal interface{}, op string, rhs interface{}) (bool, error) {
	switch strings.ToUpper(op) {
	case "=":
		return compareValues(rowVal, rhs) == 0, nil
	case "!=":
		return compareValues(rowVal, rhs) != 0, nil
	case ">":
		return compareValues(rowVal, rhs) > 0, nil
	case ">=":
		return compareValues(rowVal, rhs) >= 0, nil
	case "<":
		return compareValues(rowVal, rhs) < 0, nil
	case "<=":
		return compareValues(rowVal, rhs) <= 0, nil
	case "LIKE":
		return matchLike(fmt.Sprint(rowVal), fmt.Sprint(rhs), false), nil
	case "ILIKE":
		return matchLike(fmt.Sprint(rowVal), fmt.Sprint(rhs), true), nil
	default:
		return false, fmt.Errorf("memdriver: unsupported operator %q", op)
	}
}

func matchLike(value, pattern string, fold bool) bool {
	if fold {
		value = strings.ToLower(value)
		pattern = strings.ToLower(pattern)
	}
	regexSrc := "^" + regexp.QuoteMeta(pattern) + "$"
	regexSrc = strings.ReplaceAll(regexSrc, `%`, `.*`)
	regexSrc = strings.ReplaceAll(regexSrc, `_`, `.`)
	re, err := regexp.Compile(regexSrc)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// compareValues orders two scalar values. Numbers compare numerically;
// everything else falls back to string comparison.
func compareValues(a, b interface{}) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	return strings.Compare(as, bs)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func sortStable(rows []map[string]interface{}, col string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][col], rows[j][col])
		if desc {
			return c > 0
		}
		return c < 0
	})
}
