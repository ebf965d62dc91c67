package pawql

// Filter is the user-facing shape accepted by Where/OrWhere: an ordered
// sequence of column/value entries. It is a slice rather than a Go map
// because the specification's filter order is load-bearing (WHERE
// predicates render left to right in the order the caller wrote them) and
// Go map iteration order is explicitly unspecified — a JS-style object
// literal's insertion order has no direct Go equivalent, so the ordered
// slice is the idiomatic substitute.
//
// A bare value (not one of the filterOp shapes below) desugars to
// equality, or IS NULL if the value is nil.
type Filter []FilterPair

// FilterPair is one column/value entry in a Filter.
type FilterPair struct {
	Column string
	Value  interface{}
}

// F builds a Filter from alternating column/value pairs: F("id", 1,
// "age", Gt(18)).
func F(pairs ...interface{}) Filter {
	if len(pairs)%2 != 0 {
		panic("pawql: F() requires an even number of arguments (column, value, ...)")
	}
	f := make(Filter, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		f = append(f, FilterPair{Column: pairs[i].(string), Value: pairs[i+1]})
	}
	return f
}

// Row is an ordered column/value sequence for a single INSERT row. Like
// Filter, it is a slice rather than a map because INSERT column order
// determines parameter numbering (§4.2) and Go maps carry no iteration
// order.
type Row []RowField

// RowField is one column/value entry in a Row.
type RowField struct {
	Column string
	Value  interface{}
}

// R builds a Row from alternating column/value pairs: R("id", 1, "name", "A").
func R(pairs ...interface{}) Row {
	if len(pairs)%2 != 0 {
		panic("pawql: R() requires an even number of arguments (column, value, ...)")
	}
	r := make(Row, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		r = append(r, RowField{Column: pairs[i].(string), Value: pairs[i+1]})
	}
	return r
}

// filterOp is the map shape produced by Gt/Lt/Gte/Lte/Not/InList/NotInList/
// LikeOp/ILikeOp/BetweenOp/SubqueryFilter below: {opName: operand}.
// Multiple keys in one filterOp expand into multiple AND predicates in the
// stable order defined by filterOpOrder.
type filterOp map[string]interface{}

const (
	keyGt       = "gt"
	keyLt       = "lt"
	keyGte      = "gte"
	keyLte      = "lte"
	keyNot      = "not"
	keyIn       = "in"
	keyNotIn    = "notIn"
	keyLike     = "like"
	keyIlike    = "ilike"
	keyBetween  = "between"
	keySubquery = "subquery"
)

// filterOpOrder fixes the stable expansion order when a single filterOp
// carries more than one key (e.g. {gt: 1, lte: 10}).
var filterOpOrder = []string{keyGt, keyGte, keyLt, keyLte, keyNot, keyIn, keyNotIn, keyLike, keyIlike, keyBetween, keySubquery}

// Gt, Lt, Gte, Lte, Not build a single-key filterOp for use as a Filter value.
func Gt(v interface{}) filterOp  { return filterOp{keyGt: v} }
func Lt(v interface{}) filterOp  { return filterOp{keyLt: v} }
func Gte(v interface{}) filterOp { return filterOp{keyGte: v} }
func Lte(v interface{}) filterOp { return filterOp{keyLte: v} }
func Not(v interface{}) filterOp { return filterOp{keyNot: v} }

// InList, NotInList, LikeOp, ILikeOp, BetweenOp, SubqueryFilter build the
// remaining filterOp shapes.
func InList(values ...interface{}) filterOp    { return filterOp{keyIn: values} }
func NotInList(values ...interface{}) filterOp { return filterOp{keyNotIn: values} }
func LikeOp(pattern string) filterOp           { return filterOp{keyLike: pattern} }
func ILikeOp(pattern string) filterOp          { return filterOp{keyIlike: pattern} }
func BetweenOp(low, high interface{}) filterOp { return filterOp{keyBetween: []interface{}{low, high}} }
func SubqueryFilter(b *Builder) filterOp       { return filterOp{keySubquery: b} }

type filterExpansion struct {
	Column string
	Op     Operator
}

// desugarFilter expands a Filter into an ordered slice of (column,
// Operator) pairs, preserving column order and, within one filterOp
// object, the stable key order in filterOpOrder.
func desugarFilter(f Filter) []filterExpansion {
	var out []filterExpansion
	for _, pair := range f {
		for _, op := range desugarValue(pair.Value) {
			out = append(out, filterExpansion{Column: pair.Column, Op: op})
		}
	}
	return out
}

func desugarValue(v interface{}) []Operator {
	if v == nil {
		return []Operator{IsNull()}
	}
	if fo, ok := v.(filterOp); ok {
		var ops []Operator
		for _, key := range filterOpOrder {
			operand, present := fo[key]
			if !present {
				continue
			}
			ops = append(ops, operatorFromKey(key, operand))
		}
		return ops
	}
	return []Operator{Equal(v)}
}

func operatorFromKey(key string, operand interface{}) Operator {
	switch key {
	case keyGt:
		return Greater(operand)
	case keyGte:
		return GreaterEq(operand)
	case keyLt:
		return Less(operand)
	case keyLte:
		return LessEq(operand)
	case keyNot:
		return NotEqual(operand)
	case keyIn:
		return In(operand.([]interface{})...)
	case keyNotIn:
		return NotIn(operand.([]interface{})...)
	case keyLike:
		return Like(operand.(string))
	case keyIlike:
		return ILike(operand.(string))
	case keyBetween:
		pair := operand.([]interface{})
		return Between(pair[0], pair[1])
	case keySubquery:
		return SubqueryOp(operand.(*Builder))
	default:
		return Equal(operand)
	}
}
