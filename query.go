package basic

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// Direction orders query results ascending or descending.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type condOp int

const (
	opEq condOp = iota
	opNeq
	opGt
	opGte
	opLt
	opLte
	opLike
	opILike
	opIn
	opNot
)

// Condition is one filter condition applied to a single field. Conditions
// are built with the constructor functions below; a bare value passed to
// Query.Filter is treated as Eq.
type Condition struct {
	op      condOp
	value   any
	values  []any
	pattern string
	inner   *Condition
}

// Eq matches values equal to v.
func Eq(v any) Condition { return Condition{op: opEq, value: v} }

// Neq matches values not equal to v.
func Neq(v any) Condition { return Condition{op: opNeq, value: v} }

// Gt matches numeric values greater than v.
func Gt(v any) Condition { return Condition{op: opGt, value: v} }

// Gte matches numeric values greater than or equal to v.
func Gte(v any) Condition { return Condition{op: opGte, value: v} }

// Lt matches numeric values less than v.
func Lt(v any) Condition { return Condition{op: opLt, value: v} }

// Lte matches numeric values less than or equal to v.
func Lte(v any) Condition { return Condition{op: opLte, value: v} }

// Like matches strings against a case-sensitive pattern where % matches any
// run of characters (SQL LIKE semantics).
func Like(pattern string) Condition { return Condition{op: opLike, pattern: pattern} }

// ILike is Like, case-insensitive.
func ILike(pattern string) Condition { return Condition{op: opILike, pattern: pattern} }

// In matches values contained in the given set. For array-valued fields it
// matches when the field's values intersect the set.
func In(values ...any) Condition { return Condition{op: opIn, values: values} }

// Not negates any other condition.
func Not(c Condition) Condition { return Condition{op: opNot, inner: &c} }

// Query narrows, orders and paginates a collection's record set on the
// client, after the full set has been fetched. Chaining order among Filter,
// Order, Limit and Offset does not affect the result: the pipeline is always
// filter, then order, then offset, then limit.
//
// At most one field may carry a filter condition; multi-field filters and
// compound range conditions on one field are unsupported and rejected,
// never silently ignored.
type Query struct {
	collection *Collection
	err        error

	filterField string
	filter      Condition
	hasFilter   bool

	orderField string
	orderDir   Direction
	hasOrder   bool

	limit     int
	offset    int
	hasLimit  bool
	hasOffset bool
}

// Filter restricts the result to records whose field matches the condition.
// cond may be a Condition or a bare value, which means equality. Calling
// Filter a second time is rejected, including for the same field: express a
// range differently or fetch and narrow in application code.
func (q *Query) Filter(field string, cond any) *Query {
	if q.err != nil {
		return q
	}
	if q.hasFilter {
		q.err = validationErrorf("only one field may carry a filter condition per query")
		return q
	}
	if !q.collection.table.HasField(field) {
		q.err = validationErrorf("unknown field %q in table %q", field, q.collection.name)
		return q
	}
	condition, ok := cond.(Condition)
	if !ok {
		condition = Eq(cond)
	}
	q.filterField = field
	q.filter = condition
	q.hasFilter = true
	return q
}

// Order sorts the result by the field's natural value ordering. Direction
// defaults to ascending.
func (q *Query) Order(field string, dir ...Direction) *Query {
	if q.err != nil {
		return q
	}
	if !q.collection.table.HasField(field) {
		q.err = validationErrorf("unknown field %q in table %q", field, q.collection.name)
		return q
	}
	direction := Ascending
	if len(dir) > 0 {
		switch dir[0] {
		case Ascending, Descending:
			direction = dir[0]
		default:
			q.err = validationErrorf("unknown sort direction %q", dir[0])
			return q
		}
	}
	q.orderField = field
	q.orderDir = direction
	q.hasOrder = true
	return q
}

// Limit caps the number of returned records.
func (q *Query) Limit(n int) *Query {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = validationErrorf("limit must not be negative")
		return q
	}
	q.limit = n
	q.hasLimit = true
	return q
}

// Offset skips the first n records of the filtered, ordered set.
func (q *Query) Offset(n int) *Query {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = validationErrorf("offset must not be negative")
		return q
	}
	q.offset = n
	q.hasOffset = true
	return q
}

// All fetches the collection's full record set and applies the chain.
func (q *Query) All(ctx context.Context) ([]Record, error) {
	if q.err != nil {
		return nil, q.err
	}
	records, err := q.collection.List(ctx)
	if err != nil {
		return nil, err
	}
	return q.apply(records), nil
}

// apply runs the filter/order/offset/limit pipeline over an already fetched
// set, preserving input order except where Order dictates otherwise.
func (q *Query) apply(records []Record) []Record {
	out := records
	if q.hasFilter {
		out = make([]Record, 0, len(records))
		for _, rec := range records {
			if q.filter.matches(rec[q.filterField]) {
				out = append(out, rec)
			}
		}
	} else {
		out = append([]Record(nil), records...)
	}

	if q.hasOrder {
		field := q.orderField
		desc := q.orderDir == Descending
		sort.SliceStable(out, func(i, j int) bool {
			cmp := compareValues(out[i][field], out[j][field])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.hasOffset {
		if q.offset >= len(out) {
			out = nil
		} else {
			out = out[q.offset:]
		}
	}
	if q.hasLimit && q.limit < len(out) {
		out = out[:q.limit]
	}
	return out
}

// matches evaluates the condition against one field value. Values that are
// not comparable under the condition's operator simply do not match.
func (c Condition) matches(value any) bool {
	switch c.op {
	case opEq:
		return equalValues(value, c.value)
	case opNeq:
		return !equalValues(value, c.value)
	case opGt, opGte, opLt, opLte:
		left, okL := toNumber(value)
		right, okR := toNumber(c.value)
		if !okL || !okR {
			return false
		}
		switch c.op {
		case opGt:
			return left > right
		case opGte:
			return left >= right
		case opLt:
			return left < right
		default:
			return left <= right
		}
	case opLike, opILike:
		s, ok := value.(string)
		if !ok {
			return false
		}
		pattern := c.pattern
		if c.op == opILike {
			s = strings.ToLower(s)
			pattern = strings.ToLower(pattern)
		}
		return matchLike(s, pattern)
	case opIn:
		if set, ok := value.([]any); ok {
			for _, member := range set {
				for _, want := range c.values {
					if equalValues(member, want) {
						return true
					}
				}
			}
			return false
		}
		for _, want := range c.values {
			if equalValues(value, want) {
				return true
			}
		}
		return false
	case opNot:
		return !c.inner.matches(value)
	default:
		return false
	}
}

// matchLike matches s against a SQL LIKE pattern where % matches any run of
// characters.
func matchLike(s, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return strings.HasSuffix(s, parts[len(parts)-1])
}

// equalValues compares two values with numeric awareness, so an int filter
// argument equals the float64 a JSON number decodes to.
func equalValues(a, b any) bool {
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// toNumber coerces the numeric shapes a value can arrive in.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// compareValues orders two field values by their natural type ordering.
// Mixed or unordered types compare by their string rendering.
func compareValues(a, b any) int {
	if na, okA := toNumber(a); okA {
		if nb, okB := toNumber(b); okB {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}
	if sa, okA := a.(string); okA {
		if sb, okB := b.(string); okB {
			return strings.Compare(sa, sb)
		}
	}
	if ba, okA := a.(bool); okA {
		if bb, okB := b.(bool); okB {
			switch {
			case !ba && bb:
				return -1
			case ba && !bb:
				return 1
			default:
				return 0
			}
		}
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return strings.Compare(string(ja), string(jb))
}
