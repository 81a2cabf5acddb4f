package gamestore

import (
	"strings"
)

// Op identifies a comparison operation in filters. The set is closed: a
// filter naming any other token fails with ErrUnsupportedOperator the first
// time it is evaluated or compiled, never silently.
type Op string

const (
	OpEq          Op = "eq"
	OpNeq         Op = "neq"
	OpLt          Op = "lt"
	OpLte         Op = "lte"
	OpGt          Op = "gt"
	OpGte         Op = "gte"
	OpIn          Op = "in"
	OpNotIn       Op = "notin"
	OpContains    Op = "contains"    // substring on strings, membership on lists
	OpIContains   Op = "icontains"   // case-insensitive substring
	OpStartsWith  Op = "startswith"  // string prefix
	OpIStartsWith Op = "istartswith" // case-insensitive prefix
	OpEndsWith    Op = "endswith"    // string suffix
	OpIEndsWith   Op = "iendswith"   // case-insensitive suffix
	OpIsNull      Op = "isnull"      // value true: absent-or-nil; false: present-and-non-nil
)

// Condition is a single predicate: field op value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a backend-neutral AND-combination of conditions. The zero value
// (and any empty filter) matches every record.
type Filter struct {
	Conds []Condition
}

// Where builds a filter from explicit conditions.
func Where(conds ...Condition) Filter {
	return Filter{Conds: conds}
}

// FromMap builds a filter from a flat mapping whose keys carry an optional
// operator suffix, e.g. {"score__gt": 20, "name__icontains": "alp"}. A key
// without a suffix means equality. Unknown operator suffixes are kept as-is
// and rejected at evaluation/compile time.
func FromMap(m map[string]any) Filter {
	conds := make([]Condition, 0, len(m))
	for key, value := range m {
		field, op := key, OpEq
		if i := strings.Index(key, "__"); i >= 0 {
			field = key[:i]
			op = Op(key[i+2:])
		}
		conds = append(conds, Condition{Field: field, Op: op, Value: value})
	}
	return Filter{Conds: conds}
}

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool { return len(f.Conds) == 0 }

// Helper constructors for conditions.

func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

func Neq(field string, value any) Condition {
	return Condition{Field: field, Op: OpNeq, Value: value}
}

func Lt(field string, value any) Condition {
	return Condition{Field: field, Op: OpLt, Value: value}
}

func Lte(field string, value any) Condition {
	return Condition{Field: field, Op: OpLte, Value: value}
}

func Gt(field string, value any) Condition {
	return Condition{Field: field, Op: OpGt, Value: value}
}

func Gte(field string, value any) Condition {
	return Condition{Field: field, Op: OpGte, Value: value}
}

func In(field string, values ...any) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

func NotIn(field string, values ...any) Condition {
	return Condition{Field: field, Op: OpNotIn, Value: values}
}

func Contains(field string, value any) Condition {
	return Condition{Field: field, Op: OpContains, Value: value}
}

func IContains(field string, value string) Condition {
	return Condition{Field: field, Op: OpIContains, Value: value}
}

func StartsWith(field string, value string) Condition {
	return Condition{Field: field, Op: OpStartsWith, Value: value}
}

func IStartsWith(field string, value string) Condition {
	return Condition{Field: field, Op: OpIStartsWith, Value: value}
}

func EndsWith(field string, value string) Condition {
	return Condition{Field: field, Op: OpEndsWith, Value: value}
}

func IEndsWith(field string, value string) Condition {
	return Condition{Field: field, Op: OpIEndsWith, Value: value}
}

func IsNull(field string) Condition {
	return Condition{Field: field, Op: OpIsNull, Value: true}
}

func NotNull(field string) Condition {
	return Condition{Field: field, Op: OpIsNull, Value: false}
}
