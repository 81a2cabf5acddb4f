package gamestore

import (
	"reflect"
	"strings"
	"time"
)

// Evaluate reports whether a record matches every condition in the filter.
// An empty filter matches everything. Unknown operators surface as
// UnsupportedOperatorError so callers can distinguish them from a plain
// non-match.
func Evaluate(rec *Record, f Filter) (bool, error) {
	for _, c := range f.Conds {
		ok, err := matchCondition(rec, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchCondition(rec *Record, c Condition) (bool, error) {
	actual := rec.Field(c.Field)
	switch c.Op {
	case OpEq:
		if c.Value == nil {
			return isNullValue(actual), nil
		}
		return looseEqual(actual, c.Value), nil
	case OpNeq:
		if c.Value == nil {
			return !isNullValue(actual), nil
		}
		return !looseEqual(actual, c.Value), nil
	case OpLt, OpLte, OpGt, OpGte:
		if isNullValue(actual) || c.Value == nil {
			return false, nil
		}
		cmp, ok := compare(actual, c.Value)
		if !ok {
			return false, nil
		}
		switch c.Op {
		case OpLt:
			return cmp < 0, nil
		case OpLte:
			return cmp <= 0, nil
		case OpGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case OpIn:
		set, ok := toSlice(c.Value)
		if !ok {
			return false, nil
		}
		return containsValue(set, actual), nil
	case OpNotIn:
		set, ok := toSlice(c.Value)
		if !ok {
			return true, nil
		}
		return !containsValue(set, actual), nil
	case OpContains, OpIContains:
		return matchContains(actual, c.Value, c.Op == OpIContains), nil
	case OpStartsWith, OpIStartsWith:
		return matchAffix(actual, c.Value, strings.HasPrefix, c.Op == OpIStartsWith), nil
	case OpEndsWith, OpIEndsWith:
		return matchAffix(actual, c.Value, strings.HasSuffix, c.Op == OpIEndsWith), nil
	case OpIsNull:
		want := true
		if b, ok := c.Value.(bool); ok {
			want = b
		}
		return isNullValue(actual) == want, nil
	default:
		return false, NewUnsupportedOperatorError(c.Op)
	}
}

// isNullValue treats a missing field and a present-but-nil field the same
// way; both satisfy the null test.
func isNullValue(v any) bool {
	if v == nil {
		return true
	}
	if p, ok := v.(*time.Time); ok {
		return p == nil
	}
	return false
}

func matchContains(actual, expected any, fold bool) bool {
	if items, ok := toSlice(actual); ok {
		return containsValue(items, expected)
	}
	s, ok := asString(actual)
	if !ok {
		return false
	}
	sub, ok := asString(expected)
	if !ok {
		return false
	}
	if fold {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	return strings.Contains(s, sub)
}

func matchAffix(actual, expected any, match func(s, affix string) bool, fold bool) bool {
	s, ok := asString(actual)
	if !ok {
		return false
	}
	affix, ok := asString(expected)
	if !ok {
		return false
	}
	if fold {
		return match(strings.ToLower(s), strings.ToLower(affix))
	}
	return match(s, affix)
}

func containsValue(set []any, v any) bool {
	for _, item := range set {
		if looseEqual(item, v) {
			return true
		}
	}
	return false
}

// looseEqual compares values the way filters expect: enums equal their
// members, names and underlying values; numbers compare across integer and
// float representations; times compare by instant.
func looseEqual(a, b any) bool {
	if enumNameMatch(a, b) || enumNameMatch(b, a) {
		return true
	}
	a, b = unwrapEnum(a), unwrapEnum(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Equal(bt)
		}
		return false
	}
	if af, ok := toFloat64(a); ok {
		if bf, ok := toFloat64(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// enumNameMatch reports whether v is an enum member whose symbolic name is
// the string s. The schema codec resolves names the same way, so filters by
// name select the same rows on every backend.
func enumNameMatch(v, s any) bool {
	m, ok := v.(Enum)
	if !ok {
		return false
	}
	name, ok := s.(string)
	return ok && name == m.Name
}

// unwrapEnum reduces an enum member to its underlying value so filters can
// use the member, its name or its value interchangeably.
func unwrapEnum(v any) any {
	if m, ok := v.(Enum); ok {
		return m.Value
	}
	return v
}

// compare orders two values, returning -1, 0 or 1. The second result is
// false when the values have no defined ordering.
func compare(a, b any) (int, bool) {
	a, b = unwrapEnum(a), unwrapEnum(b)
	if at, ok := asTime(a); ok {
		bt, ok := asTime(b)
		if !ok {
			if s, isStr := b.(string); isStr {
				t, err := parseTime(s)
				if err != nil {
					return 0, false
				}
				bt = t
			} else {
				return 0, false
			}
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	}
	if af, ok := toFloat64(a); ok {
		bf, ok := toFloat64(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	v = unwrapEnum(v)
	s, ok := v.(string)
	return s, ok
}
