// Package docstore provides a repository backed by an embedded document
// database (CloverDB). Filters compile to native criteria where the engine
// can express them; anything it cannot express falls back to a full scan
// through the shared evaluator, so results never differ from the in-memory
// backend.
package docstore

import (
	"regexp"
	"time"

	"github.com/ostafen/clover/v2/query"

	"gamestore"
)

// Compile translates a filter into a conjunction of native criteria. The
// returned criteria is nil for an empty filter. Operators or values the
// engine cannot express surface as UnsupportedOperatorError or
// SerializationError; the repository treats those as a signal to fall back
// to scanning, not as request failures.
func Compile(schema *gamestore.Schema, codec *gamestore.Codec, f gamestore.Filter) (query.Criteria, error) {
	var all query.Criteria
	for _, c := range f.Conds {
		crit, err := compileCondition(schema, codec, c)
		if err != nil {
			return nil, err
		}
		if all == nil {
			all = crit
		} else {
			all = all.And(crit)
		}
	}
	return all, nil
}

func compileCondition(schema *gamestore.Schema, codec *gamestore.Codec, c gamestore.Condition) (query.Criteria, error) {
	field := query.Field(c.Field)
	switch c.Op {
	case gamestore.OpEq:
		if c.Value == nil {
			return field.IsNilOrNotExists(), nil
		}
		v, err := encodeOperand(schema, codec, c)
		if err != nil {
			return nil, err
		}
		return field.Eq(v), nil
	case gamestore.OpNeq:
		if c.Value == nil {
			return field.IsNilOrNotExists().Not(), nil
		}
		v, err := encodeOperand(schema, codec, c)
		if err != nil {
			return nil, err
		}
		// An absent or nil field is "not equal" under evaluator rules.
		return field.Neq(v).Or(field.IsNilOrNotExists()), nil
	case gamestore.OpLt, gamestore.OpLte, gamestore.OpGt, gamestore.OpGte:
		v, err := encodeOperand(schema, codec, c)
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case gamestore.OpLt:
			return field.Lt(v), nil
		case gamestore.OpLte:
			return field.LtEq(v), nil
		case gamestore.OpGt:
			return field.Gt(v), nil
		default:
			return field.GtEq(v), nil
		}
	case gamestore.OpIn, gamestore.OpNotIn:
		items, err := encodeOperandList(schema, codec, c)
		if err != nil {
			return nil, err
		}
		if c.Op == gamestore.OpIn {
			if len(items) == 0 {
				// Nothing matches an empty membership set.
				return query.Field("id").Lt(int64(0)), nil
			}
			return field.In(items...), nil
		}
		if len(items) == 0 {
			return query.Field("id").GtEq(int64(0)), nil
		}
		return field.In(items...).Not(), nil
	case gamestore.OpContains:
		if isListField(schema, c.Field) {
			v, err := encodeOperand(schema, codec, c)
			if err != nil {
				return nil, err
			}
			return field.Contains(v), nil
		}
		return likeCriteria(c, "", "")
	case gamestore.OpIContains:
		if isListField(schema, c.Field) {
			// Case folding over list membership has no native form.
			return nil, gamestore.NewUnsupportedOperatorError(c.Op)
		}
		return likeCriteria(c, "(?i)", "")
	case gamestore.OpStartsWith:
		return likeCriteria(c, "^", "")
	case gamestore.OpIStartsWith:
		return likeCriteria(c, "(?i)^", "")
	case gamestore.OpEndsWith:
		return likeCriteria(c, "", "$")
	case gamestore.OpIEndsWith:
		return likeCriteria(c, "(?i)", "$")
	case gamestore.OpIsNull:
		want := true
		if b, ok := c.Value.(bool); ok {
			want = b
		}
		if want {
			return field.IsNilOrNotExists(), nil
		}
		return field.IsNilOrNotExists().Not(), nil
	default:
		return nil, gamestore.NewUnsupportedOperatorError(c.Op)
	}
}

// likeCriteria builds a regex criteria for the string matching operators.
// The operand is quoted so filter values match literally.
func likeCriteria(c gamestore.Condition, prefix, suffix string) (query.Criteria, error) {
	s, ok := c.Value.(string)
	if !ok {
		return nil, gamestore.NewSerializationError(c.Field, c.Value, "string operator needs a string operand")
	}
	return query.Field(c.Field).Like(prefix + regexp.QuoteMeta(s) + suffix), nil
}

func isListField(schema *gamestore.Schema, name string) bool {
	f, ok := schema.Field(name)
	if !ok {
		return false
	}
	_, isList := f.Type.(gamestore.ListColumn)
	return isList
}

// encodeOperand converts a filter operand to its stored form so criteria
// compare against what documents actually hold (enum values, ISO time
// strings). Operands on unmanaged fields pass through untouched.
func encodeOperand(schema *gamestore.Schema, codec *gamestore.Codec, c gamestore.Condition) (any, error) {
	f, ok := schema.Field(c.Field)
	if !ok {
		return passthroughOperand(c)
	}
	if _, isList := f.Type.(gamestore.ListColumn); isList && c.Op == gamestore.OpContains {
		f = gamestore.Field{Name: f.Name, Type: f.Type.(gamestore.ListColumn).Elem}
		if f.Type == nil {
			f.Type = gamestore.TextColumn{}
		}
	}
	return codec.EncodeValue(f, c.Value)
}

func encodeOperandList(schema *gamestore.Schema, codec *gamestore.Codec, c gamestore.Condition) ([]any, error) {
	items, ok := sliceOperand(c.Value)
	if !ok {
		return nil, gamestore.NewSerializationError(c.Field, c.Value, "membership operator needs a list operand")
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		enc, err := encodeOperand(schema, codec, gamestore.Condition{Field: c.Field, Op: gamestore.OpEq, Value: it})
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// passthroughOperand normalizes an operand for an undeclared field or a
// managed column: times become ISO strings, enums their underlying value.
func passthroughOperand(c gamestore.Condition) (any, error) {
	switch v := c.Value.(type) {
	case gamestore.Enum:
		return v.Value, nil
	case time.Time:
		return v.UTC().Format(gamestore.TimeLayout), nil
	default:
		return v, nil
	}
}

func sliceOperand(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, it := range s {
			out[i] = it
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i, it := range s {
			out[i] = it
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, it := range s {
			out[i] = int64(it)
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, it := range s {
			out[i] = it
		}
		return out, true
	case []gamestore.Enum:
		out := make([]any, len(s))
		for i, it := range s {
			out[i] = it
		}
		return out, true
	}
	return nil, false
}
