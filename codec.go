package gamestore

import (
	"fmt"
	"time"
)

// TimeLayout is the stored text form of time values. Fractional seconds
// keep a fixed width and the zone is normalized to UTC, so lexicographic
// order over stored strings equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Codec converts between in-memory field values and their stored document
// form, driven by the schema's column types. EnumAsName selects the stored
// representation of enum members: the symbolic name (human-readable JSON
// files) or the underlying value (document and relational storage).
type Codec struct {
	Schema     *Schema
	EnumAsName bool
}

// EncodeDocument turns a record into a flat stored document including the
// managed columns. A nil DeletedAt encodes as an explicit null.
func (c *Codec) EncodeDocument(rec *Record) (map[string]any, error) {
	doc := make(map[string]any, len(c.Schema.Fields)+4)
	doc["id"] = rec.ID
	doc["created_at"] = rec.CreatedAt.UTC().Format(TimeLayout)
	doc["updated_at"] = rec.UpdatedAt.UTC().Format(TimeLayout)
	if rec.DeletedAt != nil {
		doc["deleted_at"] = rec.DeletedAt.UTC().Format(TimeLayout)
	} else {
		doc["deleted_at"] = nil
	}
	for _, f := range c.Schema.Fields {
		v, ok := rec.Fields[f.Name]
		if !ok {
			v = f.Default
		}
		enc, err := c.EncodeValue(f, v)
		if err != nil {
			return nil, err
		}
		doc[f.Name] = enc
	}
	return doc, nil
}

// DecodeDocument rebuilds a record from its stored document. Keys the schema
// does not declare are ignored, so a descriptor can drop fields without
// invalidating existing documents.
func (c *Codec) DecodeDocument(doc map[string]any) (*Record, error) {
	rec := NewRecord(nil)
	if raw, ok := doc["id"]; ok && raw != nil {
		id, err := toInt64(raw)
		if err != nil {
			return nil, NewSerializationError("id", raw, "not an integer id")
		}
		rec.ID = id
	}
	if t, err := c.decodeTimeColumn(doc, "created_at"); err != nil {
		return nil, err
	} else if t != nil {
		rec.CreatedAt = *t
	}
	if t, err := c.decodeTimeColumn(doc, "updated_at"); err != nil {
		return nil, err
	} else if t != nil {
		rec.UpdatedAt = *t
	}
	if t, err := c.decodeTimeColumn(doc, "deleted_at"); err != nil {
		return nil, err
	} else {
		rec.DeletedAt = t
	}
	for _, f := range c.Schema.Fields {
		raw, ok := doc[f.Name]
		if !ok {
			rec.Fields[f.Name] = f.Default
			continue
		}
		v, err := c.DecodeValue(f, raw)
		if err != nil {
			return nil, err
		}
		rec.Fields[f.Name] = v
	}
	return rec, nil
}

// EncodeValue converts one field value to its stored form.
func (c *Codec) EncodeValue(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch ct := f.Type.(type) {
	case TimeColumn:
		t, ok := asTime(v)
		if !ok {
			return nil, NewSerializationError(f.Name, v, "expected a time value")
		}
		return t.UTC().Format(TimeLayout), nil
	case EnumColumn:
		m, ok := v.(Enum)
		if !ok {
			// Accept a raw name or value and resolve it against the type.
			if ct.Enum != nil {
				if name, isStr := v.(string); isStr {
					if rm, found := ct.Enum.Member(name); found {
						m, ok = rm, true
					}
				}
				if !ok {
					if rm, found := ct.Enum.MemberByValue(v); found {
						m, ok = rm, true
					}
				}
			}
			if !ok {
				return nil, NewSerializationError(f.Name, v, "not a member of "+enumTypeName(ct.Enum))
			}
		}
		if c.EnumAsName {
			return m.Name, nil
		}
		return m.Value, nil
	case ListColumn:
		items, ok := toSlice(v)
		if !ok {
			return nil, NewSerializationError(f.Name, v, "expected a list value")
		}
		elem := Field{Name: f.Name, Type: ct.Elem}
		if ct.Elem == nil {
			elem.Type = TextColumn{}
		}
		out := make([]any, len(items))
		for i, it := range items {
			enc, err := c.EncodeValue(elem, it)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case IntegerColumn:
		n, err := toInt64(v)
		if err != nil {
			return nil, NewSerializationError(f.Name, v, "expected an integer value")
		}
		return n, nil
	case RealColumn:
		fl, ok := toFloat64(v)
		if !ok {
			return nil, NewSerializationError(f.Name, v, "expected a numeric value")
		}
		return fl, nil
	case BoolColumn:
		b, ok := v.(bool)
		if !ok {
			return nil, NewSerializationError(f.Name, v, "expected a boolean value")
		}
		return b, nil
	case TextColumn:
		s, ok := v.(string)
		if !ok {
			return nil, NewSerializationError(f.Name, v, "expected a string value")
		}
		return s, nil
	default:
		return nil, NewSerializationError(f.Name, v, "unknown column type")
	}
}

// DecodeValue converts one stored value back to its in-memory form.
func (c *Codec) DecodeValue(f Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch ct := f.Type.(type) {
	case TimeColumn:
		s, ok := raw.(string)
		if !ok {
			return nil, NewSerializationError(f.Name, raw, "expected an ISO-8601 string")
		}
		t, err := parseTime(s)
		if err != nil {
			return nil, NewSerializationError(f.Name, raw, "not an ISO-8601 timestamp")
		}
		return t, nil
	case EnumColumn:
		if ct.Enum == nil {
			return nil, NewSerializationError(f.Name, raw, "enum field without a declared type")
		}
		if c.EnumAsName {
			name, ok := raw.(string)
			if !ok {
				return nil, NewSerializationError(f.Name, raw, "expected an enum name")
			}
			m, found := ct.Enum.Member(name)
			if !found {
				return nil, NewSerializationError(f.Name, raw, "unknown member of "+enumTypeName(ct.Enum))
			}
			return m, nil
		}
		m, found := ct.Enum.MemberByValue(raw)
		if !found {
			return nil, NewSerializationError(f.Name, raw, "unknown member of "+enumTypeName(ct.Enum))
		}
		return m, nil
	case ListColumn:
		items, ok := toSlice(raw)
		if !ok {
			return nil, NewSerializationError(f.Name, raw, "expected a list value")
		}
		elem := Field{Name: f.Name, Type: ct.Elem}
		if ct.Elem == nil {
			elem.Type = TextColumn{}
		}
		out := make([]any, len(items))
		for i, it := range items {
			dec, err := c.DecodeValue(elem, it)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	case IntegerColumn:
		// JSON decoding yields float64 for all numbers.
		n, err := toInt64(raw)
		if err != nil {
			return nil, NewSerializationError(f.Name, raw, "expected an integer value")
		}
		return n, nil
	case RealColumn:
		fl, ok := toFloat64(raw)
		if !ok {
			return nil, NewSerializationError(f.Name, raw, "expected a numeric value")
		}
		return fl, nil
	case BoolColumn:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case float64:
			return b != 0, nil
		case int64:
			return b != 0, nil
		}
		return nil, NewSerializationError(f.Name, raw, "expected a boolean value")
	case TextColumn:
		s, ok := raw.(string)
		if !ok {
			return nil, NewSerializationError(f.Name, raw, "expected a string value")
		}
		return s, nil
	default:
		return nil, NewSerializationError(f.Name, raw, "unknown column type")
	}
}

func (c *Codec) decodeTimeColumn(doc map[string]any, col string) (*time.Time, error) {
	raw, ok := doc[col]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, NewSerializationError(col, raw, "expected an ISO-8601 string")
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, NewSerializationError(col, raw, "not an ISO-8601 timestamp")
	}
	return &t, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.999999999", s)
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not integral", n)
		}
		return int64(n), nil
	case float32:
		return toInt64(float64(n))
	}
	return 0, fmt.Errorf("%T is not an integer", v)
}

func toFloat64(v any) (float64, bool) {
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
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
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
	case []Enum:
		out := make([]any, len(s))
		for i, it := range s {
			out[i] = it
		}
		return out, true
	}
	return nil, false
}

func enumTypeName(t *EnumType) string {
	if t == nil {
		return "unknown enum"
	}
	return t.Name
}
