package sqlstore

import (
	"encoding/json"
	"time"

	"gamestore"
)

// timeLayout is the text form timestamps take in relational storage.
// Fixed-width fractional seconds keep lexicographic comparisons in WHERE
// clauses consistent with chronological order.
const timeLayout = gamestore.TimeLayout

// Codec converts field values between their in-memory form and SQL driver
// values: booleans become 0/1 integers, lists become JSON text, times
// become ISO-8601 text, enums their underlying value.
type Codec struct {
	schema *gamestore.Schema
	doc    *gamestore.Codec
}

// NewCodec creates the SQL value codec for a schema.
func NewCodec(schema *gamestore.Schema) *Codec {
	return &Codec{
		schema: schema,
		doc:    &gamestore.Codec{Schema: schema},
	}
}

// EncodeField converts one declared field value to its driver value.
func (c *Codec) EncodeField(f gamestore.Field, v any) (any, error) {
	enc, err := c.doc.EncodeValue(f, v)
	if err != nil {
		return nil, err
	}
	return toDriverValue(f.Name, enc)
}

// EncodeOperand converts a filter operand on the named column to its driver
// value. Managed columns (id, timestamps) are handled alongside declared
// fields.
func (c *Codec) EncodeOperand(col string, v any) (any, error) {
	if f, ok := c.schema.Field(col); ok {
		return c.EncodeField(f, v)
	}
	switch col {
	case "id":
		n, err := toInt64Operand(v)
		if err != nil {
			return nil, gamestore.NewSerializationError(col, v, "expected an integer id")
		}
		return n, nil
	case "created_at", "updated_at", "deleted_at":
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(timeLayout), nil
		case string:
			return t, nil
		}
		return nil, gamestore.NewSerializationError(col, v, "expected a time value")
	}
	return toDriverValue(col, v)
}

// EncodeOperandList converts a membership operand to driver values.
func (c *Codec) EncodeOperandList(col string, v any) ([]any, error) {
	items, ok := operandSlice(v)
	if !ok {
		return nil, gamestore.NewSerializationError(col, v, "membership operator needs a list operand")
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		enc, err := c.EncodeOperand(col, it)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// DecodeRow rebuilds a record from one scanned row. Values arrive per the
// column order produced by selectColumns: id, created_at, updated_at,
// deleted_at, then the declared fields.
func (c *Codec) DecodeRow(values []any) (*gamestore.Record, error) {
	doc := make(map[string]any, len(values))
	cols := selectColumns(c.schema)
	for i, col := range cols {
		doc[col] = normalizeScanned(values[i])
	}
	for _, f := range c.schema.Fields {
		raw, ok := doc[f.Name]
		if !ok || raw == nil {
			continue
		}
		if _, isList := f.Type.(gamestore.ListColumn); isList {
			s, ok := raw.(string)
			if !ok {
				return nil, gamestore.NewSerializationError(f.Name, raw, "expected JSON text")
			}
			var items []any
			if err := json.Unmarshal([]byte(s), &items); err != nil {
				return nil, gamestore.NewSerializationError(f.Name, raw, "malformed JSON list")
			}
			doc[f.Name] = items
			continue
		}
		if _, isBool := f.Type.(gamestore.BoolColumn); isBool {
			switch b := raw.(type) {
			case int64:
				doc[f.Name] = b != 0
			case bool:
				doc[f.Name] = b
			}
		}
	}
	return c.doc.DecodeDocument(doc)
}

// toDriverValue lowers a document-form value to what database/sql accepts.
func toDriverValue(col string, v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case []any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, gamestore.NewSerializationError(col, v, err.Error())
		}
		return string(data), nil
	case string, int64, float64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	case time.Time:
		return t.UTC().Format(timeLayout), nil
	default:
		return nil, gamestore.NewSerializationError(col, v, "unsupported driver value")
	}
}

// normalizeScanned maps driver scan results to the document-form kinds the
// codec expects.
func normalizeScanned(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return t
	}
}

func toInt64Operand(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	}
	return 0, gamestore.NewSerializationError("id", v, "expected an integer")
}

func operandSlice(v any) ([]any, bool) {
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

// selectColumns lists the columns every SELECT reads, managed columns
// first.
func selectColumns(schema *gamestore.Schema) []string {
	cols := []string{"id", "created_at", "updated_at", "deleted_at"}
	for _, f := range schema.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}
