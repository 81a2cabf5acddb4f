package sqlstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gamestore"
	"gamestore/sql/adapter"
)

// CreateTableSQL synthesizes idempotent DDL for a schema descriptor. The
// table carries the managed columns (auto-assigned id plus the three
// timestamps) followed by the declared fields with their default literals.
func CreateTableSQL(schema *gamestore.Schema, a adapter.Adapter) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %s (\n", schema.Table)
	fmt.Fprintf(&sb, "  id %s,\n", a.AutoIncrementPK())
	sb.WriteString("  created_at TEXT,\n")
	sb.WriteString("  updated_at TEXT,\n")
	sb.WriteString("  deleted_at TEXT")
	for _, f := range schema.Fields {
		colType, err := columnSQLType(schema.Table, f)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, ",\n  %s %s", f.Name, colType)
		if f.Default == nil {
			continue
		}
		lit, ok, err := defaultLiteral(schema.Table, f)
		if err != nil {
			return "", err
		}
		if ok {
			sb.WriteString(" DEFAULT " + lit)
		}
	}
	sb.WriteString("\n)")
	return sb.String(), nil
}

// columnSQLType maps a column type to its SQL type name. Enum columns take
// the type of their member values.
func columnSQLType(table string, f gamestore.Field) (string, error) {
	switch ct := f.Type.(type) {
	case gamestore.TextColumn, gamestore.TimeColumn, gamestore.ListColumn:
		return "TEXT", nil
	case gamestore.IntegerColumn, gamestore.BoolColumn:
		return "INTEGER", nil
	case gamestore.RealColumn:
		return "REAL", nil
	case gamestore.EnumColumn:
		if ct.Enum == nil || len(ct.Enum.Members) == 0 {
			return "", gamestore.NewSchemaError(table, "enum field "+f.Name+" has no members")
		}
		switch ct.Enum.Members[0].Value.(type) {
		case int, int32, int64:
			return "INTEGER", nil
		case string:
			return "TEXT", nil
		default:
			return "", gamestore.NewSchemaError(table, "enum field "+f.Name+" has an unmappable value type")
		}
	default:
		return "", gamestore.NewSchemaError(table, "field "+f.Name+" has an unknown column type")
	}
}

// defaultLiteral renders a field's default value as a DDL literal. Empty
// lists produce no DEFAULT clause; inserts always write the column anyway.
func defaultLiteral(table string, f gamestore.Field) (string, bool, error) {
	switch f.Type.(type) {
	case gamestore.TextColumn:
		s, ok := f.Default.(string)
		if !ok {
			return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not a string")
		}
		return quoteLiteral(s), true, nil
	case gamestore.IntegerColumn:
		switch n := f.Default.(type) {
		case int:
			return fmt.Sprintf("%d", n), true, nil
		case int32:
			return fmt.Sprintf("%d", n), true, nil
		case int64:
			return fmt.Sprintf("%d", n), true, nil
		}
		return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not an integer")
	case gamestore.RealColumn:
		switch n := f.Default.(type) {
		case float64:
			return fmt.Sprintf("%g", n), true, nil
		case float32:
			return fmt.Sprintf("%g", n), true, nil
		case int:
			return fmt.Sprintf("%d", n), true, nil
		}
		return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not numeric")
	case gamestore.BoolColumn:
		b, ok := f.Default.(bool)
		if !ok {
			return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not a boolean")
		}
		if b {
			return "1", true, nil
		}
		return "0", true, nil
	case gamestore.TimeColumn:
		t, ok := f.Default.(time.Time)
		if !ok {
			return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not a time")
		}
		return quoteLiteral(t.UTC().Format(timeLayout)), true, nil
	case gamestore.ListColumn:
		items, ok := f.Default.([]any)
		if !ok {
			return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not a list")
		}
		if len(items) == 0 {
			return "", false, nil
		}
		data, err := json.Marshal(items)
		if err != nil {
			return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not JSON-encodable")
		}
		return quoteLiteral(string(data)), true, nil
	case gamestore.EnumColumn:
		m, ok := f.Default.(gamestore.Enum)
		if !ok {
			return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default is not an enum member")
		}
		switch v := m.Value.(type) {
		case int:
			return fmt.Sprintf("%d", v), true, nil
		case int32:
			return fmt.Sprintf("%d", v), true, nil
		case int64:
			return fmt.Sprintf("%d", v), true, nil
		case string:
			return quoteLiteral(v), true, nil
		}
		return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" default has an unmappable enum value")
	default:
		return "", false, gamestore.NewSchemaError(table, "field "+f.Name+" has an unknown column type")
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
