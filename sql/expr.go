// Package sqlstore implements the relational repository on top of
// database/sql. Filters compile to parameterized WHERE clauses; table DDL
// is synthesized from the schema descriptor; engine differences live in the
// adapter sub-package.
package sqlstore

import (
	"fmt"
	"strings"

	"gamestore"
	"gamestore/sql/adapter"
)

// Expr is one node of a SQL boolean expression tree. Rendering always
// parameterizes values; no literal ever reaches the SQL text.
type Expr interface {
	render(w *exprWriter) error
}

type exprWriter struct {
	sb      strings.Builder
	args    []any
	adapter adapter.Adapter
	n       int
}

func (w *exprWriter) bind(v any) string {
	w.n++
	w.args = append(w.args, v)
	return w.adapter.Placeholder(w.n)
}

// Render produces the SQL text and bind arguments for an expression,
// numbering placeholders from start+1.
func Render(e Expr, a adapter.Adapter, start int) (string, []any, error) {
	w := &exprWriter{adapter: a, n: start}
	if err := e.render(w); err != nil {
		return "", nil, err
	}
	return w.sb.String(), w.args, nil
}

type cmpExpr struct {
	col string
	op  string // <, <=, >, >=, =, <>
	val any
}

func (e cmpExpr) render(w *exprWriter) error {
	fmt.Fprintf(&w.sb, "%s %s %s", e.col, e.op, w.bind(e.val))
	return nil
}

type nullExpr struct {
	col string
	not bool
}

func (e nullExpr) render(w *exprWriter) error {
	if e.not {
		fmt.Fprintf(&w.sb, "%s IS NOT NULL", e.col)
	} else {
		fmt.Fprintf(&w.sb, "%s IS NULL", e.col)
	}
	return nil
}

type inExpr struct {
	col  string
	vals []any
	not  bool
}

func (e inExpr) render(w *exprWriter) error {
	// Empty membership sets degenerate to constant predicates.
	if len(e.vals) == 0 {
		if e.not {
			w.sb.WriteString("1=1")
		} else {
			w.sb.WriteString("1=0")
		}
		return nil
	}
	marks := make([]string, len(e.vals))
	for i, v := range e.vals {
		marks[i] = w.bind(v)
	}
	kw := "IN"
	if e.not {
		kw = "NOT IN"
	}
	fmt.Fprintf(&w.sb, "%s %s (%s)", e.col, kw, strings.Join(marks, ", "))
	return nil
}

type likeExpr struct {
	col     string
	pattern string
	fold    bool
}

// Patterns always carry an ESCAPE clause so %, _ and the escape character
// in operands match literally. '!' keeps the escape portable; a backslash
// would collide with MySQL string literal escaping.
func (e likeExpr) render(w *exprWriter) error {
	if e.fold {
		fmt.Fprintf(&w.sb, "LOWER(%s) LIKE LOWER(%s) ESCAPE '!'", e.col, w.bind(e.pattern))
	} else {
		fmt.Fprintf(&w.sb, "%s %s %s ESCAPE '!'", e.col, w.adapter.CaseSensitiveLike(), w.bind(e.pattern))
	}
	return nil
}

type andExpr []Expr

func (e andExpr) render(w *exprWriter) error { return renderJoined(w, e, " AND ") }

type orExpr []Expr

func (e orExpr) render(w *exprWriter) error { return renderJoined(w, e, " OR ") }

func renderJoined(w *exprWriter, exprs []Expr, sep string) error {
	if len(exprs) == 0 {
		w.sb.WriteString("1=1")
		return nil
	}
	for i, sub := range exprs {
		if i > 0 {
			w.sb.WriteString(sep)
		}
		w.sb.WriteString("(")
		if err := sub.render(w); err != nil {
			return err
		}
		w.sb.WriteString(")")
	}
	return nil
}

// Fluent constructors.

// And combines expressions conjunctively.
func And(exprs ...Expr) Expr { return andExpr(exprs) }

// Or combines expressions disjunctively.
func Or(exprs ...Expr) Expr { return orExpr(exprs) }

// Eq compares a column to a bound value.
func Eq(col string, v any) Expr { return cmpExpr{col: col, op: "=", val: v} }

// Neq compares a column to a bound value for inequality.
func Neq(col string, v any) Expr { return cmpExpr{col: col, op: "<>", val: v} }

// Lt, Lte, Gt, Gte compare a column against a bound value.
func Lt(col string, v any) Expr  { return cmpExpr{col: col, op: "<", val: v} }
func Lte(col string, v any) Expr { return cmpExpr{col: col, op: "<=", val: v} }
func Gt(col string, v any) Expr  { return cmpExpr{col: col, op: ">", val: v} }
func Gte(col string, v any) Expr { return cmpExpr{col: col, op: ">=", val: v} }

// In tests column membership in a bound value set.
func In(col string, vals ...any) Expr { return inExpr{col: col, vals: vals} }

// NotIn tests column exclusion from a bound value set.
func NotIn(col string, vals ...any) Expr { return inExpr{col: col, vals: vals, not: true} }

// IsNull tests a column for NULL.
func IsNull(col string) Expr { return nullExpr{col: col} }

// IsNotNull tests a column for NOT NULL.
func IsNotNull(col string) Expr { return nullExpr{col: col, not: true} }

// Like matches a column against a bound LIKE pattern, optionally case
// folded.
func Like(col, pattern string, fold bool) Expr {
	return likeExpr{col: col, pattern: pattern, fold: fold}
}

// CompileFilter translates a filter into an expression tree over the
// schema's columns. Conditions on columns the table does not have, and
// operators relational engines cannot express (list membership inside a
// JSON-encoded column), surface as UnsupportedOperatorError so the
// repository can fall back to scanning.
func CompileFilter(schema *gamestore.Schema, codec *Codec, f gamestore.Filter) (Expr, error) {
	exprs := make([]Expr, 0, len(f.Conds))
	for _, c := range f.Conds {
		e, err := compileCondition(schema, codec, c)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return And(exprs...), nil
}

func compileCondition(schema *gamestore.Schema, codec *Codec, c gamestore.Condition) (Expr, error) {
	if !schema.HasColumn(c.Field) {
		// No such column: the evaluator treats the field as nil, which
		// SQL cannot mimic without the column existing.
		return nil, gamestore.NewUnsupportedOperatorError(c.Op)
	}
	if isListColumn(schema, c.Field) {
		// JSON-encoded columns only support the null tests natively.
		if c.Op != gamestore.OpIsNull {
			return nil, gamestore.NewUnsupportedOperatorError(c.Op)
		}
	}
	col := c.Field
	switch c.Op {
	case gamestore.OpEq:
		if c.Value == nil {
			return IsNull(col), nil
		}
		v, err := codec.EncodeOperand(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		return Eq(col, v), nil
	case gamestore.OpNeq:
		if c.Value == nil {
			return IsNotNull(col), nil
		}
		v, err := codec.EncodeOperand(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		// NULL rows count as "not equal", matching evaluator semantics.
		return Or(IsNull(col), Neq(col, v)), nil
	case gamestore.OpLt, gamestore.OpLte, gamestore.OpGt, gamestore.OpGte:
		v, err := codec.EncodeOperand(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case gamestore.OpLt:
			return Lt(col, v), nil
		case gamestore.OpLte:
			return Lte(col, v), nil
		case gamestore.OpGt:
			return Gt(col, v), nil
		default:
			return Gte(col, v), nil
		}
	case gamestore.OpIn, gamestore.OpNotIn:
		vals, err := codec.EncodeOperandList(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		if c.Op == gamestore.OpIn {
			return In(col, vals...), nil
		}
		// NULL rows are excluded from any set, so they match NOT IN.
		return Or(IsNull(col), NotIn(col, vals...)), nil
	case gamestore.OpContains, gamestore.OpIContains:
		return likeFor(c, "%", "%")
	case gamestore.OpStartsWith, gamestore.OpIStartsWith:
		return likeFor(c, "", "%")
	case gamestore.OpEndsWith, gamestore.OpIEndsWith:
		return likeFor(c, "%", "")
	case gamestore.OpIsNull:
		want := true
		if b, ok := c.Value.(bool); ok {
			want = b
		}
		if want {
			return IsNull(col), nil
		}
		return IsNotNull(col), nil
	default:
		return nil, gamestore.NewUnsupportedOperatorError(c.Op)
	}
}

func likeFor(c gamestore.Condition, prefix, suffix string) (Expr, error) {
	s, ok := c.Value.(string)
	if !ok {
		return nil, gamestore.NewSerializationError(c.Field, c.Value, "string operator needs a string operand")
	}
	fold := c.Op == gamestore.OpIContains || c.Op == gamestore.OpIStartsWith || c.Op == gamestore.OpIEndsWith
	return Like(c.Field, prefix+escapeLike(s)+suffix, fold), nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike neutralizes LIKE wildcards in an operand so string operators
// match it literally, the way the evaluator does.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isListColumn(schema *gamestore.Schema, name string) bool {
	f, ok := schema.Field(name)
	if !ok {
		return false
	}
	_, isList := f.Type.(gamestore.ListColumn)
	return isList
}
