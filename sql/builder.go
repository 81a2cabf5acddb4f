package sqlstore

import (
	"fmt"
	"strings"

	"gamestore/sql/adapter"
)

// QueryBuilder accumulates a SELECT statement: projection, WHERE tree,
// ordering and bounds. Build renders the statement with the adapter's
// placeholder style.
type QueryBuilder struct {
	table   string
	adapter adapter.Adapter
	columns []string
	where   Expr
	orderBy string
	desc    bool
	limit   *int
	offset  *int
}

// NewQueryBuilder starts a SELECT against the given table.
func NewQueryBuilder(table string, a adapter.Adapter) *QueryBuilder {
	return &QueryBuilder{table: table, adapter: a}
}

// Columns sets the projection; defaults to * when never called.
func (b *QueryBuilder) Columns(cols ...string) *QueryBuilder {
	b.columns = cols
	return b
}

// Where sets the WHERE expression tree.
func (b *QueryBuilder) Where(e Expr) *QueryBuilder {
	b.where = e
	return b
}

// OrderBy sorts by the given column.
func (b *QueryBuilder) OrderBy(col string, desc bool) *QueryBuilder {
	b.orderBy = col
	b.desc = desc
	return b
}

// Limit bounds the result set.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.limit = &n
	return b
}

// Offset skips leading rows.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	b.offset = &n
	return b
}

// Build renders the statement and its bind arguments.
func (b *QueryBuilder) Build() (string, []any, error) {
	cols := "*"
	if len(b.columns) > 0 {
		cols = strings.Join(b.columns, ", ")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, b.table)

	var args []any
	if b.where != nil {
		clause, whereArgs, err := Render(b.where, b.adapter, 0)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE " + clause)
		args = append(args, whereArgs...)
	}
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY " + b.orderBy)
		if b.desc {
			sb.WriteString(" DESC")
		}
	}
	if b.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *b.limit)
	}
	if b.offset != nil {
		fmt.Fprintf(&sb, " OFFSET %d", *b.offset)
	}
	return sb.String(), args, nil
}

// InsertBuilder accumulates an INSERT statement.
type InsertBuilder struct {
	table     string
	adapter   adapter.Adapter
	columns   []string
	values    []any
	returning string
}

// NewInsertBuilder starts an INSERT into the given table.
func NewInsertBuilder(table string, a adapter.Adapter) *InsertBuilder {
	return &InsertBuilder{table: table, adapter: a}
}

// Set adds one column/value pair.
func (b *InsertBuilder) Set(col string, val any) *InsertBuilder {
	b.columns = append(b.columns, col)
	b.values = append(b.values, val)
	return b
}

// Returning appends a RETURNING clause; callers gate this on adapter
// capability.
func (b *InsertBuilder) Returning(col string) *InsertBuilder {
	b.returning = col
	return b
}

// Build renders the statement and its bind arguments.
func (b *InsertBuilder) Build() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert into %s has no columns", b.table)
	}
	marks := make([]string, len(b.columns))
	for i := range b.columns {
		marks[i] = b.adapter.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(b.columns, ", "), strings.Join(marks, ", "))
	if b.returning != "" {
		stmt += " RETURNING " + b.returning
	}
	return stmt, b.values, nil
}

// UpdateBuilder accumulates an UPDATE statement.
type UpdateBuilder struct {
	table   string
	adapter adapter.Adapter
	columns []string
	values  []any
	where   Expr
}

// NewUpdateBuilder starts an UPDATE against the given table.
func NewUpdateBuilder(table string, a adapter.Adapter) *UpdateBuilder {
	return &UpdateBuilder{table: table, adapter: a}
}

// Set adds one assignment.
func (b *UpdateBuilder) Set(col string, val any) *UpdateBuilder {
	b.columns = append(b.columns, col)
	b.values = append(b.values, val)
	return b
}

// Where sets the WHERE expression tree.
func (b *UpdateBuilder) Where(e Expr) *UpdateBuilder {
	b.where = e
	return b
}

// Build renders the statement and its bind arguments.
func (b *UpdateBuilder) Build() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("update of %s has no assignments", b.table)
	}
	sets := make([]string, len(b.columns))
	for i, col := range b.columns {
		sets[i] = col + " = " + b.adapter.Placeholder(i+1)
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s", b.table, strings.Join(sets, ", "))
	args := append([]any{}, b.values...)
	if b.where != nil {
		clause, whereArgs, err := Render(b.where, b.adapter, len(args))
		if err != nil {
			return "", nil, err
		}
		stmt += " WHERE " + clause
		args = append(args, whereArgs...)
	}
	return stmt, args, nil
}

// DeleteBuilder accumulates a DELETE statement.
type DeleteBuilder struct {
	table   string
	adapter adapter.Adapter
	where   Expr
}

// NewDeleteBuilder starts a DELETE against the given table.
func NewDeleteBuilder(table string, a adapter.Adapter) *DeleteBuilder {
	return &DeleteBuilder{table: table, adapter: a}
}

// Where sets the WHERE expression tree.
func (b *DeleteBuilder) Where(e Expr) *DeleteBuilder {
	b.where = e
	return b
}

// Build renders the statement and its bind arguments.
func (b *DeleteBuilder) Build() (string, []any, error) {
	stmt := "DELETE FROM " + b.table
	if b.where == nil {
		return stmt, nil, nil
	}
	clause, args, err := Render(b.where, b.adapter, 0)
	if err != nil {
		return "", nil, err
	}
	return stmt + " WHERE " + clause, args, nil
}
