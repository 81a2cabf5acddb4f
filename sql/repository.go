package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"gamestore"
	"gamestore/sql/adapter"
)

// Repository implements the storage contract on a relational engine. The
// table is synthesized from the schema descriptor on construction; all
// statements are parameterized and flow through the context's transaction
// when one is active.
type Repository struct {
	db      *sql.DB
	ownsDB  bool
	adapter adapter.Adapter
	schema  *gamestore.Schema
	codec   *Codec
	log     *slog.Logger
	cols    []string
}

var _ gamestore.Repository = (*Repository)(nil)

// New resolves the adapter named by cfg.Type, connects, and ensures the
// entity's table exists.
func New(cfg *gamestore.Config, schema *gamestore.Schema) (*Repository, error) {
	a, err := adapter.Get(cfg.Type)
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "open", schema.Table)
	}
	db, err := a.Connect(cfg)
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "open", schema.Table)
	}
	r, err := NewWithDB(db, a, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.ownsDB = true
	return r, nil
}

// NewWithDB wraps an existing handle; the caller keeps ownership of it.
func NewWithDB(db *sql.DB, a adapter.Adapter, schema *gamestore.Schema) (*Repository, error) {
	r := &Repository{
		db:      db,
		adapter: a,
		schema:  schema,
		codec:   NewCodec(schema),
		log:     slog.Default().With("component", "sqlstore", "entity", schema.Table),
		cols:    selectColumns(schema),
	}
	ddl, err := CreateTableSQL(schema, a)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(ddl); err != nil {
		return nil, gamestore.NewSchemaError(schema.Table, err.Error())
	}
	return r, nil
}

// Close releases the database handle if this repository owns it.
func (r *Repository) Close() error {
	if !r.ownsDB {
		return nil
	}
	return r.db.Close()
}

// Name returns the entity name this repository manages.
func (r *Repository) Name() string { return r.schema.Table }

// DB exposes the underlying handle for schema tooling and tests.
func (r *Repository) DB() *sql.DB { return r.db }

func (r *Repository) selectBuilder() *QueryBuilder {
	return NewQueryBuilder(r.schema.Table, r.adapter).Columns(r.cols...)
}

// Create persists a new record, assigning its id and timestamps.
func (r *Repository) Create(ctx context.Context, rec *gamestore.Record) (*gamestore.Record, error) {
	if rec == nil {
		return nil, gamestore.NewValidationError("nil record")
	}
	if rec.ID != 0 {
		return nil, gamestore.NewValidationError("id is assigned by the store")
	}
	stored := rec.Clone()
	stored.Fields = r.schema.NormalizeFields(stored.Fields)
	now := gamestore.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.DeletedAt = nil

	ins := NewInsertBuilder(r.schema.Table, r.adapter).
		Set("created_at", now.Format(timeLayout)).
		Set("updated_at", now.Format(timeLayout)).
		Set("deleted_at", nil)
	for _, f := range r.schema.Fields {
		enc, err := r.codec.EncodeField(f, stored.Fields[f.Name])
		if err != nil {
			return nil, err
		}
		ins.Set(f.Name, enc)
	}

	exec := executorFor(ctx, r.db)
	if r.adapter.SupportsReturning() {
		stmt, args, err := ins.Returning("id").Build()
		if err != nil {
			return nil, gamestore.WrapQueryError(err, "create", r.schema.Table)
		}
		var id int64
		if err := exec.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
			return nil, gamestore.WrapQueryError(err, "create", r.schema.Table)
		}
		stored.ID = id
	} else {
		stmt, args, err := ins.Build()
		if err != nil {
			return nil, gamestore.WrapQueryError(err, "create", r.schema.Table)
		}
		res, err := exec.ExecContext(ctx, stmt, args...)
		if err != nil {
			return nil, gamestore.WrapQueryError(err, "create", r.schema.Table)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, gamestore.WrapQueryError(err, "create", r.schema.Table)
		}
		stored.ID = id
	}
	return stored, nil
}

// Update merges patch onto the existing record and bumps updated_at.
func (r *Repository) Update(ctx context.Context, id int64, patch map[string]any) (*gamestore.Record, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, gamestore.NewNotFoundError(r.schema.Table, id)
	}
	for k, v := range patch {
		if _, declared := r.schema.Field(k); !declared {
			continue
		}
		existing.Fields[k] = v
	}
	existing.UpdatedAt = gamestore.Now()

	upd := NewUpdateBuilder(r.schema.Table, r.adapter).
		Set("updated_at", existing.UpdatedAt.Format(timeLayout))
	for _, f := range r.schema.Fields {
		if _, touched := patch[f.Name]; !touched {
			continue
		}
		enc, err := r.codec.EncodeField(f, existing.Fields[f.Name])
		if err != nil {
			return nil, err
		}
		upd.Set(f.Name, enc)
	}
	stmt, args, err := upd.Where(Eq("id", id)).Build()
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "update", r.schema.Table)
	}
	if _, err := executorFor(ctx, r.db).ExecContext(ctx, stmt, args...); err != nil {
		return nil, gamestore.WrapQueryError(err, "update", r.schema.Table)
	}
	return existing, nil
}

// Delete removes a row, or sets deleted_at when soft is requested.
func (r *Repository) Delete(ctx context.Context, id int64, soft bool) (bool, error) {
	var stmt string
	var args []any
	var err error
	if soft {
		now := gamestore.Now().Format(timeLayout)
		stmt, args, err = NewUpdateBuilder(r.schema.Table, r.adapter).
			Set("deleted_at", now).
			Set("updated_at", now).
			Where(Eq("id", id)).
			Build()
	} else {
		stmt, args, err = NewDeleteBuilder(r.schema.Table, r.adapter).
			Where(Eq("id", id)).
			Build()
	}
	if err != nil {
		return false, gamestore.WrapQueryError(err, "delete", r.schema.Table)
	}
	res, err := executorFor(ctx, r.db).ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, gamestore.WrapQueryError(err, "delete", r.schema.Table)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, gamestore.WrapQueryError(err, "delete", r.schema.Table)
	}
	return affected > 0, nil
}

// GetByID returns the record, or (nil, nil) when the id is absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*gamestore.Record, error) {
	stmt, args, err := r.selectBuilder().Where(Eq("id", id)).Limit(1).Build()
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "read", r.schema.Table)
	}
	recs, err := r.queryRecords(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// GetManyByIDs returns the records found for the given ids, ascending.
func (r *Repository) GetManyByIDs(ctx context.Context, ids []int64) ([]*gamestore.Record, error) {
	if len(ids) == 0 {
		return []*gamestore.Record{}, nil
	}
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	stmt, args, err := r.selectBuilder().Where(In("id", vals...)).OrderBy("id", false).Build()
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "read", r.schema.Table)
	}
	return r.queryRecords(ctx, stmt, args...)
}

// ListAll returns every stored record in ascending id order.
func (r *Repository) ListAll(ctx context.Context) ([]*gamestore.Record, error) {
	stmt, _, err := r.selectBuilder().OrderBy("id", false).Build()
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "list", r.schema.Table)
	}
	return r.queryRecords(ctx, stmt)
}

// compileFilter compiles f, reporting whether the result is natively
// executable. Filters the compiler cannot express (conditions on JSON list
// columns, unknown columns) are signalled for evaluator fallback.
func (r *Repository) compileFilter(f gamestore.Filter) (Expr, bool, error) {
	expr, err := CompileFilter(r.schema, r.codec, f)
	switch {
	case err == nil:
		return expr, true, nil
	case gamestore.IsUnsupportedOperator(err) || gamestore.IsSerialization(err):
		r.log.Warn("filter not natively expressible, scanning", "reason", err)
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// scanMatch filters every row through the shared evaluator.
func (r *Repository) scanMatch(ctx context.Context, f gamestore.Filter) ([]*gamestore.Record, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := all[:0:0]
	for _, rec := range all {
		ok, err := gamestore.Evaluate(rec, f)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// match returns all records the filter selects, ascending by id.
func (r *Repository) match(ctx context.Context, f gamestore.Filter) ([]*gamestore.Record, error) {
	expr, native, err := r.compileFilter(f)
	if err != nil {
		return nil, err
	}
	if !native {
		return r.scanMatch(ctx, f)
	}
	stmt, args, err := r.selectBuilder().Where(expr).OrderBy("id", false).Build()
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "find", r.schema.Table)
	}
	return r.queryRecords(ctx, stmt, args...)
}

// Exists reports whether any record matches the filter.
func (r *Repository) Exists(ctx context.Context, f gamestore.Filter) (bool, error) {
	expr, native, err := r.compileFilter(f)
	if err != nil {
		return false, err
	}
	if !native {
		matched, err := r.scanMatch(ctx, f)
		if err != nil {
			return false, err
		}
		return len(matched) > 0, nil
	}
	stmt, args, err := NewQueryBuilder(r.schema.Table, r.adapter).
		Columns("1").Where(expr).Limit(1).Build()
	if err != nil {
		return false, gamestore.WrapQueryError(err, "exists", r.schema.Table)
	}
	var one int
	err = executorFor(ctx, r.db).QueryRowContext(ctx, stmt, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, gamestore.WrapQueryError(err, "exists", r.schema.Table)
	}
	return true, nil
}

// Count returns the number of records matching the filter.
func (r *Repository) Count(ctx context.Context, f gamestore.Filter) (int64, error) {
	expr, native, err := r.compileFilter(f)
	if err != nil {
		return 0, err
	}
	if !native {
		matched, err := r.scanMatch(ctx, f)
		if err != nil {
			return 0, err
		}
		return int64(len(matched)), nil
	}
	stmt, args, err := NewQueryBuilder(r.schema.Table, r.adapter).
		Columns("COUNT(*)").Where(expr).Build()
	if err != nil {
		return 0, gamestore.WrapQueryError(err, "count", r.schema.Table)
	}
	var n int64
	if err := executorFor(ctx, r.db).QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, gamestore.WrapQueryError(err, "count", r.schema.Table)
	}
	return n, nil
}

// Find returns the filtered, ordered, paginated result set. Matching
// happens in SQL; ordering and page slicing run through the shared
// pipeline so page boundaries agree with every other backend.
func (r *Repository) Find(ctx context.Context, f gamestore.Filter, opts ...gamestore.FindOption) (*gamestore.Page, error) {
	o := gamestore.NewFindOptions(opts...)
	matched, err := r.match(ctx, f)
	if err != nil {
		return nil, err
	}
	return gamestore.Paginate(matched, o)
}

// Atomic runs fn inside a database transaction carried on the context.
func (r *Repository) Atomic(ctx context.Context, fn func(context.Context) error) error {
	return WithTransaction(ctx, r.db, fn)
}

func (r *Repository) queryRecords(ctx context.Context, stmt string, args ...any) ([]*gamestore.Record, error) {
	rows, err := executorFor(ctx, r.db).QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "query", r.schema.Table)
	}
	defer rows.Close()

	var out []*gamestore.Record
	for rows.Next() {
		values := make([]any, len(r.cols))
		ptrs := make([]any, len(r.cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, gamestore.WrapQueryError(err, "query", r.schema.Table)
		}
		rec, err := r.codec.DecodeRow(values)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, gamestore.WrapQueryError(err, "query", r.schema.Table)
	}
	return out, nil
}
