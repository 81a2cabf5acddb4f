package docstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	clover "github.com/ostafen/clover/v2"
	"github.com/ostafen/clover/v2/document"
	"github.com/ostafen/clover/v2/query"

	"gamestore"
)

// Repository stores records as documents in an embedded CloverDB
// collection. Record ids live in the documents themselves ("id"), separate
// from the engine's own object ids, so ids stay stable across export and
// re-import.
type Repository struct {
	db     *clover.DB
	ownsDB bool
	schema *gamestore.Schema
	codec  *gamestore.Codec
	log    *slog.Logger

	mu     sync.Mutex
	nextID int64
}

var _ gamestore.Repository = (*Repository)(nil)

// New opens (or creates) the database at cfg.FilePath and ensures the
// entity's collection exists. The returned repository owns the handle and
// must be closed.
func New(cfg *gamestore.Config, schema *gamestore.Schema) (*Repository, error) {
	if cfg == nil || cfg.FilePath == "" {
		return nil, gamestore.NewValidationError("file path is required")
	}
	db, err := clover.Open(cfg.FilePath)
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "open", schema.Table)
	}
	r, err := NewWithDB(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.ownsDB = true
	return r, nil
}

// NewWithDB wraps an existing database handle; the caller keeps ownership
// of it. Useful when several entities share one database file.
func NewWithDB(db *clover.DB, schema *gamestore.Schema) (*Repository, error) {
	has, err := db.HasCollection(schema.Table)
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "init", schema.Table)
	}
	if !has {
		if err := db.CreateCollection(schema.Table); err != nil {
			return nil, gamestore.WrapQueryError(err, "init", schema.Table)
		}
	}
	r := &Repository{
		db:     db,
		schema: schema,
		codec:  &gamestore.Codec{Schema: schema},
		log:    slog.Default().With("component", "docstore", "entity", schema.Table),
		nextID: 1,
	}
	if err := r.scanMaxID(); err != nil {
		return nil, err
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

func (r *Repository) scanMaxID() error {
	docs, err := r.db.FindAll(query.NewQuery(r.schema.Table))
	if err != nil {
		return gamestore.WrapQueryError(err, "init", r.schema.Table)
	}
	for _, doc := range docs {
		rec, err := r.codec.DecodeDocument(doc.ToMap())
		if err != nil {
			return err
		}
		if rec.ID >= r.nextID {
			r.nextID = rec.ID + 1
		}
	}
	return nil
}

// Name returns the entity name this repository manages.
func (r *Repository) Name() string { return r.schema.Table }

func (r *Repository) byID(id int64) *query.Query {
	return query.NewQuery(r.schema.Table).Where(query.Field("id").Eq(id))
}

func (r *Repository) findByID(id int64) (*gamestore.Record, error) {
	doc, err := r.db.FindFirst(r.byID(id))
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "read", r.schema.Table)
	}
	if doc == nil {
		return nil, nil
	}
	return r.codec.DecodeDocument(doc.ToMap())
}

// Create persists a new record, assigning its id and timestamps.
func (r *Repository) Create(ctx context.Context, rec *gamestore.Record) (*gamestore.Record, error) {
	if rec == nil {
		return nil, gamestore.NewValidationError("nil record")
	}
	if rec.ID != 0 {
		return nil, gamestore.NewValidationError("id is assigned by the store")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := rec.Clone()
	stored.Fields = r.schema.NormalizeFields(stored.Fields)
	stored.ID = r.nextID
	now := gamestore.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.DeletedAt = nil

	raw, err := r.codec.EncodeDocument(stored)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.InsertOne(r.schema.Table, document.NewDocumentOf(raw)); err != nil {
		return nil, gamestore.WrapQueryError(err, "create", r.schema.Table)
	}
	r.nextID++
	return stored, nil
}

// Update merges patch onto the existing record and bumps updated_at.
func (r *Repository) Update(ctx context.Context, id int64, patch map[string]any) (*gamestore.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.findByID(id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, gamestore.NewNotFoundError(r.schema.Table, id)
	}
	for k, v := range patch {
		if _, declared := r.schema.Field(k); !declared {
			continue
		}
		stored.Fields[k] = v
	}
	stored.UpdatedAt = gamestore.Now()

	raw, err := r.codec.EncodeDocument(stored)
	if err != nil {
		return nil, err
	}
	if err := r.db.Update(r.byID(id), raw); err != nil {
		return nil, gamestore.WrapQueryError(err, "update", r.schema.Table)
	}
	return stored, nil
}

// Delete removes a record's document, or rewrites it with deleted_at set
// when soft is requested.
func (r *Repository) Delete(ctx context.Context, id int64, soft bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.findByID(id)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, nil
	}
	if soft {
		now := gamestore.Now()
		stored.DeletedAt = &now
		stored.UpdatedAt = now
		raw, err := r.codec.EncodeDocument(stored)
		if err != nil {
			return false, err
		}
		if err := r.db.Update(r.byID(id), raw); err != nil {
			return false, gamestore.WrapQueryError(err, "delete", r.schema.Table)
		}
		return true, nil
	}
	if err := r.db.Delete(r.byID(id)); err != nil {
		return false, gamestore.WrapQueryError(err, "delete", r.schema.Table)
	}
	return true, nil
}

// GetByID returns the record, or (nil, nil) when the id is absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*gamestore.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByID(id)
}

// GetManyByIDs returns the records found for the given ids, ascending.
func (r *Repository) GetManyByIDs(ctx context.Context, ids []int64) ([]*gamestore.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*gamestore.Record, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		rec, err := r.findByID(id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAll returns every stored record in ascending id order.
func (r *Repository) ListAll(ctx context.Context) ([]*gamestore.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listAllLocked()
}

func (r *Repository) listAllLocked() ([]*gamestore.Record, error) {
	docs, err := r.db.FindAll(query.NewQuery(r.schema.Table))
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "list", r.schema.Table)
	}
	out := make([]*gamestore.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := r.codec.DecodeDocument(doc.ToMap())
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// match returns all records the filter selects, in ascending id order. It
// prefers a compiled native query and falls back to scanning with the
// evaluator when the filter cannot be expressed natively.
func (r *Repository) match(f gamestore.Filter) ([]*gamestore.Record, error) {
	crit, err := Compile(r.schema, r.codec, f)
	switch {
	case err == nil:
		q := query.NewQuery(r.schema.Table)
		if crit != nil {
			q = q.Where(crit)
		}
		docs, qerr := r.db.FindAll(q)
		if qerr != nil {
			return nil, gamestore.WrapQueryError(qerr, "find", r.schema.Table)
		}
		out := make([]*gamestore.Record, 0, len(docs))
		for _, doc := range docs {
			rec, derr := r.codec.DecodeDocument(doc.ToMap())
			if derr != nil {
				return nil, derr
			}
			out = append(out, rec)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	case gamestore.IsUnsupportedOperator(err) || gamestore.IsSerialization(err):
		r.log.Warn("filter not natively expressible, scanning", "reason", err)
		all, lerr := r.listAllLocked()
		if lerr != nil {
			return nil, lerr
		}
		matched := all[:0:0]
		for _, rec := range all {
			ok, eerr := gamestore.Evaluate(rec, f)
			if eerr != nil {
				return nil, eerr
			}
			if ok {
				matched = append(matched, rec)
			}
		}
		return matched, nil
	default:
		return nil, err
	}
}

// Exists reports whether any record matches the filter.
func (r *Repository) Exists(ctx context.Context, f gamestore.Filter) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched, err := r.match(f)
	if err != nil {
		return false, err
	}
	return len(matched) > 0, nil
}

// Count returns the number of records matching the filter.
func (r *Repository) Count(ctx context.Context, f gamestore.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched, err := r.match(f)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Find returns the filtered, ordered, paginated result set.
func (r *Repository) Find(ctx context.Context, f gamestore.Filter, opts ...gamestore.FindOption) (*gamestore.Page, error) {
	o := gamestore.NewFindOptions(opts...)

	r.mu.Lock()
	matched, err := r.match(f)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return gamestore.Paginate(matched, o)
}

// Atomic runs fn, restoring the collection from an in-memory snapshot when
// fn returns an error. The engine has no multi-operation transactions, so
// the restore is best effort and covers this collection only.
func (r *Repository) Atomic(ctx context.Context, fn func(context.Context) error) error {
	r.mu.Lock()
	docs, err := r.db.FindAll(query.NewQuery(r.schema.Table))
	if err != nil {
		r.mu.Unlock()
		return gamestore.WrapQueryError(err, "atomic", r.schema.Table)
	}
	backup := make([]map[string]any, len(docs))
	for i, doc := range docs {
		m := doc.ToMap()
		delete(m, "_id")
		backup[i] = m
	}
	backupNext := r.nextID
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if derr := r.db.Delete(query.NewQuery(r.schema.Table)); derr != nil {
			return gamestore.WrapQueryError(derr, "atomic", r.schema.Table)
		}
		for _, raw := range backup {
			if _, ierr := r.db.InsertOne(r.schema.Table, document.NewDocumentOf(raw)); ierr != nil {
				return gamestore.WrapQueryError(ierr, "atomic", r.schema.Table)
			}
		}
		r.nextID = backupNext
		return err
	}
	return nil
}
