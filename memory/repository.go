// Package memory provides a map-backed repository. It is the reference
// implementation the other backends are checked against: pure in-process
// state, no serialization, full operator support through the shared
// evaluator.
package memory

import (
	"context"
	"sort"
	"sync"

	"gamestore"
)

// Repository stores records in a mutex-guarded map. Safe for concurrent
// use; records are cloned on the way in and out so callers never share
// mutable state with the store.
type Repository struct {
	schema *gamestore.Schema

	mu      sync.RWMutex
	records map[int64]*gamestore.Record
	nextID  int64
}

var _ gamestore.Repository = (*Repository)(nil)

// New creates an empty repository for the given schema. The schema drives
// the same field normalization the persistent backends apply through their
// codecs, so created records carry defaults and shed undeclared keys here
// too.
func New(schema *gamestore.Schema) *Repository {
	return &Repository{
		schema:  schema,
		records: make(map[int64]*gamestore.Record),
		nextID:  1,
	}
}

// Name returns the entity name this repository manages.
func (r *Repository) Name() string { return r.schema.Table }

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
	r.nextID++
	now := gamestore.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.DeletedAt = nil
	r.records[stored.ID] = stored
	return stored.Clone(), nil
}

// Update merges patch onto the existing record and bumps updated_at.
func (r *Repository) Update(ctx context.Context, id int64, patch map[string]any) (*gamestore.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[id]
	if !ok {
		return nil, gamestore.NewNotFoundError(r.schema.Table, id)
	}
	for k, v := range patch {
		if _, declared := r.schema.Field(k); !declared {
			continue
		}
		stored.Fields[k] = v
	}
	stored.UpdatedAt = gamestore.Now()
	return stored.Clone(), nil
}

// Delete removes a record, or marks it deleted when soft is set.
func (r *Repository) Delete(ctx context.Context, id int64, soft bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[id]
	if !ok {
		return false, nil
	}
	if soft {
		now := gamestore.Now()
		stored.DeletedAt = &now
		stored.UpdatedAt = now
		return true, nil
	}
	delete(r.records, id)
	return true, nil
}

// GetByID returns the record, or (nil, nil) when the id is absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*gamestore.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return stored.Clone(), nil
}

// GetManyByIDs returns the records found for the given ids, ascending.
func (r *Repository) GetManyByIDs(ctx context.Context, ids []int64) ([]*gamestore.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*gamestore.Record, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if stored, ok := r.records[id]; ok {
			out = append(out, stored.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAll returns every stored record in ascending id order.
func (r *Repository) ListAll(ctx context.Context) ([]*gamestore.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(), nil
}

// Exists reports whether any record matches the filter.
func (r *Repository) Exists(ctx context.Context, f gamestore.Filter) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.records {
		ok, err := gamestore.Evaluate(stored, f)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of records matching the filter.
func (r *Repository) Count(ctx context.Context, f gamestore.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, stored := range r.records {
		ok, err := gamestore.Evaluate(stored, f)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Find returns the filtered, ordered, paginated result set.
func (r *Repository) Find(ctx context.Context, f gamestore.Filter, opts ...gamestore.FindOption) (*gamestore.Page, error) {
	o := gamestore.NewFindOptions(opts...)

	r.mu.RLock()
	all := r.snapshotLocked()
	r.mu.RUnlock()

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
	return gamestore.Paginate(matched, o)
}

// Atomic runs fn against this repository, restoring the pre-call state when
// fn returns an error. The snapshot guard covers this repository only; it
// does not span multiple stores.
func (r *Repository) Atomic(ctx context.Context, fn func(context.Context) error) error {
	r.mu.Lock()
	backup := make(map[int64]*gamestore.Record, len(r.records))
	for id, rec := range r.records {
		backup[id] = rec.Clone()
	}
	backupNext := r.nextID
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.records = backup
		r.nextID = backupNext
		r.mu.Unlock()
		return err
	}
	return nil
}

// snapshotLocked clones all records in ascending id order. Callers hold at
// least the read lock.
func (r *Repository) snapshotLocked() []*gamestore.Record {
	out := make([]*gamestore.Record, 0, len(r.records))
	for _, stored := range r.records {
		out = append(out, stored.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
