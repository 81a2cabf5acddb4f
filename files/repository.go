// Package files provides a repository that stores each record as one JSON
// file under <base>/<entity>/<id>.json. Documents are written with enum
// members spelled by name so the files stay readable and hand-editable.
package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gamestore"
)

// Repository persists records as individual JSON documents. All queries are
// linear scans through the shared evaluator; the backend targets small
// record counts where inspectability matters more than speed.
type Repository struct {
	schema *gamestore.Schema
	codec  *gamestore.Codec
	dir    string

	mu     sync.Mutex
	nextID int64
}

var _ gamestore.Repository = (*Repository)(nil)

// New creates a repository rooted at cfg.BasePath. The entity directory is
// created if missing, and the id counter resumes past the highest id found
// on disk.
func New(cfg *gamestore.Config, schema *gamestore.Schema) (*Repository, error) {
	if cfg == nil || cfg.BasePath == "" {
		return nil, gamestore.NewValidationError("base path is required")
	}
	dir := filepath.Join(cfg.BasePath, schema.Table)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, gamestore.WrapQueryError(err, "init", schema.Table)
	}
	r := &Repository{
		schema: schema,
		codec:  &gamestore.Codec{Schema: schema, EnumAsName: true},
		dir:    dir,
		nextID: 1,
	}
	if err := r.scanMaxID(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) scanMaxID() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return gamestore.WrapQueryError(err, "init", r.schema.Table)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		if id >= r.nextID {
			r.nextID = id + 1
		}
	}
	return nil
}

// Name returns the entity name this repository manages.
func (r *Repository) Name() string { return r.schema.Table }

func (r *Repository) path(id int64) string {
	return filepath.Join(r.dir, fmt.Sprintf("%d.json", id))
}

func (r *Repository) writeRecord(rec *gamestore.Record) error {
	doc, err := r.codec.EncodeDocument(rec)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return gamestore.NewSerializationError("", nil, err.Error())
	}
	if err := os.WriteFile(r.path(rec.ID), data, 0o644); err != nil {
		return gamestore.WrapQueryError(err, "write", r.schema.Table)
	}
	return nil
}

func (r *Repository) readRecord(id int64) (*gamestore.Record, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gamestore.WrapQueryError(err, "read", r.schema.Table)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, gamestore.NewSerializationError("", nil, err.Error())
	}
	return r.codec.DecodeDocument(doc)
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
	if err := r.writeRecord(stored); err != nil {
		return nil, err
	}
	r.nextID++
	return stored, nil
}

// Update merges patch onto the existing record and bumps updated_at.
func (r *Repository) Update(ctx context.Context, id int64, patch map[string]any) (*gamestore.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.readRecord(id)
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
	if err := r.writeRecord(stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// Delete removes a record's file, or rewrites it with deleted_at set when
// soft is requested.
func (r *Repository) Delete(ctx context.Context, id int64, soft bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.readRecord(id)
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
		if err := r.writeRecord(stored); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := os.Remove(r.path(id)); err != nil {
		return false, gamestore.WrapQueryError(err, "delete", r.schema.Table)
	}
	return true, nil
}

// GetByID returns the record, or (nil, nil) when the id is absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*gamestore.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readRecord(id)
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
		rec, err := r.readRecord(id)
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
	return r.listLocked()
}

func (r *Repository) listLocked() ([]*gamestore.Record, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, gamestore.WrapQueryError(err, "list", r.schema.Table)
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*gamestore.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.readRecord(id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Exists reports whether any record matches the filter.
func (r *Repository) Exists(ctx context.Context, f gamestore.Filter) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.listLocked()
	if err != nil {
		return false, err
	}
	for _, rec := range all {
		ok, err := gamestore.Evaluate(rec, f)
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
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.listLocked()
	if err != nil {
		return 0, err
	}
	var n int64
	for _, rec := range all {
		ok, err := gamestore.Evaluate(rec, f)
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

	r.mu.Lock()
	all, err := r.listLocked()
	r.mu.Unlock()
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
	return gamestore.Paginate(matched, o)
}

// Atomic runs fn, restoring the entity directory's files when fn returns an
// error. The guard covers this repository's directory only and is not
// crash-safe; a process failure mid-restore can leave partial state.
func (r *Repository) Atomic(ctx context.Context, fn func(context.Context) error) error {
	r.mu.Lock()
	backup := make(map[string][]byte)
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		r.mu.Unlock()
		return gamestore.WrapQueryError(err, "atomic", r.schema.Table)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			r.mu.Unlock()
			return gamestore.WrapQueryError(err, "atomic", r.schema.Table)
		}
		backup[e.Name()] = data
	}
	backupNext := r.nextID
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		entries, rerr := os.ReadDir(r.dir)
		if rerr != nil {
			return gamestore.WrapQueryError(rerr, "atomic", r.schema.Table)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			if _, kept := backup[e.Name()]; !kept {
				os.Remove(filepath.Join(r.dir, e.Name()))
			}
		}
		for name, data := range backup {
			if werr := os.WriteFile(filepath.Join(r.dir, name), data, 0o644); werr != nil {
				return gamestore.WrapQueryError(werr, "atomic", r.schema.Table)
			}
		}
		r.nextID = backupNext
		return err
	}
	return nil
}
