// Package gamestore persists small structured records behind a uniform
// repository contract while letting the storage engine underneath vary:
// an in-memory map, one JSON file per record, an embedded document store,
// or a relational engine reached through a hand-built SQL layer.
//
// Core abstractions live at the root level; backend-specific implementations
// live in sub-packages (memory, files, docstore, sql).
package gamestore

import (
	"context"
	"time"
)

// Record is the persisted unit every backend stores. The id is assigned by
// the backend and immutable afterwards; timestamps are owned by the backend
// and never trusted from caller input.
type Record struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	// Fields holds the record's declared field values. Supported kinds:
	// string, int64, float64, bool, time.Time, Enum, []any and nil.
	Fields map[string]any
}

// NewRecord creates an unsaved record with the given field values.
func NewRecord(fields map[string]any) *Record {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Record{Fields: fields}
}

// Field returns the value addressed by name. The managed metadata columns
// are reachable under "id", "created_at", "updated_at" and "deleted_at";
// everything else is looked up in Fields. Absent fields return nil.
func (r *Record) Field(name string) any {
	switch name {
	case "id":
		return r.ID
	case "created_at":
		return r.CreatedAt
	case "updated_at":
		return r.UpdatedAt
	case "deleted_at":
		if r.DeletedAt == nil {
			return nil
		}
		return *r.DeletedAt
	}
	return r.Fields[name]
}

// Clone returns a deep copy so callers can't mutate stored state.
func (r *Record) Clone() *Record {
	dup := *r
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		dup.DeletedAt = &t
	}
	dup.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		if list, ok := v.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			dup.Fields[k] = cp
			continue
		}
		dup.Fields[k] = v
	}
	return &dup
}

// Repository defines the storage-agnostic contract every backend implements.
// It is the sole interface exposed to business-logic collaborators; callers
// must not depend on backend-specific error types.
type Repository interface {
	// Name returns the entity name this repository manages.
	Name() string

	// Create persists a new record, assigning its id and timestamps.
	// Caller-supplied ids are rejected with a validation error.
	Create(ctx context.Context, rec *Record) (*Record, error)

	// Update merges patch onto the existing record and bumps updated_at.
	// A missing id fails with a NotFoundError.
	Update(ctx context.Context, id int64, patch map[string]any) (*Record, error)

	// Delete removes a record. Soft deletion sets deleted_at instead of
	// removing. Returns false, never an error, when the id is absent.
	Delete(ctx context.Context, id int64, soft bool) (bool, error)

	// GetByID returns the record, or (nil, nil) when the id is absent.
	GetByID(ctx context.Context, id int64) (*Record, error)

	// GetManyByIDs returns the records found for the given ids. Result
	// order need not match input order.
	GetManyByIDs(ctx context.Context, ids []int64) ([]*Record, error)

	// ListAll returns every stored record in ascending id order.
	ListAll(ctx context.Context) ([]*Record, error)

	// Exists reports whether any record matches the filter.
	Exists(ctx context.Context, f Filter) (bool, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, f Filter) (int64, error)

	// Find returns the filtered, ordered, paginated result set.
	Find(ctx context.Context, f Filter, opts ...FindOption) (*Page, error)

	// Atomic executes fn within a scoped unit of work: when fn fails,
	// state mutated inside the scope is rolled back to the extent the
	// backend supports (see each backend for the strength of the
	// guarantee).
	Atomic(ctx context.Context, fn func(context.Context) error) error
}

// FindOptions holds the ordering and pagination parameters of a Find call.
type FindOptions struct {
	OrderBy    string
	Descending bool
	Limit      int // negative means unlimited
	Offset     int
	Cursor     string
}

// FindOption configures a Find call.
type FindOption func(*FindOptions)

// NewFindOptions applies opts over the defaults (no ordering, no limit).
func NewFindOptions(opts ...FindOption) FindOptions {
	o := FindOptions{Limit: -1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// OrderBy sorts the result set by the named field. Records whose order
// field is absent or nil are dropped from the result.
func OrderBy(field string) FindOption {
	return func(o *FindOptions) { o.OrderBy = field }
}

// Descending reverses the sort direction.
func Descending() FindOption {
	return func(o *FindOptions) { o.Descending = true }
}

// Limit caps the number of returned items.
func Limit(n int) FindOption {
	return func(o *FindOptions) { o.Limit = n }
}

// Offset skips the first n matching items.
func Offset(n int) FindOption {
	return func(o *FindOptions) { o.Offset = n }
}

// After resumes forward pagination from an opaque cursor token returned in
// a previous Page.
func After(cursor string) FindOption {
	return func(o *FindOptions) { o.Cursor = cursor }
}

// Now returns the UTC timestamp backends stamp onto records.
func Now() time.Time {
	return time.Now().UTC()
}
