package gamestore

import (
	"sort"
	"strconv"
)

// Page is one slice of a result set plus the information needed to fetch
// the next slice.
type Page struct {
	Items      []*Record
	Total      int64
	HasNext    bool
	NextCursor string
}

// FormatCursor encodes a record id as an opaque page cursor.
func FormatCursor(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseCursor decodes a page cursor back to the record id it points at.
func ParseCursor(cursor string) (int64, error) {
	id, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		return 0, NewInvalidCursorError(cursor)
	}
	return id, nil
}

// Paginate applies ordering, cursor positioning, offset and limit to an
// already-filtered result set. Every backend funnels matches through this
// one pipeline so page boundaries agree regardless of where the rows came
// from.
//
// Ordering drops records whose order field is nil before sorting, matching
// relational NULL exclusion. The cursor names the last record of the
// previous page; a cursor that no longer matches yields an empty page
// rather than an error, since the record may have been deleted between
// requests.
func Paginate(items []*Record, opts FindOptions) (*Page, error) {
	if opts.OrderBy != "" {
		kept := items[:0:0]
		for _, rec := range items {
			if !isNullValue(rec.Field(opts.OrderBy)) {
				kept = append(kept, rec)
			}
		}
		items = kept
		sort.SliceStable(items, func(i, j int) bool {
			a := items[i].Field(opts.OrderBy)
			b := items[j].Field(opts.OrderBy)
			cmp, ok := compare(a, b)
			if !ok {
				return false
			}
			if opts.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if opts.Cursor != "" {
		after, err := ParseCursor(opts.Cursor)
		if err != nil {
			return nil, err
		}
		at := -1
		for i, rec := range items {
			if rec.ID == after {
				at = i
				break
			}
		}
		if at < 0 {
			items = nil
		} else {
			items = items[at+1:]
		}
	}

	total := int64(len(items))
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			items = nil
		} else {
			items = items[opts.Offset:]
		}
	}

	hasNext := false
	if opts.Limit >= 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
		hasNext = true
	}

	page := &Page{Items: items, Total: total, HasNext: hasNext}
	if hasNext && len(items) > 0 {
		page.NextCursor = FormatCursor(items[len(items)-1].ID)
	}
	return page, nil
}
