package content

import (
	"context"
	"slices"

	"github.com/rogermparent/content-engine/internal/index"
)

// Read returns the full document for slug. A missing item surfaces as an
// error matching fs.ErrNotExist.
func (e *Engine) Read(_ context.Context, cfg *Config, slug string) (Document, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg.layout(e.contentDir).Read(slug)
}

// IndexQuery bounds a paginated index read. The zero value lists everything
// newest-first.
type IndexQuery struct {
	// Limit caps the page size; 0 means no limit.
	Limit int
	// Offset skips that many entries.
	Offset int
	// OldestFirst flips the default newest-first order.
	OldestFirst bool
}

// IndexPage is one page of index entries.
type IndexPage struct {
	Entries []index.Entry `json:"entries"`
	// Total is the number of entries in the whole index.
	Total int `json:"total"`
	// More reports whether entries exist past this page. Total and the page
	// are two reads under one index handle, not one snapshot; a concurrent
	// writer in another process can make More off by one.
	More bool `json:"more"`
}

// ReadIndex returns one page of the content type's index, newest-first by
// default.
func (e *Engine) ReadIndex(_ context.Context, cfg *Config, q IndexQuery) (IndexPage, error) {
	if err := cfg.validate(); err != nil {
		return IndexPage{}, err
	}
	var page IndexPage
	err := e.withIndex(cfg, func(db *index.DB) error {
		page.Entries = slices.Collect(db.Range(index.RangeOptions{
			Limit:   q.Limit,
			Offset:  q.Offset,
			Reverse: !q.OldestFirst,
		}))
		page.Total = db.Count()
		page.More = q.Limit > 0 && q.Offset+q.Limit < page.Total
		return nil
	})
	if err != nil {
		return IndexPage{}, err
	}
	return page, nil
}
