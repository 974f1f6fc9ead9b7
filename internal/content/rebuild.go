package content

import (
	"context"
	"log/slog"

	"github.com/rogermparent/content-engine/internal/index"
)

// ItemError records a per-item failure inside a batch operation. Batch
// operations accumulate these instead of aborting so one corrupt item never
// blocks the rest.
type ItemError struct {
	Slug string
	Err  error
}

// RebuildIndex regenerates the content type's index from the data directory,
// the authoritative repair after any partial failure or out-of-band
// filesystem change (such as a git checkout swapping the working tree).
//
// The index is dropped, then every slug directory is read best-effort: items
// that fail to read, parse or index are returned in the ItemError slice and
// logged, and the rebuild continues.
func (e *Engine) RebuildIndex(_ context.Context, cfg *Config) ([]ItemError, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	layout := cfg.layout(e.contentDir)

	var itemErrs []ItemError
	err := e.withIndex(cfg, func(db *index.DB) error {
		if err := db.Drop(); err != nil {
			return indexWriteError(cfg, err)
		}
		slugs, err := layout.Slugs()
		if err != nil {
			return err
		}
		for _, slug := range slugs {
			doc, err := layout.Read(slug)
			if err == nil {
				entry := index.Entry{Key: cfg.BuildIndexKey(slug, doc), Value: cfg.BuildIndexValue(doc)}
				err = db.Put(entry)
			}
			if err != nil {
				slog.Warn("failed to reindex item", "type", cfg.ContentType, "slug", slug, "error", err)
				itemErrs = append(itemErrs, ItemError{Slug: slug, Err: err})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return itemErrs, nil
}
