package content

import (
	"context"
	"log/slog"
)

// MigrateFunc transforms a document during a data migration. Returning nil
// leaves the item untouched.
type MigrateFunc func(doc Document) Document

// MigrateData applies fn to every document of the content type, overwriting
// items for which fn returns a non-nil result. This is a raw schema-migration
// utility: it touches neither the index nor git history (run RebuildIndex and
// commit separately once the shapes are settled).
//
// Per-item failures are accumulated and logged, not propagated.
func (e *Engine) MigrateData(_ context.Context, cfg *Config, fn MigrateFunc) ([]ItemError, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	layout := cfg.layout(e.contentDir)
	slugs, err := layout.Slugs()
	if err != nil {
		return nil, err
	}

	var itemErrs []ItemError
	for _, slug := range slugs {
		doc, err := layout.Read(slug)
		if err == nil {
			migrated := fn(doc)
			if migrated == nil {
				continue
			}
			err = layout.Write(slug, migrated)
		}
		if err != nil {
			slog.Warn("failed to migrate item", "type", cfg.ContentType, "slug", slug, "error", err)
			itemErrs = append(itemErrs, ItemError{Slug: slug, Err: err})
		}
	}
	return itemErrs, nil
}
