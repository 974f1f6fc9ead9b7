package content

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rogermparent/content-engine/internal/files"
	"github.com/rogermparent/content-engine/internal/index"
)

// ErrReferenceSpecInvalid marks a ReferenceSpec with neither an index field
// nor a data field.
var ErrReferenceSpecInvalid = errors.New("reference spec needs an index field or data field")

// ReferenceUpdateResult reports the cascade outcome for one referring
// content type.
type ReferenceUpdateResult struct {
	ContentType  string      `json:"contentType"`
	UpdatedCount int         `json:"updatedCount"`
	UpdatedSlugs []string    `json:"updatedSlugs"`
	Errors       []ItemError `json:"errors,omitempty"`
}

// UpdateReferences rewrites slug references after a rename: every record of
// the given referring types whose reference field equals oldSlug is rewritten
// to newSlug, in both its document and its index entry.
//
// It runs strictly after the renamed item's own update has been applied. The
// cascade is partial-failure-tolerant: per-entry errors are accumulated in
// the result for that spec and the remaining entries (and specs) still run.
func (e *Engine) UpdateReferences(ctx context.Context, oldSlug, newSlug string, specs []ReferenceSpec) []ReferenceUpdateResult {
	results := make([]ReferenceUpdateResult, 0, len(specs))
	for _, spec := range specs {
		results = append(results, e.updateReferencesFor(ctx, oldSlug, newSlug, spec))
	}
	return results
}

func (e *Engine) updateReferencesFor(ctx context.Context, oldSlug, newSlug string, spec ReferenceSpec) ReferenceUpdateResult {
	res := ReferenceUpdateResult{}
	if spec.Config != nil {
		res.ContentType = spec.Config.ContentType
	}
	if spec.Config == nil {
		res.Errors = append(res.Errors, ItemError{Err: errNoContentType})
		return res
	}
	if err := spec.Config.validate(); err != nil {
		res.Errors = append(res.Errors, ItemError{Err: err})
		return res
	}
	if spec.IndexField == "" && spec.DataField == "" {
		res.Errors = append(res.Errors, ItemError{Err: ErrReferenceSpecInvalid})
		return res
	}

	if spec.IndexField != "" {
		e.cascadeByIndex(ctx, oldSlug, newSlug, spec, &res)
	} else {
		e.cascadeByDataScan(ctx, oldSlug, newSlug, spec, &res)
	}
	for _, ie := range res.Errors {
		slog.Warn("reference cascade error",
			"type", res.ContentType, "slug", ie.Slug, "old", oldSlug, "new", newSlug, "error", ie.Err)
	}
	return res
}

// cascadeByIndex scans the referrer's index for entries whose IndexField
// equals oldSlug, then rewrites each matching item's document and index
// entry. The whole pass runs under a single index handle.
func (e *Engine) cascadeByIndex(_ context.Context, oldSlug, newSlug string, spec ReferenceSpec, res *ReferenceUpdateResult) {
	cfg := spec.Config
	layout := cfg.layout(e.contentDir)
	dataField := spec.DataField
	if dataField == "" {
		dataField = spec.IndexField
	}

	err := e.withIndex(cfg, func(db *index.DB) error {
		// Materialize matches before mutating the index under iteration.
		var matches []index.Entry
		for entry := range db.Range(index.RangeOptions{}) {
			if v, ok := entry.Value[spec.IndexField].(string); ok && v == oldSlug {
				matches = append(matches, entry)
			}
		}
		for _, entry := range matches {
			slug := entry.Key.Slug
			if err := e.rewriteReference(db, cfg, layout, slug, entry.Key, dataField, newSlug); err != nil {
				res.Errors = append(res.Errors, ItemError{Slug: slug, Err: err})
				continue
			}
			res.UpdatedSlugs = append(res.UpdatedSlugs, slug)
			res.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		res.Errors = append(res.Errors, ItemError{Err: err})
	}
}

// cascadeByDataScan reads every document of the referrer type looking for
// DataField == oldSlug. Used when the reference is not denormalized into the
// index value. Index updates for all matches are applied under one handle.
func (e *Engine) cascadeByDataScan(_ context.Context, oldSlug, newSlug string, spec ReferenceSpec, res *ReferenceUpdateResult) {
	cfg := spec.Config
	layout := cfg.layout(e.contentDir)

	slugs, err := layout.Slugs()
	if err != nil {
		res.Errors = append(res.Errors, ItemError{Err: err})
		return
	}

	type match struct {
		slug   string
		oldKey index.Key
	}
	var matches []match
	for _, slug := range slugs {
		doc, err := layout.Read(slug)
		if err != nil {
			res.Errors = append(res.Errors, ItemError{Slug: slug, Err: err})
			continue
		}
		if v, ok := doc[spec.DataField].(string); !ok || v != oldSlug {
			continue
		}
		matches = append(matches, match{slug: slug, oldKey: cfg.BuildIndexKey(slug, doc)})
	}
	if len(matches) == 0 {
		return
	}

	err = e.withIndex(cfg, func(db *index.DB) error {
		for _, m := range matches {
			if err := e.rewriteReference(db, cfg, layout, m.slug, m.oldKey, spec.DataField, newSlug); err != nil {
				res.Errors = append(res.Errors, ItemError{Slug: m.slug, Err: err})
				continue
			}
			res.UpdatedSlugs = append(res.UpdatedSlugs, m.slug)
			res.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		res.Errors = append(res.Errors, ItemError{Err: err})
	}
}

// rewriteReference points one referring item at the new slug: document field
// first, then its index entry (moved when the recomputed key differs).
func (e *Engine) rewriteReference(db *index.DB, cfg *Config, layout files.Layout, slug string, oldKey index.Key, dataField, newSlug string) error {
	doc, err := layout.Read(slug)
	if err != nil {
		return err
	}
	doc[dataField] = newSlug
	if err := layout.Write(slug, doc); err != nil {
		return err
	}
	newKey := cfg.BuildIndexKey(slug, doc)
	if newKey != oldKey {
		if err := db.Remove(oldKey); err != nil {
			return indexWriteError(cfg, err)
		}
	}
	if err := db.Put(index.Entry{Key: newKey, Value: cfg.BuildIndexValue(doc)}); err != nil {
		return indexWriteError(cfg, err)
	}
	return nil
}
