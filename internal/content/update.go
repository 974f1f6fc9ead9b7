package content

import (
	"context"
	"fmt"

	"github.com/rogermparent/content-engine/internal/index"
)

// UpdateRequest identifies the item being updated and its replacement state.
type UpdateRequest struct {
	// Slug is the slug after the update; it may differ from CurrentSlug.
	Slug string
	// CurrentSlug is the slug the item is stored under right now.
	CurrentSlug string
	// CurrentKey is the item's current index key, removed when the new key
	// differs.
	CurrentKey index.Key
	// Data is the full replacement document.
	Data Document
}

// Update rewrites an existing content item. Uploads are applied at the
// current slug before any rename so existing-file lookups address the
// pre-rename paths; a slug change then renames the data and uploads
// directories, the document is written at its (possibly new) location, the
// index entry is moved, and the change is committed.
//
// A changed date with a stable slug still moves the index entry: any
// structural key difference takes the remove-then-put path.
func (e *Engine) Update(ctx context.Context, cfg *Config, req UpdateRequest, opt MutateOptions) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if req.Slug == "" || req.CurrentSlug == "" {
		return ErrSlugRequired
	}
	op := newOperation(cfg.ContentType, "update", req.Slug)
	layout := cfg.layout(e.contentDir)

	op.stage("uploads")
	if err := e.applyUploads(ctx, cfg, req.CurrentSlug, req.Data, opt); err != nil {
		return err
	}

	if req.Slug != req.CurrentSlug {
		op.stage("rename")
		if err := layout.Rename(req.CurrentSlug, req.Slug); err != nil {
			return err
		}
	}

	op.stage("write")
	if err := layout.Write(req.Slug, req.Data); err != nil {
		return err
	}

	op.stage("index")
	err := e.withIndex(cfg, func(db *index.DB) error {
		newKey := cfg.BuildIndexKey(req.Slug, req.Data)
		if newKey != req.CurrentKey {
			if err := db.Remove(req.CurrentKey); err != nil {
				return indexWriteError(cfg, err)
			}
		}
		if err := db.Put(index.Entry{Key: newKey, Value: cfg.BuildIndexValue(req.Data)}); err != nil {
			return indexWriteError(cfg, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	op.stage("commit")
	msg := opt.CommitMessage
	if msg == "" {
		msg = fmt.Sprintf("Update %s: %s", cfg.ContentType, req.Slug)
	}
	return e.recorder.CommitIfTracked(ctx, msg, opt.Author)
}
