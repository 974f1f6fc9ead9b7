package content

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/rogermparent/content-engine/internal/index"
)

// Create writes a new content item: uploads first, then the document, then
// the index entry, then an optional git commit. It returns the slug the item
// was stored under (derived via the config's default-slug function when none
// is supplied).
//
// Stages are not transactional: a failure leaves earlier stages applied, to
// be repaired by a retry or RebuildIndex.
func (e *Engine) Create(ctx context.Context, cfg *Config, slug string, doc Document, opt MutateOptions) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}
	if slug == "" && cfg.CreateDefaultSlug != nil {
		slug = cfg.CreateDefaultSlug(doc)
	}
	if slug == "" {
		return "", ErrSlugRequired
	}
	op := newOperation(cfg.ContentType, "create", slug)

	op.stage("uploads")
	if err := e.applyUploads(ctx, cfg, slug, doc, opt); err != nil {
		return "", err
	}

	op.stage("write")
	if err := cfg.layout(e.contentDir).Write(slug, doc); err != nil {
		return "", err
	}

	op.stage("index")
	err := e.withIndex(cfg, func(db *index.DB) error {
		entry := index.Entry{Key: cfg.BuildIndexKey(slug, doc), Value: cfg.BuildIndexValue(doc)}
		if err := db.Put(entry); err != nil {
			return indexWriteError(cfg, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	op.stage("commit")
	msg := opt.CommitMessage
	if msg == "" {
		msg = fmt.Sprintf("Add new %s: %s", cfg.ContentType, slug)
	}
	if err := e.recorder.CommitIfTracked(ctx, msg, opt.Author); err != nil {
		return "", err
	}
	return slug, nil
}

// applyUploads materializes every requested upload at the given slug and
// records the resulting filenames in the document. Fields are processed in
// name order so repeated runs touch disk in a stable sequence.
func (e *Engine) applyUploads(ctx context.Context, cfg *Config, slug string, doc Document, opt MutateOptions) error {
	if len(opt.Uploads) == 0 {
		return nil
	}
	store := e.uploadsStore(cfg)
	for _, field := range slices.Sorted(maps.Keys(opt.Uploads)) {
		name, err := store.Apply(ctx, slug, opt.Uploads[field])
		if err != nil {
			return fmt.Errorf("upload %s: %w", field, err)
		}
		if name == "" {
			delete(doc, field)
		} else {
			doc[field] = name
		}
	}
	return nil
}
