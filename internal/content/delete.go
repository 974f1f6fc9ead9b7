package content

import (
	"context"
	"fmt"

	"github.com/rogermparent/content-engine/internal/index"
)

// Delete removes a content item: its data and uploads directories, its index
// entry, and commits the removal when the content directory is tracked.
func (e *Engine) Delete(ctx context.Context, cfg *Config, slug string, key index.Key, opt MutateOptions) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if slug == "" {
		return ErrSlugRequired
	}
	op := newOperation(cfg.ContentType, "delete", slug)

	op.stage("files")
	if err := cfg.layout(e.contentDir).Delete(slug); err != nil {
		return err
	}

	op.stage("index")
	err := e.withIndex(cfg, func(db *index.DB) error {
		if err := db.Remove(key); err != nil {
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
		msg = fmt.Sprintf("Delete %s: %s", cfg.ContentType, slug)
	}
	return e.recorder.CommitIfTracked(ctx, msg, opt.Author)
}
