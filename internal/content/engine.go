package content

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maruel/ksid"
	"github.com/rogermparent/content-engine/internal/gitstore"
	"github.com/rogermparent/content-engine/internal/index"
	"github.com/rogermparent/content-engine/internal/uploads"
)

// ErrSlugRequired is returned by Create when no slug is supplied and the
// config has no default-slug function.
var ErrSlugRequired = errors.New("slug is required")

// Engine runs content operations against one content directory.
type Engine struct {
	contentDir string
	recorder   *gitstore.Recorder
	client     *http.Client
}

// New creates an engine rooted at contentDir. authorName and authorEmail are
// the fallback git identity for mutations that carry no author.
func New(contentDir, authorName, authorEmail string) *Engine {
	return &Engine{
		contentDir: contentDir,
		recorder:   gitstore.NewRecorder(contentDir, authorName, authorEmail),
	}
}

// SetClient sets the HTTP client used for upload imports. Defaults to
// http.DefaultClient.
func (e *Engine) SetClient(c *http.Client) {
	e.client = c
}

// ContentDir returns the engine's content root.
func (e *Engine) ContentDir() string {
	return e.contentDir
}

// Recorder returns the engine's git recorder.
func (e *Engine) Recorder() *gitstore.Recorder {
	return e.recorder
}

// MutateOptions carry the optional parts of a mutation.
type MutateOptions struct {
	// Author attributes the git commit; zero uses the engine default.
	Author gitstore.Author
	// CommitMessage overrides the conventional message.
	CommitMessage string
	// Uploads maps document field names to desired upload states.
	Uploads map[string]uploads.Request
}

// withIndex opens the content type's index, runs fn, and always releases the
// handle. The flock taken by Open deadlocks any follow-up open in the same
// process if a handle leaks, so every index access goes through here.
func (e *Engine) withIndex(cfg *Config, fn func(db *index.DB) error) error {
	db, err := index.Open(cfg.indexDir(e.contentDir))
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	return fn(db)
}

func (e *Engine) uploadsStore(cfg *Config) *uploads.Store {
	return &uploads.Store{Dir: cfg.layout(e.contentDir).UploadsDir, Client: e.client}
}

// indexWriteError wraps index put/remove failures as a domain error.
func indexWriteError(cfg *Config, err error) error {
	return fmt.Errorf("failed to write %s to index: %w", cfg.ContentType, err)
}

// operation journals the stages of one orchestrated mutation so partial
// failures can be traced to the stage that produced them.
type operation struct {
	id          string
	contentType string
	name        string
	slug        string
}

func newOperation(contentType, name, slug string) *operation {
	return &operation{
		id:          ksid.NewID().String(),
		contentType: contentType,
		name:        name,
		slug:        slug,
	}
}

func (o *operation) stage(stage string) {
	slog.Debug("content operation",
		"id", o.id, "type", o.contentType, "op", o.name, "slug", o.slug, "stage", stage)
}
