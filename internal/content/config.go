// Package content orchestrates the filesystem store, the ordered index, the
// upload resolver and the git recorder under a per-content-type
// configuration.
//
// The filesystem is the source of truth. The index is a derived cache that
// RebuildIndex can regenerate from the data directory at any time, which is
// the repair procedure of record after any partial failure or out-of-band
// working-tree change. Operations are best-effort sequential: a failing stage
// surfaces immediately and earlier stages are not rolled back.
package content

import (
	"errors"
	"path"
	"path/filepath"

	"github.com/rogermparent/content-engine/internal/files"
	"github.com/rogermparent/content-engine/internal/index"
)

// Document is a content item: a JSON document of caller-defined shape. By
// convention it carries at least a "date" field in epoch milliseconds.
type Document = map[string]any

// Config describes one content type. It is pure data plus deterministic
// projection functions; a single engine serves any number of content types
// through values of this struct.
type Config struct {
	// ContentType names the type, e.g. "recipe".
	ContentType string

	// DataDirectory, IndexDirectory and UploadsDirectory are path segments
	// under the content root. UploadsDirectory defaults to
	// "uploads/<ContentType>".
	DataDirectory    string
	IndexDirectory   string
	UploadsDirectory string

	// DataFilename is the JSON document name inside each slug directory,
	// e.g. "recipe.json".
	DataFilename string

	// BuildIndexValue projects a document to the denormalized summary stored
	// in the index. It must be side-effect-free and never include large
	// fields; list views read only this value.
	BuildIndexValue func(doc Document) map[string]any

	// BuildIndexKey produces the ordered index key for a document,
	// conventionally {date, slug} so reverse scans are newest-first.
	BuildIndexKey func(slug string, doc Document) index.Key

	// CreateDefaultSlug derives a slug when the caller supplies none.
	// Optional.
	CreateDefaultSlug func(doc Document) string

	// ReferencedBy lists content types whose records hold a slug reference
	// to this type. Optional.
	ReferencedBy []ReferenceSpec
}

// ReferenceSpec describes one referring content type for the reference
// cascade. At least one of IndexField and DataField must be set.
type ReferenceSpec struct {
	// Config is the referring content type.
	Config *Config
	// IndexField is the index-value field holding the referenced slug.
	// When set, the cascade scans the referrer's index.
	IndexField string
	// DataField is the document field holding the referenced slug. Defaults
	// to IndexField. When it is the only field set, the cascade falls back
	// to scanning the referrer's data files.
	DataField string
}

var (
	errNoContentType    = errors.New("config needs a content type")
	errNoDataDirectory  = errors.New("config needs a data directory")
	errNoIndexDirectory = errors.New("config needs an index directory")
	errNoDataFilename   = errors.New("config needs a data filename")
	errNoIndexBuilders  = errors.New("config needs index key and value builders")
)

func (c *Config) validate() error {
	switch {
	case c == nil || c.ContentType == "":
		return errNoContentType
	case c.DataDirectory == "":
		return errNoDataDirectory
	case c.IndexDirectory == "":
		return errNoIndexDirectory
	case c.DataFilename == "":
		return errNoDataFilename
	case c.BuildIndexKey == nil || c.BuildIndexValue == nil:
		return errNoIndexBuilders
	}
	return nil
}

func (c *Config) uploadsDirectory() string {
	if c.UploadsDirectory != "" {
		return c.UploadsDirectory
	}
	return path.Join("uploads", c.ContentType)
}

func (c *Config) layout(contentDir string) files.Layout {
	return files.Layout{
		DataDir:    filepath.Join(contentDir, c.DataDirectory),
		UploadsDir: filepath.Join(contentDir, c.uploadsDirectory()),
		Filename:   c.DataFilename,
	}
}

func (c *Config) indexDir(contentDir string) string {
	return filepath.Join(contentDir, c.IndexDirectory)
}
