// Package files is the filesystem store: one JSON document per item in a
// directory named after the item's slug, with a sibling uploads tree.
//
// The filesystem is the source of truth for the content engine; the index is
// derived from it and rebuildable at any time.
package files

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Layout locates one content type's documents and uploads on disk.
// All paths are absolute.
type Layout struct {
	// DataDir holds one subdirectory per slug.
	DataDir string
	// UploadsDir holds one subdirectory per slug with that item's files.
	UploadsDir string
	// Filename is the JSON document name inside each slug directory.
	Filename string
}

// DocPath returns the document path for slug.
func (l Layout) DocPath(slug string) string {
	return filepath.Join(l.DataDir, slug, l.Filename)
}

// Write serializes doc as pretty-printed JSON to the slug's document path,
// creating the directory as needed. Overwrites unconditionally.
func (l Layout) Write(slug string, doc map[string]any) error {
	dir := filepath.Join(l.DataDir, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for content directories
		return fmt.Errorf("failed to create item directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", slug, err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(l.DocPath(slug), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write document %s: %w", slug, err)
	}
	return nil
}

// Read parses the slug's JSON document. A missing document surfaces as an
// error matching fs.ErrNotExist so callers can map it to not-found handling.
func (l Layout) Read(slug string) (map[string]any, error) {
	data, err := os.ReadFile(l.DocPath(slug)) //nolint:gosec // G304: path is derived from engine config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document %s: %w", slug, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", slug, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", slug, err)
	}
	return doc, nil
}

// Delete removes the slug's data directory and uploads directory. The two
// removals are independent: a failure on one is recorded but does not stop
// the other.
func (l Layout) Delete(slug string) error {
	var firstErr error
	for _, dir := range []string{filepath.Join(l.DataDir, slug), filepath.Join(l.UploadsDir, slug)} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return firstErr
}

// Rename moves the data directory and, if present, the uploads directory from
// oldSlug to newSlug. A missing source directory is a silent no-op. The two
// renames are not atomic as a pair; a crash between them leaves the document
// and its uploads under different slugs, repaired by the next rename or
// delete.
func (l Layout) Rename(oldSlug, newSlug string) error {
	for _, dir := range []string{l.DataDir, l.UploadsDir} {
		oldPath := filepath.Join(dir, oldSlug)
		if _, err := os.Stat(oldPath); err != nil {
			continue
		}
		newPath := filepath.Join(dir, newSlug)
		if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for content directories
			return fmt.Errorf("failed to create parent for %s: %w", newPath, err)
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
		}
	}
	return nil
}

// Slugs lists the immediate subdirectories of the data directory, one per
// item. A missing data directory yields an empty list.
func (l Layout) Slugs() ([]string, error) {
	entries, err := os.ReadDir(l.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}
	var slugs []string
	for _, e := range entries {
		if e.IsDir() {
			slugs = append(slugs, e.Name())
		}
	}
	return slugs, nil
}
