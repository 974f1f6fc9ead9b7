// Package uploads reconciles an item's desired upload state from form-level
// inputs and materializes the result on disk.
//
// Each named upload field resolves from four inputs, in strict priority
// order: a new file, an explicit clear, an import-from-URL, or a carry-over
// of the existing filename. Files live under
// <uploadsDir>/<slug>/uploads/<fileName>; the owning document records only
// the filename.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

var (
	errImportStatus = errors.New("upload import returned non-OK status")
	errImportURL    = errors.New("invalid upload import URL")
)

// FileUpload is an incoming file: a named byte stream of known size.
type FileUpload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Request is the desired state for one upload field.
type Request struct {
	// File is a newly uploaded file, if any. Empty files are ignored.
	File *FileUpload
	// ClearFile removes the upload when no new file is supplied.
	ClearFile bool
	// ImportURL fetches the upload from a remote URL.
	ImportURL string
	// ExistingFile is the filename currently recorded in the document.
	ExistingFile string
}

// Resolved describes the upload that will exist after Apply. A nil Resolved
// means the field ends up with no upload.
type Resolved struct {
	// FileName is the name the upload will have.
	FileName string

	file      *FileUpload
	importURL string
}

// Resolve decides the resulting upload state for req.
func Resolve(req Request) (*Resolved, error) {
	switch {
	case req.File != nil && req.File.Size != 0:
		return &Resolved{FileName: req.File.Name, file: req.File}, nil
	case req.ClearFile:
		return nil, nil
	case req.ImportURL != "":
		u, err := url.Parse(req.ImportURL)
		if err != nil || u.Path == "" || u.Path == "/" {
			return nil, fmt.Errorf("%w: %q", errImportURL, req.ImportURL)
		}
		return &Resolved{FileName: path.Base(u.Path), importURL: req.ImportURL}, nil
	case req.ExistingFile != "":
		return &Resolved{FileName: req.ExistingFile}, nil
	default:
		return nil, nil
	}
}

// Store writes and removes upload files for one content type.
type Store struct {
	// Dir is the content type's uploads directory; files go under
	// Dir/<slug>/uploads/.
	Dir string
	// Client performs import fetches. Defaults to http.DefaultClient.
	Client *http.Client
}

// FilePath returns where fileName lives for the given slug.
func (s *Store) FilePath(slug, fileName string) string {
	return filepath.Join(s.Dir, slug, "uploads", fileName)
}

// Apply resolves req and applies it at the given slug, returning the filename
// now recorded for the field ("" when the field has no upload).
//
// New bytes are written before the previously recorded file is removed, so a
// failure mid-apply keeps the old file intact; the old file is only removed
// once the replacement exists (or on an explicit clear). A stale extra file
// from a crash between the two steps is cleaned up by the next apply.
func (s *Store) Apply(ctx context.Context, slug string, req Request) (string, error) {
	res, err := Resolve(req)
	if err != nil {
		return "", err
	}

	if res == nil {
		// Explicit clear, or nothing to do.
		if req.ClearFile && req.ExistingFile != "" {
			if err := s.remove(slug, req.ExistingFile); err != nil {
				return "", err
			}
		}
		return "", nil
	}

	switch {
	case res.file != nil:
		if err := s.write(slug, res.FileName, res.file.Reader); err != nil {
			return "", err
		}
	case res.importURL != "":
		if err := s.fetch(ctx, slug, res.FileName, res.importURL); err != nil {
			return "", err
		}
	default:
		// Carry-over: nothing to write, nothing to remove.
		return res.FileName, nil
	}

	if req.ExistingFile != "" && req.ExistingFile != res.FileName {
		if err := s.remove(slug, req.ExistingFile); err != nil {
			return "", err
		}
	}
	return res.FileName, nil
}

func (s *Store) write(slug, fileName string, r io.Reader) error {
	dest := s.FilePath(slug, fileName)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for content directories
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	f, err := os.Create(dest) //nolint:gosec // G304: path is derived from engine config
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write upload %s: %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish upload %s: %w", fileName, err)
	}
	return nil
}

func (s *Store) fetch(ctx context.Context, slug, fileName, importURL string) error {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, importURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", errImportURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch upload from %s: %w", importURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s from %s", errImportStatus, resp.Status, importURL)
	}
	return s.write(slug, fileName, resp.Body)
}

func (s *Store) remove(slug, fileName string) error {
	err := os.Remove(s.FilePath(slug, fileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old upload %s: %w", fileName, err)
	}
	return nil
}
