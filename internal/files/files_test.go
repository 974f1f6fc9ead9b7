package files

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testLayout(t *testing.T) Layout {
	t.Helper()
	dir := t.TempDir()
	return Layout{
		DataDir:    filepath.Join(dir, "recipes", "data"),
		UploadsDir: filepath.Join(dir, "uploads", "recipe"),
		Filename:   "recipe.json",
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	l := testLayout(t)
	doc := map[string]any{
		"name": "Chocolate Cake",
		"date": float64(1700000000000),
		"tags": []any{"dessert", "baking"},
	}
	if err := l.Write("choc-cake", doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := l.Read("choc-cake")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteIsPrettyPrinted(t *testing.T) {
	l := testLayout(t)
	if err := l.Write("a", map[string]any{"name": "A"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(l.DocPath("a"))
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	want := "{\n  \"name\": \"A\"\n}\n"
	if string(data) != want {
		t.Errorf("raw document = %q, want %q", data, want)
	}
}

func TestReadNotFound(t *testing.T) {
	l := testLayout(t)
	_, err := l.Read("missing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestDeleteRemovesBothDirectories(t *testing.T) {
	l := testLayout(t)
	if err := l.Write("a", map[string]any{"name": "A"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	uploadFile := filepath.Join(l.UploadsDir, "a", "uploads", "photo.png")
	if err := os.MkdirAll(filepath.Dir(uploadFile), 0o755); err != nil {
		t.Fatalf("mkdir uploads: %v", err)
	}
	if err := os.WriteFile(uploadFile, []byte("png"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}

	if err := l.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(l.DataDir, "a")); !os.IsNotExist(err) {
		t.Error("data directory still exists")
	}
	if _, err := os.Stat(filepath.Join(l.UploadsDir, "a")); !os.IsNotExist(err) {
		t.Error("uploads directory still exists")
	}
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	l := testLayout(t)
	if err := l.Delete("never-existed"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

func TestRenameMovesDataAndUploads(t *testing.T) {
	l := testLayout(t)
	if err := l.Write("old", map[string]any{"name": "A"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	uploadFile := filepath.Join(l.UploadsDir, "old", "uploads", "photo.png")
	if err := os.MkdirAll(filepath.Dir(uploadFile), 0o755); err != nil {
		t.Fatalf("mkdir uploads: %v", err)
	}
	if err := os.WriteFile(uploadFile, []byte("png"), 0o644); err != nil {
		t.Fatalf("write upload: %v", err)
	}

	if err := l.Rename("old", "new"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := l.Read("new"); err != nil {
		t.Errorf("document not readable at new slug: %v", err)
	}
	if _, err := l.Read("old"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("document still readable at old slug, err = %v", err)
	}
	moved := filepath.Join(l.UploadsDir, "new", "uploads", "photo.png")
	if _, err := os.Stat(moved); err != nil {
		t.Errorf("upload not relocated: %v", err)
	}
}

func TestRenameMissingSourceIsNoOp(t *testing.T) {
	l := testLayout(t)
	if err := l.Rename("ghost", "new"); err != nil {
		t.Errorf("rename missing source: %v", err)
	}
}

func TestSlugs(t *testing.T) {
	l := testLayout(t)
	// Missing data directory yields an empty list.
	slugs, err := l.Slugs()
	if err != nil {
		t.Fatalf("slugs on missing dir: %v", err)
	}
	if len(slugs) != 0 {
		t.Errorf("slugs = %v, want empty", slugs)
	}

	for _, slug := range []string{"b", "a"} {
		if err := l.Write(slug, map[string]any{"name": slug}); err != nil {
			t.Fatalf("write %s: %v", slug, err)
		}
	}
	// A stray file in the data directory is not a slug.
	if err := os.WriteFile(filepath.Join(l.DataDir, "README"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	slugs, err = l.Slugs()
	if err != nil {
		t.Fatalf("slugs: %v", err)
	}
	slices.Sort(slugs)
	if want := []string{"a", "b"}; !slices.Equal(slugs, want) {
		t.Errorf("slugs = %v, want %v", slugs, want)
	}
}
