package gitstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIsTracked(t *testing.T) {
	dir := t.TempDir()
	if IsTracked(dir) {
		t.Error("empty directory reported as tracked")
	}
	if err := Init(dir, "test", "test@test.com"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !IsTracked(dir) {
		t.Error("initialized directory not reported as tracked")
	}
}

func TestIsTrackedIgnoresParentRepo(t *testing.T) {
	parent := t.TempDir()
	if err := Init(parent, "test", "test@test.com"); err != nil {
		t.Fatalf("init parent: %v", err)
	}
	child := filepath.Join(parent, "content")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("mkdir child: %v", err)
	}
	if IsTracked(child) {
		t.Error("subdirectory of a repo reported as tracked")
	}
}

func TestCommitIfTrackedUntrackedIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "recipes/data/a/recipe.json", "{}")
	r := NewRecorder(dir, "test", "test@test.com")
	if err := r.CommitIfTracked(context.Background(), "Add new recipe: a", Author{}); err != nil {
		t.Errorf("untracked commit should be a silent no-op, got %v", err)
	}
}

func TestCommitRecordsChangeWithAuthor(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "default", "default@test.com"); err != nil {
		t.Fatalf("init: %v", err)
	}
	writeFile(t, dir, "recipes/data/a/recipe.json", "{}")

	r := NewRecorder(dir, "default", "default@test.com")
	author := Author{Name: "Editor", Email: "editor@test.com"}
	if err := r.CommitIfTracked(context.Background(), "Add new recipe: a", author); err != nil {
		t.Fatalf("commit: %v", err)
	}

	commits, err := r.Log(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("commit count = %d, want 1", len(commits))
	}
	c := commits[0]
	if c.Message != "Add new recipe: a" {
		t.Errorf("message = %q", c.Message)
	}
	if c.Author != "Editor" || c.Email != "editor@test.com" {
		t.Errorf("author = %s <%s>, want Editor <editor@test.com>", c.Author, c.Email)
	}
}

func TestCommitCleanTreeIsNoOp(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "test", "test@test.com"); err != nil {
		t.Fatalf("init: %v", err)
	}
	writeFile(t, dir, "a.json", "{}")
	r := NewRecorder(dir, "test", "test@test.com")
	if err := r.Commit(context.Background(), "first", Author{}); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	// Nothing changed; the second commit must not fail or add history.
	if err := r.Commit(context.Background(), "second", Author{}); err != nil {
		t.Fatalf("clean-tree commit: %v", err)
	}
	commits, err := r.Log(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 1 {
		t.Errorf("commit count = %d, want 1", len(commits))
	}
}

func TestLogScopedToPath(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "test", "test@test.com"); err != nil {
		t.Fatalf("init: %v", err)
	}
	r := NewRecorder(dir, "test", "test@test.com")

	writeFile(t, dir, "recipes/data/a/recipe.json", "{}")
	if err := r.Commit(context.Background(), "Add new recipe: a", Author{}); err != nil {
		t.Fatalf("commit a: %v", err)
	}
	writeFile(t, dir, "notes/data/n/note.json", "{}")
	if err := r.Commit(context.Background(), "Add new note: n", Author{}); err != nil {
		t.Fatalf("commit n: %v", err)
	}

	commits, err := r.Log(context.Background(), "recipes/data/a/recipe.json", 10)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(commits) != 1 || commits[0].Message != "Add new recipe: a" {
		t.Errorf("scoped log = %+v, want only the recipe commit", commits)
	}
}

func TestInitExistingRepoIsNoOp(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "test", "test@test.com"); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := Init(dir, "other", "other@test.com"); err != nil {
		t.Errorf("second init: %v", err)
	}
}
