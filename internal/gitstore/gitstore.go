// Package gitstore records content mutations as git commits.
//
// Recording is opt-in per content directory: only directories with a .git
// entry directly under them are tracked, and CommitIfTracked is a silent
// no-op everywhere else. The same application code therefore runs with or
// without versioning.
package gitstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Author identifies who made a change. Zero fields fall back to the
// recorder's defaults.
type Author struct {
	Name  string
	Email string
}

// Commit is one entry of content history.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"` // Subject line.
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	Date    time.Time `json:"date"`
}

// IsTracked reports whether contentDir is itself a git repository root.
// A .git entry in a parent directory does not count: versioning is scoped to
// the content directory, not whatever project happens to contain it.
func IsTracked(contentDir string) bool {
	info, err := os.Stat(filepath.Join(contentDir, ".git"))
	return err == nil && info.IsDir()
}

// Recorder commits working-tree changes under one content directory.
type Recorder struct {
	dir          string
	defaultName  string
	defaultEmail string
}

// NewRecorder creates a recorder for contentDir with a default identity used
// when a mutation carries no author.
func NewRecorder(contentDir, defaultName, defaultEmail string) *Recorder {
	if defaultName == "" {
		defaultName = "content-engine"
	}
	if defaultEmail == "" {
		defaultEmail = "content-engine@localhost"
	}
	return &Recorder{dir: contentDir, defaultName: defaultName, defaultEmail: defaultEmail}
}

// Dir returns the content directory the recorder operates on.
func (r *Recorder) Dir() string {
	return r.dir
}

// Commit stages every working-tree change and commits with the given
// message. A clean tree is a no-op. The commit is attributed to author when
// supplied, with the recorder's identity as committer.
func (r *Recorder) Commit(ctx context.Context, message string, author Author) error {
	// Detach from any request context but keep a timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Minute)
	defer cancel()
	_ = ctx // go-git worktree operations do not take a context.

	repo, err := gogit.PlainOpen(r.dir)
	if err != nil {
		return fmt.Errorf("failed to open git repo at %s: %w", r.dir, err)
	}
	w, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := w.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	name := author.Name
	email := author.Email
	if name == "" {
		name = r.defaultName
	}
	if email == "" {
		email = r.defaultEmail
	}
	now := time.Now()
	if _, err := w.Commit(message, &gogit.CommitOptions{
		Author:    &object.Signature{Name: name, Email: email, When: now},
		Committer: &object.Signature{Name: r.defaultName, Email: r.defaultEmail, When: now},
	}); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	return nil
}

// CommitIfTracked commits only when the content directory is git-tracked;
// otherwise it does nothing and reports no error.
func (r *Recorder) CommitIfTracked(ctx context.Context, message string, author Author) error {
	if !IsTracked(r.dir) {
		return nil
	}
	return r.Commit(ctx, message, author)
}

// Log returns up to n commits touching path (relative to the content
// directory; empty or "." means the whole tree), newest first. n is capped
// at 1000.
func (r *Recorder) Log(_ context.Context, path string, n int) ([]Commit, error) {
	if n <= 0 || n > 1000 {
		n = 1000
	}
	repo, err := gogit.PlainOpen(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repo at %s: %w", r.dir, err)
	}
	opts := &gogit.LogOptions{}
	if path != "" && path != "." {
		opts.FileName = &path
	}
	it, err := repo.Log(opts)
	if err != nil {
		return nil, nil // No commits yet is not an error.
	}
	defer it.Close()

	var commits []Commit
	for range n {
		c, err := it.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			Date:    c.Author.When,
		})
	}
	return commits, nil
}

// Init initializes a git repository at contentDir with the given identity,
// opting the directory into change recording. Opening an existing repository
// is not an error.
func Init(contentDir, name, email string) error {
	if _, err := gogit.PlainOpen(contentDir); err == nil {
		return nil
	}
	repo, err := gogit.PlainInit(contentDir, false)
	if err != nil {
		return fmt.Errorf("failed to initialize git repo: %w", err)
	}
	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read git config: %w", err)
	}
	if name == "" {
		name = "content-engine"
	}
	if email == "" {
		email = "content-engine@localhost"
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write git config: %w", err)
	}
	return nil
}
