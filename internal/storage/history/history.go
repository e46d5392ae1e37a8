// Records every change to the data directory as a git commit, using go-git so
// no git binary is needed.

package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MaxLog caps the number of commits returned by Repo.Log.
const MaxLog = 1000

// gitignore keeps secrets, blobs and in-flight temporary files out of history.
const gitignore = `config.json
config.yaml
config.yml
.env
images/
.*.tmp
`

// Commit describes one recorded change.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// Repo is a git repository rooted at the data directory.
type Repo struct {
	dir   string
	name  string
	email string
	repo  *gogit.Repository
	mu    sync.Mutex
}

// Open opens the repository at dir, initializing it with a .gitignore when
// absent. name and email sign the commits.
func Open(ctx context.Context, dir, name, email string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: data directories are world readable
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		if repo, err = gogit.PlainInit(dir, false); err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open git repo: %w", err)
	}
	r := &Repo{dir: dir, name: name, email: email, repo: repo}
	p := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(p); os.IsNotExist(err) {
		if err := os.WriteFile(p, []byte(gitignore), 0o644); err != nil { //nolint:gosec // G306: not a secret
			return nil, fmt.Errorf("failed to write .gitignore: %w", err)
		}
		if err := r.Commit(ctx, "initialize history", ".gitignore"); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Commit stages files, relative to the repository root, and commits them with
// msg. Nothing is committed when the files are unchanged.
func (r *Repo) Commit(ctx context.Context, msg string, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, f := range files {
		if _, err := w.Add(filepath.ToSlash(f)); err != nil {
			return fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if !hasStaged(status) {
		return nil
	}
	sig := &object.Signature{Name: r.name, Email: r.email, When: time.Now()}
	if _, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Log returns up to n commits touching path, newest first. An empty path
// means the whole repository. n is clamped to [1, MaxLog].
func (r *Repo) Log(ctx context.Context, path string, n int) ([]Commit, error) {
	if n <= 0 || n > MaxLog {
		n = MaxLog
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	opts := &gogit.LogOptions{}
	if path = strings.Trim(filepath.ToSlash(path), "/"); path != "" && path != "." {
		opts.FileName = &path
	}
	if _, err := r.repo.Head(); err != nil {
		return []Commit{}, nil
	}
	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()
	out := []Commit{}
	for len(out) < n {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		out = append(out, Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			Author:  c.Author.Name,
			Date:    c.Author.When,
		})
	}
	return out, nil
}

// hasStaged reports whether status has changes in the index. Untracked files
// don't count.
func hasStaged(status gogit.Status) bool {
	for _, fs := range status {
		if fs.Staging != gogit.Unmodified && fs.Staging != gogit.Untracked {
			return true
		}
	}
	return false
}
