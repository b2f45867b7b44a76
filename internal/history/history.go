// Package history keeps document revisions in a local git repository, so
// every saved state of a document can be inspected or recovered later.
package history

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	authorName  = "scsv"
	authorEmail = "scsv@localhost"
)

// Store is a git repository holding a directory of documents.
type Store struct {
	dir  string
	repo *gogit.Repository
	mu   sync.Mutex
}

// Open opens the repository at dir, initializing one on first use.
func Open(dir string) (*Store, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("init repository: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("read repository config: %w", err)
		}
		cfg.User.Name = authorName
		cfg.User.Email = authorEmail
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("write repository config: %w", err)
		}
	}
	return &Store{dir: dir, repo: repo}, nil
}

// Dir returns the repository's working directory.
func (s *Store) Dir() string {
	return s.dir
}

// Commit stages the document at relPath and records a commit. A save that
// changed nothing records nothing.
func (s *Store) Commit(relPath, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if _, err := w.Add(relPath); err != nil {
		return fmt.Errorf("stage %s: %w", relPath, err)
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	now := time.Now()
	_, err = w.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: now},
	})
	if err != nil {
		return fmt.Errorf("commit %s: %w", relPath, err)
	}
	return nil
}

// Commit describes one recorded revision.
type Commit struct {
	Hash    string    `json:"hash"`
	Subject string    `json:"subject"`
	Body    string    `json:"body,omitempty"`
	Author  string    `json:"author"`
	When    time.Time `json:"when"`
}

// Log returns up to n commits touching relPath, newest first. A repository
// without commits yields an empty log.
func (s *Store) Log(relPath string, n int) ([]Commit, error) {
	if n <= 0 || n > 1000 {
		n = 1000
	}
	opts := &gogit.LogOptions{}
	if relPath != "" && relPath != "." {
		opts.FileName = &relPath
	}
	iter, err := s.repo.Log(opts)
	if err != nil {
		return nil, nil
	}
	defer iter.Close()

	var commits []Commit
	for range n {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, body, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, Commit{
			Hash:    c.Hash.String(),
			Subject: subject,
			Body:    strings.TrimSpace(body),
			Author:  c.Author.Name,
			When:    c.Author.When,
		})
	}
	return commits, nil
}

// FileAt returns the document content at a commit. Hash "HEAD" resolves to
// the current head.
func (s *Store) FileAt(hash, relPath string) ([]byte, error) {
	h := plumbing.NewHash(hash)
	if hash == "HEAD" {
		ref, err := s.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("resolve HEAD: %w", err)
		}
		h = ref.Hash()
	}
	c, err := s.repo.CommitObject(h)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", hash, err)
	}
	f, err := c.File(relPath)
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", relPath, hash, err)
	}
	r, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("open %s at %s: %w", relPath, hash, err)
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
