// Package server exposes a SuperCSV document over HTTP with a JSON API and
// an embedded viewer.
package server

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	scsv "github.com/7hebel/SuperCSV"
	"github.com/7hebel/SuperCSV/internal/history"
)

// Server serves one document. The document itself is not goroutine safe, so
// every handler goes through the server's mutex.
type Server struct {
	mu   sync.Mutex
	doc  *scsv.Document
	hist *history.Store
}

// New returns a server for doc. hist may be nil to serve without revision
// history.
func New(doc *scsv.Document, hist *history.Store) *Server {
	return &Server{doc: doc, hist: hist}
}

// Reload re-reads the document from disk, picking up writes made by other
// processes. In-memory documents cannot be reloaded.
func (s *Server) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.Path() == "" {
		return nil
	}
	d, err := scsv.Open(s.doc.Path())
	if err != nil {
		return err
	}
	s.doc = d
	return nil
}

// commit records the document's current state in history. History failures
// are logged, not returned; the data write already succeeded.
func (s *Server) commit(ctx context.Context, msg string) {
	if s.hist == nil || s.doc.Path() == "" {
		return
	}
	if err := s.hist.Commit(filepath.Base(s.doc.Path()), msg); err != nil {
		slog.WarnContext(ctx, "Failed to record history", "err", err)
	}
}
