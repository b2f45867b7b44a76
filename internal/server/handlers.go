package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	scsv "github.com/7hebel/SuperCSV"
	"github.com/7hebel/SuperCSV/internal/history"
)

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest("BAD_REQUEST", "row index %q is not a number", s)
	}
	return i, nil
}

// HealthRequest is the request type for the health check (empty).
type HealthRequest struct{}

// HealthResponse is the response for the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports that the server is up.
func Health(_ context.Context, _ HealthRequest) (*HealthResponse, error) {
	return &HealthResponse{Status: "ok"}, nil
}

// DocumentRequest is the request type for document metadata (empty).
type DocumentRequest struct{}

// ColumnInfo names one column and its declared type.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DocumentResponse describes the served document.
type DocumentResponse struct {
	Path    string       `json:"path,omitempty"`
	Columns []ColumnInfo `json:"columns"`
	Rows    int          `json:"rows"`
}

// GetDocument returns the document's schema and size.
func (s *Server) GetDocument(_ context.Context, _ DocumentRequest) (*DocumentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.doc.Fields()
	columns := make([]ColumnInfo, 0, len(fields))
	for _, f := range fields {
		t, _ := s.doc.TypeOf(f)
		columns = append(columns, ColumnInfo{Name: f, Type: t.String()})
	}
	return &DocumentResponse{
		Path:    s.doc.Path(),
		Columns: columns,
		Rows:    s.doc.Len(),
	}, nil
}

// ListRowsRequest is the request type for listing rows (empty).
type ListRowsRequest struct{}

// ListRowsResponse carries every decoded row in document order.
type ListRowsResponse struct {
	Rows []scsv.Row `json:"rows"`
}

// ListRows returns all rows.
func (s *Server) ListRows(_ context.Context, _ ListRowsRequest) (*ListRowsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]scsv.Row, 0, s.doc.Len())
	for row, err := range s.doc.All() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &ListRowsResponse{Rows: rows}, nil
}

// GetRowRequest addresses a single row.
type GetRowRequest struct {
	Index string `path:"index"`
}

// RowResponse carries one decoded row and its position.
type RowResponse struct {
	Index int      `json:"index"`
	Row   scsv.Row `json:"row"`
}

// GetRow returns one row. A missing row is 404, not a document error.
func (s *Server) GetRow(_ context.Context, req GetRowRequest) (*RowResponse, error) {
	i, err := parseIndex(req.Index)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok, err := s.doc.Read(i)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("row %d does not exist", i)
	}
	return &RowResponse{Index: i, Row: row}, nil
}

// AppendRowRequest carries the column values of a new row.
type AppendRowRequest struct {
	Values map[string]scsv.JSON `json:"values"`
}

// AppendRow adds a row at the end of the document.
func (s *Server) AppendRow(ctx context.Context, req AppendRowRequest) (*RowResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.doc.RowFromJSON(req.Values)
	if err != nil {
		return nil, err
	}
	if err := s.doc.Append(row); err != nil {
		return nil, err
	}
	i := s.doc.Len() - 1
	stored, _, err := s.doc.Read(i)
	if err != nil {
		return nil, err
	}
	s.commit(ctx, fmt.Sprintf("append row %d", i))
	return &RowResponse{Index: i, Row: stored}, nil
}

// UpdateRowRequest carries new column values for an existing row.
type UpdateRowRequest struct {
	Index  string               `path:"index"`
	Values map[string]scsv.JSON `json:"values"`
}

// UpdateRow updates the given columns of a row and keeps the rest.
func (s *Server) UpdateRow(ctx context.Context, req UpdateRowRequest) (*RowResponse, error) {
	i, err := parseIndex(req.Index)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.doc.RowFromJSON(req.Values)
	if err != nil {
		return nil, err
	}
	if err := s.doc.UpdateRow(i, row); err != nil {
		return nil, err
	}
	stored, _, err := s.doc.Read(i)
	if err != nil {
		return nil, err
	}
	s.commit(ctx, fmt.Sprintf("update row %d", i))
	return &RowResponse{Index: i, Row: stored}, nil
}

// UpdateFieldRequest addresses one cell. The request body is the bare JSON
// value to store, not an object wrapping it.
type UpdateFieldRequest struct {
	Index  string `path:"index"`
	Column string `path:"column"`
	Value  scsv.JSON
}

func (r *UpdateFieldRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Value)
}

// UpdateField replaces one cell of a row.
func (s *Server) UpdateField(ctx context.Context, req UpdateFieldRequest) (*RowResponse, error) {
	i, err := parseIndex(req.Index)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.doc.RowFromJSON(map[string]scsv.JSON{req.Column: req.Value})
	if err != nil {
		return nil, err
	}
	if err := s.doc.UpdateField(i, req.Column, row[req.Column]); err != nil {
		return nil, err
	}
	stored, _, err := s.doc.Read(i)
	if err != nil {
		return nil, err
	}
	s.commit(ctx, fmt.Sprintf("update row %d, column %s", i, req.Column))
	return &RowResponse{Index: i, Row: stored}, nil
}

// DeleteRowRequest addresses the row to remove.
type DeleteRowRequest struct {
	Index string `path:"index"`
}

// DeleteRowResponse reports the removed row's former position.
type DeleteRowResponse struct {
	Deleted int `json:"deleted"`
}

// DeleteRow removes a row.
func (s *Server) DeleteRow(ctx context.Context, req DeleteRowRequest) (*DeleteRowResponse, error) {
	i, err := parseIndex(req.Index)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.doc.DeleteRow(i); err != nil {
		return nil, err
	}
	s.commit(ctx, fmt.Sprintf("delete row %d", i))
	return &DeleteRowResponse{Deleted: i}, nil
}

// LogRequest bounds how much history to return.
type LogRequest struct {
	N int `query:"n"`
}

// LogResponse lists recorded revisions, newest first.
type LogResponse struct {
	Commits []history.Commit `json:"commits"`
}

// GetLog returns the document's revision history.
func (s *Server) GetLog(_ context.Context, req LogRequest) (*LogResponse, error) {
	if s.hist == nil {
		return nil, notFound("history is not enabled")
	}
	s.mu.Lock()
	rel := filepath.Base(s.doc.Path())
	s.mu.Unlock()

	commits, err := s.hist.Log(rel, req.N)
	if err != nil {
		return nil, err
	}
	return &LogResponse{Commits: commits}, nil
}
