package server

import (
	"net/http"

	"github.com/7hebel/SuperCSV/frontend"
)

// Router builds the HTTP handler: the JSON API under /api and the
// embedded viewer everywhere else.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/health", Wrap(Health))
	mux.Handle("GET /api/doc", Wrap(s.GetDocument))
	mux.Handle("GET /api/rows", Wrap(s.ListRows))
	mux.Handle("POST /api/rows", Wrap(s.AppendRow))
	mux.Handle("GET /api/rows/{index}", Wrap(s.GetRow))
	mux.Handle("PUT /api/rows/{index}", Wrap(s.UpdateRow))
	mux.Handle("PATCH /api/rows/{index}/{column}", Wrap(s.UpdateField))
	mux.Handle("DELETE /api/rows/{index}", Wrap(s.DeleteRow))
	mux.Handle("GET /api/log", Wrap(s.GetLog))

	mux.Handle("/", http.FileServerFS(frontend.Dist()))

	return Logging(mux)
}
