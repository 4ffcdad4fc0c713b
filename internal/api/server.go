// Package api exposes the workspace over HTTP for a local editor frontend.
package api

import (
	"log"
	"net/http"

	"github.com/unkn0wn-root/hurldeck/internal/history"
	"github.com/unkn0wn-root/hurldeck/internal/runner"
	"github.com/unkn0wn-root/hurldeck/internal/watcher"
	"github.com/unkn0wn-root/hurldeck/internal/workspace"
)

type Server struct {
	workspace  *workspace.Workspace
	runner     *runner.Runner
	history    *history.Store
	watcher    *watcher.Watcher
	defaultEnv string
	logf       func(format string, args ...interface{})
}

type Options struct {
	Workspace *workspace.Workspace
	Runner    *runner.Runner
	History   *history.Store
	// Watcher is optional; without it the events endpoint reports
	// unavailability instead of streaming.
	Watcher *watcher.Watcher
	// DefaultEnvironment applies to runs whose payload names none.
	DefaultEnvironment string
	Logf               func(format string, args ...interface{})
}

func NewServer(opts Options) *Server {
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Server{
		workspace:  opts.Workspace,
		runner:     opts.Runner,
		history:    opts.History,
		watcher:    opts.Watcher,
		defaultEnv: opts.DefaultEnvironment,
		logf:       logf,
	}
}

// Handler builds the route table. Method-qualified patterns let the mux
// answer 405 for wrong verbs without extra plumbing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/requests", s.handleListRequests)
	mux.HandleFunc("POST /api/requests", s.handleCreateRequest)
	mux.HandleFunc("GET /api/requests/{name}", s.handleGetRequest)
	mux.HandleFunc("PUT /api/requests/{name}", s.handleUpdateRequest)
	mux.HandleFunc("DELETE /api/requests/{name}", s.handleDeleteRequest)
	mux.HandleFunc("POST /api/requests/{name}/rename", s.handleRenameRequest)
	mux.HandleFunc("POST /api/requests/{name}/run", s.handleRunRequest)

	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("POST /api/render", s.handleRender)

	mux.HandleFunc("GET /api/environments", s.handleListEnvironments)
	mux.HandleFunc("GET /api/environments/{name}", s.handleGetEnvironment)
	mux.HandleFunc("PUT /api/environments/{name}", s.handlePutEnvironment)
	mux.HandleFunc("DELETE /api/environments/{name}", s.handleDeleteEnvironment)

	mux.HandleFunc("GET /api/metadata", s.handleGetMetadata)
	mux.HandleFunc("PUT /api/metadata", s.handlePutMetadata)

	mux.HandleFunc("GET /api/history", s.handleListHistory)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleDeleteHistory)

	mux.HandleFunc("GET /api/events", s.handleEvents)

	mux.HandleFunc("GET /api/health", s.handleHealth)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
