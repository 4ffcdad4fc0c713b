package api

import (
	"net/http"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
	"github.com/unkn0wn-root/hurldeck/internal/history"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []history.Entry{})
		return
	}
	if err := s.history.Load(); err != nil {
		writeError(w, err)
		return
	}

	entries := s.history.ByRequest(r.URL.Query().Get("request"))
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, errdef.New(errdef.CodeNotFound, "history is disabled"))
		return
	}
	id := r.PathValue("id")
	removed, err := s.history.Delete(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, errdef.New(errdef.CodeNotFound, "history entry %q does not exist", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
