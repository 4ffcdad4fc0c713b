package api

import (
	"net/http"

	"github.com/unkn0wn-root/hurldeck/internal/workspace"
)

func (s *Server) handleListEnvironments(w http.ResponseWriter, _ *http.Request) {
	names, err := s.workspace.ListEnvironments()
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	env, err := s.workspace.ReadEnvironment(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handlePutEnvironment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Variables map[string]string `json:"variables"`
		Secrets   map[string]string `json:"secrets"`
	}
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	env := workspace.Environment{
		Name:      r.PathValue("name"),
		Variables: payload.Variables,
		Secrets:   payload.Secrets,
	}
	if env.Variables == nil {
		env.Variables = map[string]string{}
	}
	if err := s.workspace.WriteEnvironment(env); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.DeleteEnvironment(r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
