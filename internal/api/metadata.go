package api

import (
	"net/http"

	"github.com/unkn0wn-root/hurldeck/internal/workspace"
)

func (s *Server) handleGetMetadata(w http.ResponseWriter, _ *http.Request) {
	meta, err := s.workspace.ReadMetadata()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// handlePutMetadata replaces the whole document. Sections and assignments
// always travel together, so partial patches are not offered.
func (s *Server) handlePutMetadata(w http.ResponseWriter, r *http.Request) {
	var meta workspace.Metadata
	if err := decodeBody(w, r, &meta); err != nil {
		writeError(w, err)
		return
	}
	if err := s.workspace.WriteMetadata(meta); err != nil {
		writeError(w, err)
		return
	}
	stored, err := s.workspace.ReadMetadata()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
