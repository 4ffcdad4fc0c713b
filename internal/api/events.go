package api

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

type fileEvent struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// handleEvents streams workspace file changes as server-sent events so the
// frontend can refresh when files change outside the editor.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		writeError(w, errdef.New(errdef.CodeNotFound, "file watching is disabled"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errdef.New(errdef.CodeUnknown, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, open := <-s.watcher.Events():
			if !open {
				return
			}
			data, err := sonic.Marshal(fileEvent{Name: evt.Name, Kind: evt.Kind.String()})
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: file\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
