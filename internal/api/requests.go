package api

import (
	"net/http"
	"time"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
	"github.com/unkn0wn-root/hurldeck/internal/history"
	"github.com/unkn0wn-root/hurldeck/internal/hurlfile"
	"github.com/unkn0wn-root/hurldeck/internal/hurlwriter"
	"github.com/unkn0wn-root/hurldeck/internal/parser"
	"github.com/unkn0wn-root/hurldeck/internal/result"
	"github.com/unkn0wn-root/hurldeck/internal/runner"
)

type requestPayload struct {
	Name     string             `json:"name,omitempty"`
	Text     *string            `json:"text,omitempty"`
	Document *hurlfile.Document `json:"document,omitempty"`
}

// textFromPayload resolves the two accepted shapes: raw text wins when both
// are present, a document is rendered to canonical text.
func textFromPayload(p requestPayload) (string, error) {
	switch {
	case p.Text != nil:
		return *p.Text, nil
	case p.Document != nil:
		return hurlwriter.Render(p.Document), nil
	default:
		return "", errdef.New(errdef.CodeInvalid, "payload needs text or document")
	}
}

type requestView struct {
	Name     string             `json:"name"`
	Text     string             `json:"text"`
	Document *hurlfile.Document `json:"document"`
	Section  string             `json:"section,omitempty"`
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	entries, err := s.workspace.ListRequests()
	if err != nil {
		writeError(w, err)
		return
	}
	meta, err := s.workspace.ReadMetadata()
	if err != nil {
		writeError(w, err)
		return
	}

	type listItem struct {
		Name    string `json:"name"`
		Section string `json:"section,omitempty"`
	}
	items := make([]listItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, listItem{
			Name:    entry.Name,
			Section: meta.Requests[entry.Name],
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var payload requestPayload
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.Name == "" {
		writeError(w, errdef.New(errdef.CodeInvalid, "name is required"))
		return
	}

	text := defaultRequestText
	if payload.Text != nil || payload.Document != nil {
		var err error
		if text, err = textFromPayload(payload); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := s.workspace.CreateRequest(payload.Name, text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewFor(payload.Name, text, nil))
}

const defaultRequestText = "GET https://example.com\n"

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	text, err := s.workspace.ReadRequest(name)
	if err != nil {
		writeError(w, err)
		return
	}
	meta, err := s.workspace.ReadMetadata()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewFor(name, text, meta.Requests))
}

func (s *Server) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var payload requestPayload
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	text, err := textFromPayload(payload)
	if err != nil {
		writeError(w, err)
		return
	}

	exists, err := s.workspace.RequestExists(name)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, errdef.New(errdef.CodeNotFound, "request %q does not exist", name))
		return
	}

	if err := s.workspace.WriteRequest(name, text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewFor(name, text, nil))
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.DeleteRequest(r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameRequest(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var payload struct {
		NewName string `json:"newName"`
	}
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.NewName == "" {
		writeError(w, errdef.New(errdef.CodeInvalid, "newName is required"))
		return
	}
	if err := s.workspace.RenameRequest(name, payload.NewName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": payload.NewName})
}

type runResponse struct {
	HistoryID string      `json:"historyId,omitempty"`
	Duration  int64       `json:"durationMs"`
	Success   bool        `json:"success"`
	Truncated bool        `json:"truncated,omitempty"`
	View      result.View `json:"view"`
}

func (s *Server) handleRunRequest(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var payload struct {
		Environment string `json:"environment,omitempty"`
	}
	// the body is optional; the server default fills an unnamed environment
	if r.ContentLength > 0 {
		if err := decodeBody(w, r, &payload); err != nil {
			writeError(w, err)
			return
		}
	}
	if payload.Environment == "" {
		payload.Environment = s.defaultEnv
	}

	sourceText, err := s.workspace.ReadRequest(name)
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := s.workspace.RequestPath(name)
	if err != nil {
		writeError(w, err)
		return
	}

	inv := runner.Invocation{FilePath: path, Environment: payload.Environment}
	if payload.Environment != "" {
		if inv.VariablesFile, err = s.workspace.VariablesFile(payload.Environment); err != nil {
			writeError(w, err)
			return
		}
		if inv.SecretsFile, err = s.workspace.SecretsFile(payload.Environment); err != nil {
			writeError(w, err)
			return
		}
		if inv.VariablesFile == "" && inv.SecretsFile == "" {
			writeError(w, errdef.New(
				errdef.CodeNotFound,
				"environment %q does not exist",
				payload.Environment,
			))
			return
		}
	}

	res := s.runner.Run(r.Context(), inv)
	view := result.Extract(res, sourceText)

	response := runResponse{
		Duration:  res.Duration.Milliseconds(),
		Success:   res.Success,
		Truncated: res.Truncated,
		View:      view,
	}
	response.HistoryID = s.recordRun(name, payload.Environment, res, view)
	writeJSON(w, http.StatusOK, response)
}

// recordRun appends a history entry; failure to persist never fails the run.
func (s *Server) recordRun(name, environment string, res runner.Result, view result.View) string {
	if s.history == nil {
		return ""
	}

	pass, fail := 0, 0
	for _, a := range view.Asserts {
		if a.Success {
			pass++
		} else {
			fail++
		}
	}

	entry := history.Entry{
		ID:          history.NewEntryID(),
		ExecutedAt:  time.Now(),
		RequestName: name,
		Environment: environment,
		Success:     res.Success,
		StatusCode:  view.Status,
		Duration:    res.Duration,
		AssertsPass: pass,
		AssertsFail: fail,
		BodySnippet: history.Snippet(view.Body),
		Error:       res.Err,
	}
	if err := s.history.Append(entry); err != nil {
		s.logf("history append for %s failed: %v", name, err)
		return ""
	}
	return entry.ID
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parser.Parse(payload.Text))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Document *hurlfile.Document `json:"document"`
	}
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.Document == nil {
		writeError(w, errdef.New(errdef.CodeInvalid, "document is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"text": hurlwriter.Render(payload.Document),
	})
}

func (s *Server) viewFor(name, text string, sections map[string]string) requestView {
	return requestView{
		Name:     name,
		Text:     text,
		Document: parser.Parse(text),
		Section:  sections[name],
	}
}
