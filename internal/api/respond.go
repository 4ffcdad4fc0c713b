package api

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

const maxBodyBytes = 1 << 20

type errorPayload struct {
	Error string      `json:"error"`
	Code  errdef.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"encode response","code":"unknown"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	code := errdef.CodeOf(err)
	writeJSON(w, statusFor(code), errorPayload{Error: err.Error(), Code: code})
}

func statusFor(code errdef.Code) int {
	switch code {
	case errdef.CodeNotFound:
		return http.StatusNotFound
	case errdef.CodeConflict:
		return http.StatusConflict
	case errdef.CodeInvalid, errdef.CodeParse:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a size-capped JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errdef.Wrap(errdef.CodeInvalid, err, "read request body")
	}
	if len(data) == 0 {
		return errdef.New(errdef.CodeInvalid, "request body must not be empty")
	}
	if err := sonic.Unmarshal(data, dst); err != nil {
		return errdef.Wrap(errdef.CodeInvalid, err, "decode request body")
	}
	return nil
}
