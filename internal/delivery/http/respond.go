package http

import (
	"encoding/json"

	nethttp "net/http"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w nethttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w nethttp.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// withWorkspace resolves the request's workspace before calling fn.
func withWorkspace(svc WorkspaceService, fn func(w nethttp.ResponseWriter, r *nethttp.Request, id int64, ws *service.Workspace)) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, ok := workspaceID(r)
		if !ok {
			writeError(w, nethttp.StatusBadRequest, "invalid "+WorkspaceHeader)
			return
		}
		fn(w, r, id, svc.Workspace(r.Context(), id))
	}
}

func decodeJSON(r *nethttp.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
