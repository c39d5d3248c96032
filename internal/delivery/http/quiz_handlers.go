package http

import (
	"errors"
	"strconv"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

type loadResponse struct {
	Result service.LoadResult `json:"result"`
	View   service.View       `json:"view"`
}

type submitResponse struct {
	Result service.SubmitResult `json:"result"`
	View   service.View         `json:"view"`
}

// LoadQuizHandler parses pasted text and starts a new run.
func LoadQuizHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		var req struct {
			Text string `json:"text"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, nethttp.StatusBadRequest, "bad json")
			return
		}

		res, err := ws.Load(r.Context(), req.Text)
		switch {
		case errors.Is(err, service.ErrEmptyInput), errors.Is(err, service.ErrNoQuestions):
			writeJSON(w, nethttp.StatusUnprocessableEntity, struct {
				errorResponse
				Result service.LoadResult `json:"result"`
			}{errorResponse{Error: err.Error()}, res})
			return
		case err != nil:
			writeError(w, nethttp.StatusInternalServerError, "load failed")
			return
		}

		writeJSON(w, nethttp.StatusCreated, loadResponse{Result: res, View: ws.View()})
	})
}

func GetQuizHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		writeJSON(w, nethttp.StatusOK, ws.View())
	})
}

// ResetQuizHandler drops the pasted questions. Saved collections are kept.
func ResetQuizHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		ws.Reset()
		w.WriteHeader(nethttp.StatusNoContent)
	})
}

// AnswerHandler selects a single-choice answer or toggles a multi-choice letter.
func AnswerHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		var req struct {
			Label string `json:"label"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, nethttp.StatusBadRequest, "bad json")
			return
		}

		if !ws.SetAnswer(req.Label) {
			writeError(w, nethttp.StatusConflict, "answer rejected")
			return
		}
		writeJSON(w, nethttp.StatusOK, ws.View())
	})
}

func SubmitHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, id int64, ws *service.Workspace) {
		res, ok := svc.Submit(r.Context(), id)
		if !ok {
			writeError(w, nethttp.StatusConflict, "no answer selected")
			return
		}
		writeJSON(w, nethttp.StatusOK, submitResponse{Result: res, View: ws.View()})
	})
}

func NextHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return navigate(svc, (*service.Workspace).Next)
}

func PrevHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return navigate(svc, (*service.Workspace).Prev)
}

func navigate(svc WorkspaceService, move func(*service.Workspace) bool) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		if !move(ws) {
			writeError(w, nethttp.StatusConflict, "no such question")
			return
		}
		writeJSON(w, nethttp.StatusOK, ws.View())
	})
}

func GoToHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, nethttp.StatusBadRequest, "bad index")
			return
		}

		if !ws.GoTo(index) {
			writeError(w, nethttp.StatusConflict, "no such question")
			return
		}
		writeJSON(w, nethttp.StatusOK, ws.View())
	})
}

// CompletionHandler returns the completion offer when a finished run has misses
// to save, and 204 otherwise.
func CompletionHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		offer, ok := ws.CompletionOffer()
		if !ok {
			w.WriteHeader(nethttp.StatusNoContent)
			return
		}
		writeJSON(w, nethttp.StatusOK, offer)
	})
}
