package http

import (
	"errors"
	"strings"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/domain/entities"
	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

type errorBookResponse struct {
	Temporary         *entities.ErrorCollection  `json:"temporary,omitempty"`
	Collections       []entities.ErrorCollection `json:"collections"`
	CurrentID         string                     `json:"currentId,omitempty"`
	TotalErrorCount   int                        `json:"totalErrorCount"`
	SessionErrorCount int                        `json:"sessionErrorCount"`
	Mode              service.Mode               `json:"mode"`
}

func errorBookState(ws *service.Workspace) errorBookResponse {
	book := ws.Book()

	resp := errorBookResponse{
		Collections:       book.Collections(),
		TotalErrorCount:   book.TotalErrorCount(),
		SessionErrorCount: book.SessionErrorCount(),
		Mode:              ws.Mode(),
	}
	if temp, ok := book.TemporaryCollection(); ok && len(temp.Questions) > 0 {
		resp.Temporary = &temp
	}
	if cur, ok := book.CurrentCollection(); ok {
		resp.CurrentID = cur.ID
	}
	return resp
}

func GetErrorBookHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		writeJSON(w, nethttp.StatusOK, errorBookState(ws))
	})
}

// SaveSessionErrorsHandler saves the session misses as a collection.
// With ?practice=true the new collection is started right away.
func SaveSessionErrorsHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		if r.URL.Query().Get("practice") == "true" {
			c, err := ws.SaveAndPractice(r.Context())
			if err != nil {
				writeError(w, nethttp.StatusConflict, err.Error())
				return
			}
			writeJSON(w, nethttp.StatusCreated, struct {
				Collection *entities.ErrorCollection `json:"collection"`
				View       service.View              `json:"view"`
			}{c, ws.View()})
			return
		}

		c, ok := ws.SaveSessionErrors(r.Context())
		if !ok {
			writeError(w, nethttp.StatusConflict, "no session errors to save")
			return
		}
		writeJSON(w, nethttp.StatusCreated, c)
	})
}

func StartCollectionHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		err := ws.StartCollection(chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, service.ErrCollectionNotFound):
			writeError(w, nethttp.StatusNotFound, err.Error())
			return
		case errors.Is(err, service.ErrCollectionEmpty):
			writeError(w, nethttp.StatusConflict, err.Error())
			return
		case err != nil:
			writeError(w, nethttp.StatusInternalServerError, "start failed")
			return
		}
		writeJSON(w, nethttp.StatusOK, ws.View())
	})
}

func RenameCollectionHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		id := chi.URLParam(r, "id")

		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
			writeError(w, nethttp.StatusBadRequest, "bad json")
			return
		}

		book := ws.Book()
		if _, ok := book.Collection(id); !ok {
			writeError(w, nethttp.StatusNotFound, service.ErrCollectionNotFound.Error())
			return
		}
		if !book.Rename(r.Context(), id, req.Name) {
			writeError(w, nethttp.StatusConflict, "collection cannot be renamed")
			return
		}

		c, _ := book.Collection(id)
		writeJSON(w, nethttp.StatusOK, c)
	})
}

func DeleteCollectionHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		if !ws.Book().Delete(r.Context(), chi.URLParam(r, "id")) {
			writeError(w, nethttp.StatusNotFound, service.ErrCollectionNotFound.Error())
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	})
}

func MergeCollectionsHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, r *nethttp.Request, _ int64, ws *service.Workspace) {
		var req struct {
			TargetID  string   `json:"targetId"`
			SourceIDs []string `json:"sourceIds"`
		}
		if err := decodeJSON(r, &req); err != nil || req.TargetID == "" || len(req.SourceIDs) == 0 {
			writeError(w, nethttp.StatusBadRequest, "bad json")
			return
		}

		book := ws.Book()
		if !book.MergeCollections(r.Context(), req.TargetID, req.SourceIDs...) {
			writeError(w, nethttp.StatusConflict, "collections cannot be merged")
			return
		}

		c, _ := book.Collection(req.TargetID)
		writeJSON(w, nethttp.StatusOK, c)
	})
}

func NormalModeHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		if !ws.SwitchToNormal() {
			writeError(w, nethttp.StatusConflict, "no questions loaded")
			return
		}
		writeJSON(w, nethttp.StatusOK, ws.View())
	})
}

// ErrorBookModeHandler opens the collection list. hasErrors is false for an empty error book.
func ErrorBookModeHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		hasErrors := ws.SwitchToErrorBook()
		writeJSON(w, nethttp.StatusOK, struct {
			HasErrors bool `json:"hasErrors"`
			errorBookResponse
		}{hasErrors, errorBookState(ws)})
	})
}

// CollectionListHandler leaves a practiced collection for the collection list.
func CollectionListHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		ws.BackToCollectionList()
		writeJSON(w, nethttp.StatusOK, errorBookState(ws))
	})
}

// InputModeHandler leaves every mode so new text can be pasted.
func InputModeHandler(svc WorkspaceService) nethttp.HandlerFunc {
	return withWorkspace(svc, func(w nethttp.ResponseWriter, _ *nethttp.Request, _ int64, ws *service.Workspace) {
		ws.BackToInput()
		writeJSON(w, nethttp.StatusOK, ws.View())
	})
}
