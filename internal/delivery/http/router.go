package http

import (
	"context"
	"strconv"
	"time"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-errorbook-bot/internal/service"
)

// WorkspaceHeader selects the workspace of a request. Requests without it use workspace 0.
const WorkspaceHeader = "X-Workspace-ID"

type WorkspaceService interface {
	Workspace(ctx context.Context, id int64) *service.Workspace
	Submit(ctx context.Context, id int64) (service.SubmitResult, bool)
}

// NewRouter builds the JSON API. Routes are mounted under /api.
func NewRouter(svc WorkspaceService, allowedOrigins []string, logger *zap.Logger) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", WorkspaceHeader},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNoContent)
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/quiz", func(qr chi.Router) {
			qr.Post("/", LoadQuizHandler(svc))
			qr.Get("/", GetQuizHandler(svc))
			qr.Delete("/", ResetQuizHandler(svc))
			qr.Post("/answer", AnswerHandler(svc))
			qr.Post("/submit", SubmitHandler(svc))
			qr.Post("/next", NextHandler(svc))
			qr.Post("/prev", PrevHandler(svc))
			qr.Post("/goto/{index}", GoToHandler(svc))
			qr.Get("/completion", CompletionHandler(svc))
		})

		api.Route("/errorbook", func(er chi.Router) {
			er.Get("/", GetErrorBookHandler(svc))
			er.Post("/save", SaveSessionErrorsHandler(svc))
			er.Post("/merge", MergeCollectionsHandler(svc))
			er.Post("/collections/{id}/start", StartCollectionHandler(svc))
			er.Patch("/collections/{id}", RenameCollectionHandler(svc))
			er.Delete("/collections/{id}", DeleteCollectionHandler(svc))
		})

		api.Post("/mode/normal", NormalModeHandler(svc))
		api.Post("/mode/errorbook", ErrorBookModeHandler(svc))
		api.Post("/mode/collections", CollectionListHandler(svc))
		api.Post("/mode/input", InputModeHandler(svc))
	})

	return r
}

// workspaceID reads WorkspaceHeader. ok is false for a malformed header.
func workspaceID(r *nethttp.Request) (int64, bool) {
	raw := r.Header.Get(WorkspaceHeader)
	if raw == "" {
		return 0, true
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// requestLogger logs one line per request with zap.
func requestLogger(logger *zap.Logger) func(nethttp.Handler) nethttp.Handler {
	return func(next nethttp.Handler) nethttp.Handler {
		return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
