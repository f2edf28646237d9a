package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"serwer-dokumentow/internal/auth"
	"serwer-dokumentow/internal/config"
	"serwer-dokumentow/internal/tree"
	"serwer-dokumentow/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	config   *config.Config
	tree     *tree.Service
	verifier auth.Verifier
	wsHub    *websocket.Hub
	checks   map[string]Pinger
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, svc *tree.Service, verifier auth.Verifier, wsHub *websocket.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   cfg,
		tree:     svc,
		verifier: verifier,
		wsHub:    wsHub,
		checks:   make(map[string]Pinger),
		logger:   logger,
	}
}

// AddHealthCheck registers a dependency probed by /health.
func (s *Server) AddHealthCheck(name string, p Pinger) {
	s.checks[name] = p
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/ws", s.ServeWsHandler)
	r.Get("/health", s.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Get("/me", s.GetCurrentUserHandler)
		r.Post("/auth/token", s.IssueTokenHandler)

		r.Get("/folders", s.ListFoldersHandler)
		r.Post("/folders", s.CreateFolderHandler)
		r.Get("/folders/{folderId}", s.GetFolderHandler)
		r.Get("/folders/{folderId}/path", s.GetFolderPathHandler)
		r.Patch("/folders/{folderId}", s.UpdateFolderHandler)
		r.Delete("/folders/{folderId}", s.DeleteFolderHandler)

		r.Get("/documents", s.ListDocumentsHandler)
		r.Post("/documents", s.CreateDocumentHandler)
		r.Get("/documents/recent", s.ListRecentDocumentsHandler)
		r.Get("/documents/children", s.ListChildDocumentsHandler)
		r.Post("/documents/batch", s.GetDocumentRefsHandler)
		r.Post("/documents/remove", s.RemoveDocumentsHandler)
		r.Get("/documents/{documentId}", s.GetDocumentHandler)
		r.Patch("/documents/{documentId}", s.UpdateDocumentHandler)
		r.Delete("/documents/{documentId}", s.DeleteDocumentHandler)

		r.Post("/rooms/authorize", s.AuthorizeRoomHandler)

		r.Get("/events", s.GetEventsHandler)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
