package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hawker-app/hawker/internal/catalog"
	"github.com/hawker-app/hawker/internal/pipeline"
)

// CatalogLoader supplies a fresh catalog snapshot for index rebuilds.
type CatalogLoader interface {
	Load() ([]catalog.Product, error)
}

type Server struct {
	router  *chi.Mux
	port    int
	session *pipeline.Session
	matcher *catalog.Matcher
	loader  CatalogLoader
	logger  *slog.Logger
}

func NewServer(port int, session *pipeline.Session, matcher *catalog.Matcher, loader CatalogLoader, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		session: session,
		matcher: matcher,
		loader:  loader,
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/hawker/status", s.status)
	router.Post("/api/v1/snapshots", s.ingestSnapshot)
	router.Post("/api/v1/match", s.adhocMatch)
	router.Post("/api/v1/catalog/reload", s.reloadCatalog)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":   "hawker",
		"session": s.session.ID().String(),
		"state":   s.session.State(),
		"stats":   s.session.Stats(),
	})
}

// ingestSnapshot is the HTTP alternative to the NATS snapshot subject, for
// shims that cannot hold a NATS connection.
func (s *Server) ingestSnapshot(w http.ResponseWriter, r *http.Request) {
	var evt pipeline.SnapshotEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid snapshot payload"})
		return
	}
	if evt.HTML == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "html is required"})
		return
	}

	summary, err := s.session.Process(evt)
	if err != nil {
		s.logger.Error("snapshot ingest failed", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "snapshot could not be processed"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type matchRequest struct {
	Candidate  string   `json:"candidate"`
	Attributes []string `json:"attributes"`
}

// adhocMatch exposes the matcher directly for debugging selector and
// threshold changes without driving a whole snapshot through.
func (s *Server) adhocMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid match request"})
		return
	}
	writeJSON(w, http.StatusOK, s.matcher.Match(req.Candidate, req.Attributes))
}

func (s *Server) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := s.loader.Load()
	if err != nil {
		s.logger.Error("catalog reload failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "catalog load failed"})
		return
	}
	s.matcher.Rebuild(products)
	writeJSON(w, http.StatusOK, map[string]int{"products": len(products)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
