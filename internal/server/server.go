// Package server provides the HTTP API for studycast.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/studycast/internal/assembler"
	"github.com/hyperjump/studycast/internal/config"
	"github.com/hyperjump/studycast/internal/metrics"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/storage"
	"github.com/hyperjump/studycast/pkg/utils"
	"go.uber.org/zap"
)

// Generator runs a podcast generation request to completion.
type Generator interface {
	Generate(ctx context.Context, req models.GenerateRequest) (*models.IntelligentPodcast, error)
}

// Searcher answers concept and transcript queries over one podcast.
type Searcher interface {
	Search(ctx context.Context, p *models.IntelligentPodcast, query string) (*models.SearchResponse, error)
	SearchTranscript(ctx context.Context, podcastID, query string, limit int) (*models.TranscriptResponse, error)
}

// Packager builds downloadable audio for a ready podcast.
type Packager interface {
	BuildWAV(ctx context.Context, p *models.IntelligentPodcast) (*assembler.Download, error)
	BuildZip(ctx context.Context, p *models.IntelligentPodcast) (*assembler.Download, error)
}

// DocumentImporter stores documents submitted over the API.
type DocumentImporter interface {
	ImportDocument(ctx context.Context, owner string, input *models.DocumentInput) (*models.DocumentContent, error)
}

// InboxService reports the watched inbox directories.
type InboxService interface {
	Directories() []string
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Storage   storage.Storage
	Importer  DocumentImporter
	Generator Generator
	Searcher  Searcher
	Packager  Packager
	Metrics   *metrics.Metrics
	// Inbox is optional.
	Inbox InboxService
}

// Server is the HTTP server for the studycast API.
type Server struct {
	deps   Deps
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		deps:   deps,
		config: cfg,
		logger: utils.LoggerOrNop(logger),
	}
}

// assetFS exposes stored segment files only. Directories report not found
// so the file server never lists them.
type assetFS struct{ root http.Dir }

func (a assetFS) Open(name string) (http.File, error) {
	f, err := a.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// Routes returns the router. Generation and downloads get the long
// generate timeout; everything else gets the request timeout.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}
	if dir := s.config.Storage.AssetsDir; dir != "" && s.config.Storage.S3.Bucket == "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(assetFS{http.Dir(dir)})))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
		r.Use(middleware.Compress(5))

		r.Get("/api/v1/status", s.handleStatus)

		r.Post("/api/v1/documents", s.handleCreateDocument)
		r.Get("/api/v1/documents", s.handleListDocuments)
		r.Get("/api/v1/documents/{id}", s.handleGetDocument)
		r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)

		r.Get("/api/v1/podcasts", s.handleListPodcasts)
		r.Get("/api/v1/podcasts/{id}", s.handleGetPodcast)
		r.Post("/api/v1/podcasts/{id}/search", s.handleSearch)
		r.Get("/api/v1/podcasts/{id}/transcript/search", s.handleTranscriptSearch)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.Server.GenerateTimeout))

		r.Post("/api/v1/podcasts", s.handleGenerate)
		r.Get("/api/v1/podcasts/{id}/download.wav", s.handleDownload("wav"))
		r.Get("/api/v1/podcasts/{id}/download.zip", s.handleDownload("zip"))
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
