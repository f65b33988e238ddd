package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/studycast/internal/models"
	"github.com/hyperjump/studycast/internal/storage"
	"go.uber.org/zap"
)

// ownerHeader carries the caller identity set by the fronting gateway.
const ownerHeader = "X-User-ID"

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	transcriptLimit  = 20
	maxDocumentBytes = 32 << 20
)

// documentSummary is a document without its text.
type documentSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PageCount   int       `json:"page_count"`
	Language    string    `json:"language,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
}

func summarize(d *models.DocumentContent) documentSummary {
	return documentSummary{ID: d.ID, Title: d.Title, PageCount: d.PageCount, Language: d.Language, ExtractedAt: d.ExtractedAt}
}

func owner(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ownerHeader)); id != "" {
		return id
	}
	return models.DefaultOwner
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("create document request", zap.String("id", input.ID), zap.String("title", input.Title))
	doc, err := s.deps.Importer.ImportDocument(r.Context(), owner(r), &input)
	if err != nil {
		s.respondErr(w, "create document", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, summarize(doc))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, limit := page(r)
	docs, err := s.deps.Storage.ListDocuments(r.Context(), owner(r), offset, limit)
	if err != nil {
		s.respondErr(w, "list documents", err)
		return
	}
	out := make([]documentSummary, len(docs))
	for i, d := range docs {
		out[i] = summarize(d)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": out, "offset": offset, "limit": limit})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Storage.GetDocument(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, "get document", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.deps.Storage.DeleteDocument(r.Context(), owner(r), id); err != nil {
		s.respondErr(w, "delete document", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = owner(r)
	podcast, err := s.deps.Generator.Generate(r.Context(), req)
	if err != nil {
		s.respondErr(w, "generate podcast", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, podcast.Summary())
}

func (s *Server) handleListPodcasts(w http.ResponseWriter, r *http.Request) {
	offset, limit := page(r)
	podcasts, err := s.deps.Storage.ListPodcasts(r.Context(), owner(r), offset, limit)
	if err != nil {
		s.respondErr(w, "list podcasts", err)
		return
	}
	out := make([]*models.GenerateSummary, len(podcasts))
	for i, p := range podcasts {
		out[i] = p.Summary()
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"podcasts": out, "offset": offset, "limit": limit})
}

func (s *Server) handleGetPodcast(w http.ResponseWriter, r *http.Request) {
	podcast, err := s.deps.Storage.GetPodcast(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, "get podcast", err)
		return
	}
	s.respondJSON(w, http.StatusOK, podcast)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	podcast, err := s.deps.Storage.GetPodcast(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, "search", err)
		return
	}
	s.logger.Debug("search request", zap.String("podcast", podcast.ID), zap.String("query", query.Query))
	response, err := s.deps.Searcher.Search(r.Context(), podcast, query.Query)
	if err != nil {
		s.respondErr(w, "search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleTranscriptSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.deps.Storage.GetPodcast(r.Context(), owner(r), id); err != nil {
		s.respondErr(w, "transcript search", err)
		return
	}
	limit := transcriptLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= maxPageSize {
		limit = v
	}
	response, err := s.deps.Searcher.SearchTranscript(r.Context(), id, r.URL.Query().Get("q"), limit)
	if err != nil {
		s.respondErr(w, "transcript search", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleDownload(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		podcast, err := s.deps.Storage.GetPodcast(r.Context(), owner(r), chi.URLParam(r, "id"))
		if err != nil {
			s.respondErr(w, "download", err)
			return
		}
		build := s.deps.Packager.BuildWAV
		if format == "zip" {
			build = s.deps.Packager.BuildZip
		}
		d, err := build(r.Context(), podcast)
		if err != nil {
			s.respondErr(w, "download "+format, err)
			return
		}
		w.Header().Set("Content-Type", d.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
		w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(d.Data)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.deps.Storage.CountDocuments(ctx)
	if err != nil {
		s.respondErr(w, "status: count documents", err)
		return
	}
	podcastCounts, err := s.deps.Storage.CountPodcasts(ctx)
	if err != nil {
		s.respondErr(w, "status: count podcasts", err)
		return
	}
	resp := map[string]interface{}{
		"documents": docCount,
		"podcasts":  podcastCounts,
	}

	cfg := s.config
	configInfo := map[string]interface{}{
		"llm_provider":       cfg.LLM.Provider,
		"llm_model":          cfg.LLM.Model,
		"embedding_provider": cfg.Embedding.Provider,
		"tts_provider":       cfg.TTS.DefaultProvider,
		"database_path":      cfg.Storage.DatabasePath,
		"bleve_index_path":   cfg.Storage.BleveIndexPath,
	}
	if cfg.Storage.S3.Bucket != "" {
		configInfo["assets"] = "s3://" + cfg.Storage.S3.Bucket + "/" + cfg.Storage.S3.Prefix
	} else {
		configInfo["assets"] = cfg.Storage.AssetsDir
	}
	if s.deps.Inbox != nil {
		configInfo["inbox_directories"] = s.deps.Inbox.Directories()
	}
	resp["config"] = configInfo

	usage, total, err := storage.DiskUsage(map[string]string{
		"database": cfg.Storage.DatabasePath,
		"index":    cfg.Storage.BleveIndexPath,
		"assets":   cfg.Storage.AssetsDir,
	})
	if err == nil {
		resp["disk_usage_bytes"] = total
		resp["disk_usage"] = usage
	} else {
		s.logger.Debug("status: disk usage failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func page(r *http.Request) (offset, limit int) {
	limit = defaultPageSize
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return offset, limit
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotReady), errors.Is(err, models.ErrNoAudio):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
	} else {
		s.logger.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
