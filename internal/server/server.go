// Package server exposes the ingestion pipeline over HTTP. It decodes
// multipart uploads into upload items, runs them through the ingester, and
// hands the resulting batch to the persistence fan-out.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dharsanguruparan/VaultIntake/internal/config"
	"github.com/dharsanguruparan/VaultIntake/internal/ingest"
	"github.com/dharsanguruparan/VaultIntake/internal/logging"
	"github.com/dharsanguruparan/VaultIntake/internal/metrics"
	"github.com/dharsanguruparan/VaultIntake/internal/model"
	"github.com/dharsanguruparan/VaultIntake/internal/queue"
	"github.com/dharsanguruparan/VaultIntake/internal/repository"
	"github.com/dharsanguruparan/VaultIntake/internal/signing"
)

// uploadField is the multipart form field carrying files.
const uploadField = "files"

// Publisher hands a finished batch to persistence.
type Publisher interface {
	Publish(ctx context.Context, payload queue.BatchPayload) error
}

// BatchReader loads the records of a persisted batch.
type BatchReader interface {
	ListBatch(ctx context.Context, batchID string) ([]model.ResultRecord, error)
}

// ManifestLinker presigns download links for exported batch manifests.
type ManifestLinker interface {
	PresignManifestURL(ctx context.Context, batchID string, ttl time.Duration) (string, error)
}

// Server hosts the HTTP handlers. Publisher, batches and manifests are
// optional.
type Server struct {
	cfg       *config.Config
	ingester  *ingest.Ingester
	signer    *signing.Signer
	publisher Publisher
	batches   BatchReader
	manifests ManifestLinker
	logger    *slog.Logger
	now       func() time.Time

	server *http.Server
	once   sync.Once
}

// Option customizes a Server.
type Option func(*Server)

// WithPublisher enables batch persistence.
func WithPublisher(p Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithBatchReader enables GET /batches/{batchID}.
func WithBatchReader(b BatchReader) Option {
	return func(s *Server) { s.batches = b }
}

// WithManifestLinker adds an X-Batch-Manifest-URL header to upload responses.
func WithManifestLinker(m ManifestLinker) Option {
	return func(s *Server) { s.manifests = m }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New constructs a Server.
func New(cfg *config.Config, ingester *ingest.Ingester, signer *signing.Signer, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		ingester: ingester,
		signer:   signer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.cfg.Address,
			Handler:           s.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", "address", s.cfg.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/upload", s.handleUpload)
	r.Get("/batches/{batchID}", s.handleBatch)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.FromContext(ctx, s.logger)
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestSize)
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, "expecting multipart form", http.StatusBadRequest)
		return
	}
	items, err := s.readItems(mr)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	if len(items) == 0 {
		http.Error(w, "missing files", http.StatusBadRequest)
		return
	}
	records, err := s.ingester.Ingest(ctx, items)
	if err != nil {
		log.Warn("ingest refused batch", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	batchID := uuid.NewString()
	s.publish(ctx, log, batchID, records)
	w.Header().Set("X-Batch-ID", batchID)
	if s.batches != nil {
		w.Header().Set("X-Batch-URL", s.batchURL(batchID))
	}
	if s.manifests != nil {
		// The manifest is written asynchronously; the link resolves once the
		// batch has been persisted.
		link, err := s.manifests.PresignManifestURL(ctx, batchID, s.cfg.SignedURLTTL)
		if err != nil {
			log.Warn("presign manifest failed", "batch_id", batchID, "error", err)
		} else {
			w.Header().Set("X-Batch-Manifest-URL", link)
		}
	}
	respondJSON(w, http.StatusOK, records)
}

// readItems buffers every file part. Each part is read up to one byte past the
// per-item limit, which is enough for the ingester to gate it. Filenames are
// passed through exactly as the client sent them.
func (s *Server) readItems(mr *multipart.Reader) ([]model.UploadItem, error) {
	limit := s.ingester.MaxSize() + 1
	var items []model.UploadItem
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != uploadField {
			part.Close()
			continue
		}
		content, err := io.ReadAll(io.LimitReader(part, limit))
		part.Close()
		if err != nil {
			return nil, err
		}
		name := rawFileName(part)
		if name == "" {
			name = "upload-" + uuid.NewString()
		}
		items = append(items, model.UploadItem{Filename: name, Content: content})
	}
}

// rawFileName returns the filename parameter of the part's
// Content-Disposition. multipart.Part.FileName strips directories, so it is
// not used.
func rawFileName(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (s *Server) publish(ctx context.Context, log *slog.Logger, batchID string, records []model.ResultRecord) {
	if s.publisher == nil {
		return
	}
	payload := queue.BatchPayload{BatchID: batchID, Records: records}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		metrics.BatchesPublished.WithLabelValues("failed").Inc()
		log.Warn("publish batch failed", "batch_id", batchID, "error", err)
		return
	}
	metrics.BatchesPublished.WithLabelValues("ok").Inc()
}

func (s *Server) batchURL(batchID string) string {
	expiry := s.now().Add(s.cfg.SignedURLTTL).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expiry, 10))
	q.Set("signature", s.signer.Sign(batchID, expiry))
	return "/batches/" + url.PathEscape(batchID) + "?" + q.Encode()
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if s.batches == nil {
		http.NotFound(w, r)
		return
	}
	batchID := chi.URLParam(r, "batchID")
	query := r.URL.Query()
	expires, signature := query.Get("expires"), query.Get("signature")
	if expires == "" || signature == "" {
		http.Error(w, "missing parameters", http.StatusBadRequest)
		return
	}
	if !s.signer.Validate(batchID, expires, signature, s.now()) {
		http.Error(w, "invalid or expired link", http.StatusUnauthorized)
		return
	}
	records, err := s.batches.ListBatch(r.Context(), batchID)
	if errors.Is(err, repository.ErrBatchNotFound) {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.FromContext(r.Context(), s.logger).Error("load batch failed", "batch_id", batchID, "error", err)
		http.Error(w, "failed to load batch", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		logging.FromContext(r.Context(), s.logger).Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "X-Batch-ID, X-Batch-URL, X-Batch-Manifest-URL")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}
