package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nconklindev/stockboard/internal/dashboard"
	"github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/metrics"
	"github.com/nconklindev/stockboard/internal/spreadsheet"
	"github.com/nconklindev/stockboard/internal/types"
)

const maxUploadBytes = 32 << 20

var chartFile = regexp.MustCompile(`^chart-[a-z0-9_-]+\.png$`)

// Server exposes one dashboard over HTTP. Handlers may run concurrently, so
// every controller call happens under mu.
type Server struct {
	router     *chi.Mux
	controller *dashboard.Controller
	chartDir   string
	logger     *zap.Logger

	mu        sync.Mutex
	current   *types.RawTable
	analyzing atomic.Bool
}

func New(controller *dashboard.Controller, chartDir string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:     chi.NewRouter(),
		controller: controller,
		chartDir:   chartDir,
		logger:     logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Post("/api/upload", s.handleUpload)
	s.router.Post("/api/analyze", s.handleAnalyze)
	s.router.Get("/api/tabs", s.handleListTabs)
	s.router.Get("/api/tabs/{tab}", s.handleTab)
	s.router.Get("/charts/{file}", s.handleChart)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type uploadResponse struct {
	Message string        `json:"message"`
	Preview types.Preview `json:"preview"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	table, err := s.readUpload(w, r)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(errors.GetCode(err)).Inc()
		s.writeError(w, err)
		return
	}
	metrics.UploadsTotal.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.current = table
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "File processed successfully!",
		Preview: spreadsheet.NewPreview(table, spreadsheet.PreviewLimit),
	})
}

// readUpload validates the part's content type before reading any bytes.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*types.RawTable, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.ReadFailure(err)
	}
	defer file.Close()

	if err := spreadsheet.ValidateMIME(header.Header.Get("Content-Type")); err != nil {
		return nil, err
	}

	table, err := spreadsheet.Decode(file)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Upload decoded",
		zap.String("file", header.Filename),
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Headers)))
	return table, nil
}

type analyzeResponse struct {
	Message   string              `json:"message"`
	ActiveTab string              `json:"activeTab"`
	Analysis  *dashboard.Analysis `json:"analysis"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.analyzing.CompareAndSwap(false, true) {
		metrics.AnalysesTotal.WithLabelValues(errors.CodeBusy).Inc()
		s.writeError(w, errors.Busy("an analysis is already running"))
		return
	}
	defer s.analyzing.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.writeError(w, errors.NotFound("uploaded file"))
		return
	}

	start := time.Now()
	// A client hanging up must not abort the writes halfway.
	analysis, err := s.controller.Analyze(context.WithoutCancel(r.Context()), s.current)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(errors.GetCode(err)).Inc()
		s.writeError(w, err)
		return
	}
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	metrics.RecordsDropped.Add(float64(analysis.Dropped))
	for tab, n := range analysis.Counts {
		metrics.RecordsCategorized.WithLabelValues(tab).Add(float64(n))
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Message:   "Data analyzed successfully!",
		ActiveTab: s.controller.HomeTab(),
		Analysis:  analysis,
	})
}

type tabSummary struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) {
	buckets := s.controller.Buckets()
	out := make([]tabSummary, len(buckets))
	for i, b := range buckets {
		out[i] = tabSummary{Key: b.Key, Title: b.Title}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	view, err := s.controller.Activate(r.Context(), chi.URLParam(r, "tab"))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if !chartFile.MatchString(name) {
		s.writeError(w, errors.NotFound("chart "+name))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, filepath.Join(s.chartDir, name))
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("code", code), zap.Error(err))
	} else {
		s.logger.Info("Request rejected", zap.String("code", code), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidFileType:
		return http.StatusUnsupportedMediaType
	case errors.CodeEmptyFile, errors.CodeDecodeFailure:
		return http.StatusUnprocessableEntity
	case errors.CodeReadFailure:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeBusy:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
