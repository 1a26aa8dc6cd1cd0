// Package api exposes QR generation, batch runs and the history over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openclaw/instantqr/batch"
	"github.com/openclaw/instantqr/generator"
	"github.com/openclaw/instantqr/qrgen"
	"github.com/openclaw/instantqr/store"
)

const defaultMaxUploadBytes = 10 << 20

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Generator *generator.Service
	Batch     *batch.Runner
	History   store.Store

	// Defaults fill in options a request leaves out.
	Defaults           qrgen.Options
	DefaultLogoPercent int
	MaxUploadBytes     int64
	RequestTimeout     time.Duration

	HistoryBackend string
	Log            *slog.Logger
	Version        string
	StartTime      time.Time
}

// NewRouter returns a fully configured chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(requestLogger(s.logger()))
	if s.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.RequestTimeout))
	}

	// Web UI & status
	r.Get("/", s.handlePage)
	r.Get("/status", s.handleStatus)

	// Generation
	r.Post("/generate", s.handleGenerate)
	r.Get("/generate/{format}", s.handleGenerateDownload)
	r.Post("/batch", s.handleBatch)

	// History
	r.Get("/history", s.handleListHistory)
	r.Get("/history/{id}/{format}", s.handleGetHistory)
	r.Delete("/history", s.handleClearHistory)

	return r
}

func (s *Server) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Server) maxUploadBytes() int64 {
	if s.MaxUploadBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return s.MaxUploadBytes
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFile sends data as a download named filename.
func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

// --- middleware --------------------------------------------------------------

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
			)
		})
	}
}
