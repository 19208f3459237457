// Package api provides the HTTP boundary of the statement extractor.
// This is a capability module that can be enabled via the CLI or used programmatically.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/miwtoo/credit-card-extraction/extractor"
	"github.com/miwtoo/credit-card-extraction/extractor/common"
)

// Config holds the API server configuration
type Config struct {
	Port        string
	MaxUploadMB int64
	// RateLimit is the sustained requests per second; zero disables limiting.
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
	LogPrefix   string
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:        ":8080",
		MaxUploadMB: 32,
		RateLimit:   5,
		RateBurst:   10,
		CORSOrigins: []string{"*"},
		LogPrefix:   "API",
	}
}

// Extractor is the part of the extraction pipeline the server needs.
type Extractor interface {
	ProcessFile(path string) (*common.ExtractionResult, error)
	Rows(r io.Reader) ([]common.NormalizedRow, error)
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	extractor Extractor
	mux       *http.ServeMux
	logger    *log.Logger
	metrics   *metrics
}

// New creates a new API server with the given configuration
func New(cfg Config, ex Extractor) *Server {
	s := &Server{
		config:    cfg,
		extractor: ex,
		mux:       http.NewServeMux(),
		logger:    log.WithPrefix(cfg.LogPrefix),
		metrics:   newMetrics(),
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /parse", s.handleParse)
	s.mux.HandleFunc("POST /rows", s.handleRows)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.handler())
}

// Handler returns the http.Handler for the server, wrapped in its middleware.
// This allows the server to be used with custom http.Server configurations
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.mux)
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.config.Port)
	srv := &http.Server{
		Addr:              s.config.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleParse parses an uploaded statement PDF into an ExtractionResult.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := s.logger.With("request_id", requestID(r.Context()))

	path, filename, err := s.saveUpload(w, r)
	if path != "" {
		defer func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("failed to remove upload", "path", path, "error", err)
			}
		}()
	}
	if err != nil {
		s.metrics.observeParse(outcomeRejected, start, nil)
		logger.Info("upload rejected", "error", err)
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.extractor.ProcessFile(path)
	if err != nil {
		s.metrics.observeParse(outcomeFailed, start, nil)
		logger.Error("failed to parse statement", "file", filename, "error", err)
		writeDetail(w, http.StatusBadRequest, "Failed to parse PDF.")
		return
	}

	s.metrics.observeParse(outcomeOK, start, result)
	logger.Info("parsed statement",
		"file", filename,
		"transactions", len(result.Transactions),
		"warnings", len(result.Validation.Warnings),
		"duration", time.Since(start))

	opts := parseOutputOptions(r)
	writeJSON(w, http.StatusOK, extractor.CreateFinalOutput(result, opts.TransactionsOnly, opts.StatementOnly))
}

// handleRows returns the normalized rows of an uploaded PDF, as JSON or in
// the page|y|text fixture format when format=fixture.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", requestID(r.Context()))

	path, filename, err := s.saveUpload(w, r)
	if path != "" {
		defer os.Remove(path)
	}
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Error("failed to reopen upload", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Could not read upload.")
		return
	}
	defer f.Close()

	rows, err := s.extractor.Rows(f)
	if err != nil {
		logger.Error("failed to extract rows", "file", filename, "error", err)
		writeDetail(w, http.StatusBadRequest, "Failed to parse PDF.")
		return
	}

	if coalesce(r.FormValue("format"), r.URL.Query().Get("format")) == "fixture" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "# %s\n", filename)
		if err := common.WriteFixture(w, rows); err != nil {
			logger.Error("failed to write rows", "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename": filename,
		"rows":     rows,
	})
}

// uploadError is a client-facing reason for rejecting an upload.
type uploadError string

func (e uploadError) Error() string { return string(e) }

const (
	errNoFile   uploadError = "No file uploaded."
	errNotPDF   uploadError = "Only PDF uploads are supported."
	errEmpty    uploadError = "Uploaded file is empty."
	errTooLarge uploadError = "Uploaded file is too large."
)

// saveUpload copies the "file" form part into a temp file. The returned path
// is non-empty whenever a temp file was created, even on error, and the
// caller must remove it.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, string, error) {
	maxBytes := s.config.MaxUploadMB << 20
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", errTooLarge
		}
		return "", "", errNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		return "", "", errNoFile
	}
	defer file.Close()

	if !isPDFUpload(header.Filename, header.Header.Get("Content-Type")) {
		return "", header.Filename, errNotPDF
	}

	tmp, err := os.CreateTemp("", "ccx-upload-*.pdf")
	if err != nil {
		return "", header.Filename, fmt.Errorf("could not store upload: %w", err)
	}
	defer tmp.Close()

	n, err := io.Copy(tmp, file)
	if err != nil {
		return tmp.Name(), header.Filename, fmt.Errorf("could not store upload: %w", err)
	}
	if n == 0 {
		return tmp.Name(), header.Filename, errEmpty
	}
	return tmp.Name(), header.Filename, nil
}

func isPDFUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "application/pdf", "application/octet-stream":
		return true
	}
	return false
}

// OutputOptions selects the shape of a parse response.
type OutputOptions struct {
	StatementOnly    bool
	TransactionsOnly bool
}

// parseOutputOptions extracts options from the HTTP request
func parseOutputOptions(r *http.Request) OutputOptions {
	return OutputOptions{
		StatementOnly:    r.FormValue("statement_only") == "true" || r.URL.Query().Get("statement_only") == "true",
		TransactionsOnly: r.FormValue("transactions_only") == "true" || r.URL.Query().Get("transactions_only") == "true",
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
