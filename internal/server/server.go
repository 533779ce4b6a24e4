// Package server exposes the emissions pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/internal/cache"
	"github.com/lastlap/shipment-carbon/internal/tabular"
	"github.com/lastlap/shipment-carbon/model/emissions"
	"github.com/lastlap/shipment-carbon/model/insight"
)

const (
	DefaultMaxUploadBytes = 30 << 20
	DefaultCacheTTL       = 5 * time.Minute

	resultsFilename = "emissions_results.csv"
)

type Option func(s *Server)

// WithMaxUploadBytes caps the size of a compute request body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxUploadBytes = n
	}
}

// WithCacheTTL sets how long identical compute requests are served from memory.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.cacheTTL = ttl
	}
}

type Server struct {
	pipeline       *emissions.Pipeline
	cache          *cache.Memory[*computation]
	cacheTTL       time.Duration
	maxUploadBytes int64
}

// New returns a server computing uploads with pipeline. The response cache
// is swept until ctx is done.
func New(ctx context.Context, pipeline *emissions.Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline:       pipeline,
		cacheTTL:       DefaultCacheTTL,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, option := range opts {
		option(s)
	}
	s.cache = cache.NewMemory[*computation](ctx, s.cacheTTL)
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("POST /api/compute", s.handleCompute)
	return mux
}

// ScopeBreakdown is the per scope total of a compute response.
type ScopeBreakdown struct {
	Scope1 float64 `json:"scope1"`
	Scope2 float64 `json:"scope2"`
	Scope3 float64 `json:"scope3"`
}

type ComputeResponse struct {
	TotalKgCO2              float64                      `json:"total_kgCO2"`
	Scope                   ScopeBreakdown               `json:"scope"`
	StageBreakdown          []shipmentcarbon.StageTotal  `json:"stage_breakdown"`
	Hotspot                 map[string]any               `json:"hotspot"`
	Suggestion              string                       `json:"suggestion"`
	EstimatedReductionKgCO2 float64                      `json:"estimated_reduction_kgCO2"`
	ResultsCSV              []byte                       `json:"results_csv"`
	Sensitivity             []shipmentcarbon.Sensitivity `json:"sensitivity,omitempty"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// computation is everything a compute request can be answered with.
type computation struct {
	preset  string
	records int
	summary shipmentcarbon.EmissionsSummary
	csv     []byte
	sweep   []shipmentcarbon.Sensitivity
}

// requestError is a failure caused by the request content.
type requestError struct {
	status int
	msg    string
	err    error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequest(msg string, err error) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: msg, err: err}
}

func traceAttr(r *http.Request) slog.Attr {
	if traceID := r.Header.Get("X-Cloud-Trace-Context"); traceID != "" {
		return slog.String("logging.googleapis.com/trace", traceID)
	}
	return slog.Attr{}
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.ListPresets())
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	upload, err := readUpload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	preset := strings.TrimSpace(r.FormValue("preset"))
	compareAll := slices.Contains([]string{"1", "true", "True"}, r.FormValue("compare_all"))
	download := isTruthy(r.URL.Query().Get("download")) || isTruthy(r.PostFormValue("download"))

	key := cacheKey(upload, preset, compareAll)
	result, err := s.cache.GetOrSet(r.Context(), key, func(ctx context.Context) (*computation, error) {
		return s.compute(ctx, upload, preset, compareAll)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	slog.Info("shipment table computed",
		"preset", preset,
		"records", result.records,
		"compare_all", compareAll,
		"duration_ms", time.Since(start).Milliseconds(),
		traceAttr(r),
	)

	switch {
	case download:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", resultsFilename))
		w.WriteHeader(http.StatusOK)
		w.Write(result.csv)
	case r.URL.Query().Get("format") == "openmetrics":
		metrics := shipmentcarbon.SummaryMetrics(result.preset, result.summary)
		metrics = append(metrics, shipmentcarbon.SensitivityMetrics(result.sweep)...)
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		if err := shipmentcarbon.WriteMetrics(w, metrics); err != nil {
			slog.Error("failed to write metrics", "err", err.Error(), traceAttr(r))
		}
	default:
		writeJSON(w, http.StatusOK, result.response())
	}
}

// readUpload returns the content of the multipart "file" field.
func readUpload(r *http.Request) ([]byte, error) {
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, badRequest("No file part in request (field 'file' missing)", nil)
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return nil, &requestError{status: http.StatusRequestEntityTooLarge, msg: "Upload too large", err: err}
	}
	if err != nil {
		return nil, badRequest("Invalid multipart request", err)
	}
	defer f.Close()

	if header.Filename == "" {
		return nil, badRequest("No file selected", nil)
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return nil, badRequest("Only CSV uploads are allowed", nil)
	}

	upload, err := io.ReadAll(f)
	if err != nil {
		return nil, badRequest("Failed to read upload", err)
	}
	return upload, nil
}

func (s *Server) compute(ctx context.Context, upload []byte, preset string, compareAll bool) (*computation, error) {
	sheet, err := tabular.Read(bytes.NewReader(upload))
	if err != nil {
		return nil, badRequest("Failed to parse CSV", err)
	}

	results, err := s.pipeline.Run(sheet.Records, preset)
	if err != nil {
		return nil, err
	}

	summary, err := insight.Summarize(results)
	if err != nil {
		return nil, err
	}

	out := new(bytes.Buffer)
	if err := tabular.Write(out, sheet.Columns, results); err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}

	result := &computation{
		preset:  preset,
		records: len(results.Records),
		summary: summary,
		csv:     out.Bytes(),
	}

	if compareAll {
		result.sweep, err = s.pipeline.CompareAll(ctx, sheet.Records)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (c *computation) response() ComputeResponse {
	return ComputeResponse{
		TotalKgCO2: c.summary.Total,
		Scope: ScopeBreakdown{
			Scope1: c.summary.Scopes.Scope1,
			Scope2: c.summary.Scopes.Scope2,
			Scope3: c.summary.Scopes.Scope3,
		},
		StageBreakdown:          c.summary.Stages,
		Hotspot:                 tabular.RecordMap(c.summary.Hotspot),
		Suggestion:              c.summary.Suggestion,
		EstimatedReductionKgCO2: c.summary.EstimatedReductionKg,
		ResultsCSV:              c.csv,
		Sensitivity:             c.sweep,
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		slog.Warn("invalid compute request", "err", err.Error(), traceAttr(r))
		writeJSON(w, reqErr.status, ErrorResponse{Error: reqErr.msg, Detail: errDetail(reqErr.err)})
	case errors.Is(err, shipmentcarbon.ErrUnknownPreset),
		errors.Is(err, shipmentcarbon.ErrEmptyTable),
		errors.Is(err, shipmentcarbon.ErrMissingColumn):
		slog.Warn("invalid compute request", "err", err.Error(), traceAttr(r))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request", Detail: err.Error()})
	default:
		slog.Error("failed to compute shipment table", "err", err.Error(), traceAttr(r))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "server error", Detail: err.Error()})
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err.Error())
	}
}

func cacheKey(upload []byte, preset string, compareAll bool) string {
	h := sha256.New()
	h.Write(upload)
	fmt.Fprintf(h, "\x00%s\x00%t", preset, compareAll)
	return hex.EncodeToString(h.Sum(nil))
}

func isTruthy(v string) bool {
	return slices.Contains([]string{"1", "true", "yes"}, strings.ToLower(v))
}
