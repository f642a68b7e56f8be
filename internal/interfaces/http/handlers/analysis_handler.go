package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/partition"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
	"github.com/turtacn/SolarSite-Intelligence/pkg/types/common"
)

// Analyzer is the orchestrator surface the handlers need.
type Analyzer interface {
	Analyze(ctx context.Context, sess analysis.AnalysisSession, site analysis.Site) (analysis.AnalysisSession, *analysis.AreaAnalysisResult, error)
	AnalyzeBatch(ctx context.Context, sess analysis.AnalysisSession, sites []analysis.Site) (analysis.AnalysisSession, []analysis.BatchItem)
	Parameters() *suitability.ParameterSet
}

// BoundaryParser extracts sites from uploaded boundaries.
type BoundaryParser interface {
	Parse(filename string, data []byte) ([]analysis.Site, error)
	ParseGeoJSON(data []byte) ([]analysis.Site, error)
}

// UploadArchiver keeps a copy of uploaded boundary files.
type UploadArchiver interface {
	ArchiveUpload(ctx context.Context, sessionID, filename string, data []byte) (string, error)
}

// AnalysisDefaults apply when a request leaves an option out.
type AnalysisDefaults struct {
	LandOwnership   suitability.LandOwnership
	SplitLargeAreas bool
	MaxBodyBytes    int64
}

// AnalysisHandler serves the /api/analyze endpoints and the parameter table.
type AnalysisHandler struct {
	analyzer Analyzer
	parser   BoundaryParser
	archiver UploadArchiver
	queue    analysis.RequestQueue
	defaults AnalysisDefaults
	logger   logging.Logger
	now      func() time.Time
}

type AnalysisHandlerOption func(*AnalysisHandler)

// WithArchiver stores KML/GeoJSON uploads before they are analyzed.
func WithArchiver(a UploadArchiver) AnalysisHandlerOption {
	return func(h *AnalysisHandler) { h.archiver = a }
}

// WithRequestQueue enables POST /api/v1/analyses/requests.
func WithRequestQueue(q analysis.RequestQueue) AnalysisHandlerOption {
	return func(h *AnalysisHandler) { h.queue = q }
}

func WithDefaults(d AnalysisDefaults) AnalysisHandlerOption {
	return func(h *AnalysisHandler) { h.defaults = d }
}

func NewAnalysisHandler(a Analyzer, p BoundaryParser, logger logging.Logger, opts ...AnalysisHandlerOption) *AnalysisHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	h := &AnalysisHandler{
		analyzer: a,
		parser:   p,
		logger:   logger.Named("http.analysis"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Geometry        json.RawMessage `json:"geometry"`
	Name            string          `json:"name,omitempty"`
	LandOwnership   string          `json:"landOwnership,omitempty"`
	SplitLargeAreas *bool           `json:"splitLargeAreas,omitempty"`
	MaxArea         float64         `json:"maxArea,omitempty"`
}

// BatchRequest is the body of POST /api/analyze/batch.
type BatchRequest struct {
	Geometries      []json.RawMessage `json:"geometries"`
	LandOwnership   string            `json:"landOwnership,omitempty"`
	SplitLargeAreas *bool             `json:"splitLargeAreas,omitempty"`
	MaxArea         float64           `json:"maxArea,omitempty"`
}

// BatchError stands in for a result in a batch response when a geometry
// could not be analyzed.
type BatchError struct {
	Error    string          `json:"error"`
	Code     string          `json:"code,omitempty"`
	Name     string          `json:"name,omitempty"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// BatchResponse answers the batch and upload endpoints. Results holds an
// *analysis.AreaAnalysisResult or a BatchError per input, in input order.
type BatchResponse struct {
	SessionID  string                `json:"sessionId"`
	Results    []interface{}         `json:"results"`
	Summary    analysis.BatchSummary `json:"summary"`
	ArchiveKey string                `json:"archiveKey,omitempty"`
}

// HealthResponse is the body of GET /api/analyze/health.
type HealthResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	Timestamp common.Timestamp `json:"timestamp"`
}

// ParametersResponse lists the active parameter table.
type ParametersResponse struct {
	Parameters  []suitability.ParameterSpec `json:"parameters"`
	TotalWeight float64                     `json:"totalWeight"`
}

// EnqueueResponse acknowledges a queued request.
type EnqueueResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

func (h *AnalysisHandler) options(ownership string, split *bool, maxArea float64) (analysis.Options, error) {
	opts := analysis.Options{
		LandOwnership:   h.defaults.LandOwnership,
		SplitLargeAreas: h.defaults.SplitLargeAreas,
		MaxArea:         maxArea,
	}
	if ownership != "" {
		o, err := suitability.ParseLandOwnership(ownership)
		if err != nil {
			return opts, err
		}
		opts.LandOwnership = o
	}
	if split != nil {
		opts.SplitLargeAreas = *split
	}
	if err := partition.ValidateMaxArea(maxArea); err != nil {
		return opts, err
	}
	return opts, nil
}

// Analyze handles POST /api/analyze.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, h.defaults.MaxBodyBytes, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if len(req.Geometry) == 0 || string(req.Geometry) == "null" {
		writeAppError(w, h.logger, errors.InvalidParam("geometry is required"))
		return
	}
	opts, err := h.options(req.LandOwnership, req.SplitLargeAreas, req.MaxArea)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	sites, err := h.parser.ParseGeoJSON(req.Geometry)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if len(sites) > 1 {
		writeAppError(w, h.logger, errors.InvalidParam(
			fmt.Sprintf("geometry holds %d polygons; use /api/analyze/batch to analyze each", len(sites))))
		return
	}
	site := sites[0]
	if name := strings.TrimSpace(req.Name); name != "" {
		site.Name = name
	}

	_, res, err := h.analyzer.Analyze(r.Context(), analysis.NewSession(opts), site)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AnalyzeBatch handles POST /api/analyze/batch. A geometry that fails to
// parse or analyze is reported in place and never affects the others.
func (h *AnalysisHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, h.defaults.MaxBodyBytes, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if len(req.Geometries) == 0 {
		writeAppError(w, h.logger, errors.InvalidParam("geometries must not be empty"))
		return
	}
	opts, err := h.options(req.LandOwnership, req.SplitLargeAreas, req.MaxArea)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	results := make([]interface{}, len(req.Geometries))
	var sites []analysis.Site
	var slots []int
	for i, raw := range req.Geometries {
		parsed, err := h.parser.ParseGeoJSON(raw)
		if err != nil {
			results[i] = batchError(err, "", raw)
			continue
		}
		if len(parsed) > 1 {
			results[i] = batchError(errors.InvalidParam(
				fmt.Sprintf("geometry holds %d polygons; submit each as its own entry", len(parsed))), "", raw)
			continue
		}
		site := parsed[0]
		if site.AutoNamed {
			site.Name = fmt.Sprintf("Area %d", i+1)
		}
		sites = append(sites, site)
		slots = append(slots, i)
	}

	sess := analysis.NewSession(opts)
	if len(sites) > 0 {
		var items []analysis.BatchItem
		sess, items = h.analyzer.AnalyzeBatch(r.Context(), sess, sites)
		for j, it := range items {
			i := slots[j]
			if it.Err != nil {
				results[i] = batchError(it.Err, it.Site.Name, req.Geometries[i])
				continue
			}
			results[i] = it.Result
		}
	}

	summary := sess.Summary()
	summary.Failed = len(req.Geometries) - summary.Count
	writeJSON(w, http.StatusOK, BatchResponse{SessionID: sess.ID, Results: results, Summary: summary})
}

// AnalyzeUpload handles POST /api/analyze/kml. The boundary arrives either
// as the multipart field "file" or as the raw body; every polygon in it is
// analyzed.
func (h *AnalysisHandler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.readUpload(w, r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	var split *bool
	if v := q.Get("splitLargeAreas"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			writeAppError(w, h.logger, errors.InvalidParam("splitLargeAreas must be a boolean"))
			return
		}
		split = &b
	}
	maxArea, err := queryFloat(r, "maxArea")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	var ma float64
	if maxArea != nil {
		ma = *maxArea
	}
	opts, err := h.options(q.Get("landOwnership"), split, ma)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	sites, err := h.parser.Parse(filename, data)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	sess := analysis.NewSession(opts)
	resp := BatchResponse{SessionID: sess.ID}
	if h.archiver != nil {
		key, aerr := h.archiver.ArchiveUpload(r.Context(), sess.ID, filename, data)
		if aerr != nil {
			h.logger.Warn("upload archive failed", logging.SessionID(sess.ID), logging.Err(aerr))
		}
		resp.ArchiveKey = key
	}

	sess, items := h.analyzer.AnalyzeBatch(r.Context(), sess, sites)
	resp.Results = make([]interface{}, len(items))
	for i, it := range items {
		if it.Err != nil {
			resp.Results[i] = batchError(it.Err, it.Site.Name, nil)
			continue
		}
		resp.Results[i] = it.Result
	}
	resp.Summary = sess.Summary()
	writeJSON(w, http.StatusOK, resp)
}

func (h *AnalysisHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := h.defaults.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.Wrap(err, errors.ErrCodeBadRequest, "multipart field \"file\" is required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read upload")
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, errors.Newf(errors.ErrCodeBadRequest, "upload exceeds %d bytes", limit)
		}
		return "", nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read upload")
	}
	if len(data) == 0 {
		return "", nil, errors.InvalidParam("upload is empty")
	}
	name := r.URL.Query().Get("filename")
	if name == "" {
		name = "boundary.kml"
	}
	return name, data, nil
}

// Health handles GET /api/analyze/health.
func (h *AnalysisHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Message:   "Analysis API is running",
		Timestamp: common.Timestamp(h.now()),
	})
}

// Parameters handles GET /api/v1/parameters.
func (h *AnalysisHandler) Parameters(w http.ResponseWriter, r *http.Request) {
	ps := h.analyzer.Parameters()
	writeJSON(w, http.StatusOK, ParametersResponse{Parameters: ps.Specs(), TotalWeight: ps.TotalWeight()})
}

// Enqueue handles POST /api/v1/analyses/requests.
func (h *AnalysisHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeFeatureDisabled, "request queue is not configured"))
		return
	}
	var req analysis.QueuedRequest
	if err := decodeJSON(w, r, h.defaults.MaxBodyBytes, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if len(req.Geometry) == 0 || string(req.Geometry) == "null" {
		writeAppError(w, h.logger, errors.InvalidParam("geometry is required"))
		return
	}
	if _, err := suitability.ParseLandOwnership(req.LandOwnership); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := partition.ValidateMaxArea(req.MaxArea); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if _, err := h.parser.ParseGeoJSON(req.Geometry); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	id, err := h.queue.Enqueue(r.Context(), req)
	if err != nil {
		writeAppError(w, h.logger, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to queue analysis"))
		return
	}
	writeJSON(w, http.StatusAccepted, EnqueueResponse{RequestID: id, Status: "queued"})
}

func batchError(err error, name string, geometry json.RawMessage) BatchError {
	return BatchError{
		Error:    err.Error(),
		Code:     string(errors.GetCode(err)),
		Name:     name,
		Geometry: geometry,
	}
}

//Personal.AI order the ending
