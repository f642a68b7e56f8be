package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
	"github.com/turtacn/SolarSite-Intelligence/pkg/types/common"
	"github.com/turtacn/SolarSite-Intelligence/pkg/types/site"
)

// AnalysesClient covers the /api/analyze and /api/v1 analysis endpoints.
type AnalysesClient struct {
	client *Client
}

// HealthResponse is the body of GET /api/analyze/health.
type HealthResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	Timestamp common.Timestamp `json:"timestamp"`
}

// UploadOptions are sent as query parameters with a boundary upload.
type UploadOptions struct {
	LandOwnership   site.LandOwnership
	SplitLargeAreas *bool
	MaxArea         float64
}

func geometryRequired(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.InvalidParam("geometry is required")
	}
	return nil
}

// Analyze scores one polygon.
func (a *AnalysesClient) Analyze(ctx context.Context, req site.AnalyzeRequest) (*site.AnalysisResult, error) {
	if err := geometryRequired(req.Geometry); err != nil {
		return nil, err
	}
	var out site.AnalysisResult
	if err := a.client.post(ctx, "/api/analyze", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeBatch scores each geometry independently; failures come back in
// place.
func (a *AnalysesClient) AnalyzeBatch(ctx context.Context, req site.BatchRequest) (*site.BatchResponse, error) {
	if len(req.Geometries) == 0 {
		return nil, errors.InvalidParam("geometries must not be empty")
	}
	var out site.BatchResponse
	if err := a.client.post(ctx, "/api/analyze/batch", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadBoundary sends a KML or GeoJSON file as the raw request body and
// analyzes every polygon in it.
func (a *AnalysesClient) UploadBoundary(ctx context.Context, filename string, data []byte, opts UploadOptions) (*site.BatchResponse, error) {
	if len(data) == 0 {
		return nil, errors.InvalidParam("upload is empty")
	}
	q := url.Values{}
	if filename != "" {
		q.Set("filename", path.Base(filename))
	}
	if opts.LandOwnership != "" {
		q.Set("landOwnership", string(opts.LandOwnership))
	}
	if opts.SplitLargeAreas != nil {
		q.Set("splitLargeAreas", strconv.FormatBool(*opts.SplitLargeAreas))
	}
	if opts.MaxArea > 0 {
		q.Set("maxArea", strconv.FormatFloat(opts.MaxArea, 'g', -1, 64))
	}

	ct := "application/vnd.google-earth.kml+xml"
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".geojson") || strings.HasSuffix(lower, ".json") {
		ct = "application/geo+json"
	}

	var out site.BatchResponse
	err := a.client.do(ctx, request{method: http.MethodPost, path: "/api/analyze/kml", query: q, body: data, contentType: ct}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AnalysesClient) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := a.client.get(ctx, "/api/analyze/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Parameters returns the server's active parameter table.
func (a *AnalysesClient) Parameters(ctx context.Context) (*site.ParametersResponse, error) {
	var out site.ParametersResponse
	if err := a.client.get(ctx, "/api/v1/parameters", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AnalysesClient) Get(ctx context.Context, id string) (*site.AnalysisResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("analysis id is required")
	}
	var out site.AnalysisResult
	if err := a.client.get(ctx, "/api/v1/analyses/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AnalysesClient) Search(ctx context.Context, p site.SearchParams) (*site.SearchResponse, error) {
	q := url.Values{}
	if p.Decision != "" {
		q.Set("decision", string(p.Decision))
	}
	if p.SessionID != "" {
		q.Set("sessionId", p.SessionID)
	}
	if p.MinScore != nil {
		q.Set("minScore", strconv.FormatFloat(*p.MinScore, 'g', -1, 64))
	}
	if p.MaxScore != nil {
		q.Set("maxScore", strconv.FormatFloat(*p.MaxScore, 'g', -1, 64))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	var out site.SearchResponse
	if err := a.client.get(ctx, "/api/v1/analyses", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Similar lists up to k past analyses closest to id; k <= 0 uses the server
// default.
func (a *AnalysesClient) Similar(ctx context.Context, id string, k int) (*site.SimilarResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("analysis id is required")
	}
	q := url.Values{}
	if k > 0 {
		q.Set("k", strconv.Itoa(k))
	}
	var out site.SimilarResponse
	if err := a.client.get(ctx, "/api/v1/analyses/"+url.PathEscape(id)+"/similar", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportURL returns a presigned link to the stored report of id.
func (a *AnalysesClient) ReportURL(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.InvalidParam("analysis id is required")
	}
	var out site.ReportResponse
	if err := a.client.get(ctx, "/api/v1/analyses/"+url.PathEscape(id)+"/report", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Enqueue hands the request to the background worker and returns its id.
func (a *AnalysesClient) Enqueue(ctx context.Context, req site.AnalyzeRequest) (string, error) {
	if err := geometryRequired(req.Geometry); err != nil {
		return "", err
	}
	var out site.EnqueueResponse
	if err := a.client.post(ctx, "/api/v1/analyses/requests", req, &out); err != nil {
		return "", err
	}
	return out.RequestID, nil
}

//Personal.AI order the ending
