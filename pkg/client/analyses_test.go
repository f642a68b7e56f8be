package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
	"github.com/turtacn/SolarSite-Intelligence/pkg/types/site"
)

const squareGeometry = `{"type":"Polygon","coordinates":[[[77.1,28.6],[77.2,28.6],[77.2,28.7],[77.1,28.7],[77.1,28.6]]]}`

const resultJSON = `{
	"id":"a-1","sessionId":"s-1","name":"Area 1",
	"polygon":[[77.1,28.6],[77.2,28.6],[77.2,28.7],[77.1,28.6]],
	"areaHectares":12.5,"finalScore":81.2,"decision":"Yes",
	"suggestions":[],"subAreas":[],
	"parameters":[{"key":"ghi","name":"Global Horizontal Irradiance","rawValue":5.6,"score":9,"weight":0.2,"weightedScore":1.8},
	              {"key":"seismic","name":"Seismic Risk","rawValue":null,"score":0,"weight":0.03,"weightedScore":0}],
	"analyzedAt":"2026-05-01T10:00:00Z"}`

func TestAnalyses_Analyze(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, squareGeometry, string(body["geometry"]))
		assert.JSONEq(t, `"government"`, string(body["landOwnership"]))
		_, hasSplit := body["splitLargeAreas"]
		assert.False(t, hasSplit)

		_, _ = io.WriteString(w, resultJSON)
	})

	res, err := c.Analyses().Analyze(context.Background(), site.AnalyzeRequest{
		Geometry:      json.RawMessage(squareGeometry),
		LandOwnership: site.OwnershipGovernment,
	})
	require.NoError(t, err)
	assert.Equal(t, site.DecisionYes, res.Decision)
	assert.InDelta(t, 81.2, res.FinalScore, 1e-9)

	ghi, ok := res.Parameter("ghi")
	require.True(t, ok)
	require.NotNil(t, ghi.RawValue)
	assert.InDelta(t, 5.6, *ghi.RawValue, 1e-9)

	seismic, ok := res.Parameter("seismic")
	require.True(t, ok)
	assert.Nil(t, seismic.RawValue)
}

func TestAnalyses_ValidatesInput(t *testing.T) {
	c, err := NewClient("http://unused.invalid")
	require.NoError(t, err)
	a := c.Analyses()
	ctx := context.Background()

	_, err = a.Analyze(ctx, site.AnalyzeRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = a.Analyze(ctx, site.AnalyzeRequest{Geometry: json.RawMessage("null")})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = a.AnalyzeBatch(ctx, site.BatchRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = a.UploadBoundary(ctx, "x.kml", nil, UploadOptions{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = a.Get(ctx, " ")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = a.Similar(ctx, "", 3)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = a.ReportURL(ctx, "")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = a.Enqueue(ctx, site.AnalyzeRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestAnalyses_AnalyzeBatch_MixedResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze/batch", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"sessionId":"s-9",
			"results":[`+resultJSON+`,{"error":"polygon must have at least 4 positions","code":"GEO_001"}],
			"summary":{"count":1,"failed":1,"minScore":81.2,"maxScore":81.2,"meanScore":81.2,"decisions":{"Yes":1}}}`)
	})

	resp, err := c.Analyses().AnalyzeBatch(context.Background(), site.BatchRequest{
		Geometries: []json.RawMessage{json.RawMessage(squareGeometry), json.RawMessage(`{"type":"Polygon","coordinates":[]}`)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	require.NotNil(t, resp.Results[0].Result)
	assert.Equal(t, "Area 1", resp.Results[0].Result.Name)
	require.NotNil(t, resp.Results[1].Failure)
	assert.Equal(t, "GEO_001", resp.Results[1].Failure.Code)
	assert.Equal(t, 1, resp.Summary.Decisions[site.DecisionYes])
}

func TestAnalyses_UploadBoundary(t *testing.T) {
	split := false
	tests := []struct {
		name      string
		filename  string
		opts      UploadOptions
		wantCT    string
		wantQuery map[string]string
	}{
		{
			name:      "kml with options",
			filename:  "/tmp/boundaries/farm.kml",
			opts:      UploadOptions{LandOwnership: site.OwnershipPrivate, SplitLargeAreas: &split, MaxArea: 25},
			wantCT:    "application/vnd.google-earth.kml+xml",
			wantQuery: map[string]string{"filename": "farm.kml", "landOwnership": "private", "splitLargeAreas": "false", "maxArea": "25"},
		},
		{
			name:      "geojson",
			filename:  "plots.GeoJSON",
			wantCT:    "application/geo+json",
			wantQuery: map[string]string{"filename": "plots.GeoJSON"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/analyze/kml", r.URL.Path)
				assert.Equal(t, tt.wantCT, r.Header.Get("Content-Type"))
				q := r.URL.Query()
				assert.Len(t, q, len(tt.wantQuery))
				for k, v := range tt.wantQuery {
					assert.Equal(t, v, q.Get(k), k)
				}
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, "<kml/>", string(body))
				_, _ = io.WriteString(w, `{"sessionId":"s-2","results":[],"summary":{"count":0}}`)
			})

			resp, err := c.Analyses().UploadBoundary(context.Background(), tt.filename, []byte("<kml/>"), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, "s-2", resp.SessionID)
		})
	}
}

func TestAnalyses_Search(t *testing.T) {
	minScore := 60.0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyses", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Yes", q.Get("decision"))
		assert.Equal(t, "60", q.Get("minScore"))
		assert.Empty(t, q.Get("maxScore"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Empty(t, q.Get("offset"))
		_, _ = io.WriteString(w, `{"items":[`+resultJSON+`],"count":1,"limit":10,"offset":0}`)
	})

	resp, err := c.Analyses().Search(context.Background(), site.SearchParams{Decision: site.DecisionYes, MinScore: &minScore, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "a-1", resp.Items[0].ID)
}

func TestAnalyses_HistoryEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/analyses/a-1":
			_, _ = io.WriteString(w, resultJSON)
		case "/api/v1/analyses/a-1/similar":
			assert.Equal(t, "3", r.URL.Query().Get("k"))
			_, _ = io.WriteString(w, `{"analysisId":"a-1","similar":[{"analysisId":"a-7","name":"North","finalScore":77,"decision":"Yes","distance":0.12}]}`)
		case "/api/v1/analyses/a-1/report":
			_, _ = io.WriteString(w, `{"analysisId":"a-1","url":"https://minio.local/reports/a-1.json?sig=x"}`)
		case "/api/v1/parameters":
			_, _ = io.WriteString(w, `{"parameters":[{"key":"ghi","name":"GHI","weight":0.2,"suggestionText":"t"}],"totalWeight":1}`)
		case "/api/analyze/health":
			_, _ = io.WriteString(w, `{"status":"ok","message":"analysis service is running","timestamp":"2026-05-01T10:00:00Z"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"ANALYSIS_004","message":"analysis not found"}`)
		}
	})
	a := c.Analyses()
	ctx := context.Background()

	res, err := a.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", res.SessionID)

	sim, err := a.Similar(ctx, "a-1", 3)
	require.NoError(t, err)
	require.Len(t, sim.Similar, 1)
	assert.Equal(t, "a-7", sim.Similar[0].AnalysisID)

	u, err := a.ReportURL(ctx, "a-1")
	require.NoError(t, err)
	assert.Contains(t, u, "a-1.json")

	params, err := a.Parameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, params.TotalWeight)

	health, err := a.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	_, err = a.Get(ctx, "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestAnalyses_Enqueue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyses/requests", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"requestId":"req-42","status":"queued"}`)
	})
	id, err := c.Analyses().Enqueue(context.Background(), site.AnalyzeRequest{Geometry: json.RawMessage(squareGeometry)})
	require.NoError(t, err)
	assert.Equal(t, "req-42", id)
}

//Personal.AI order the ending
