package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/application/ingestion"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

const squareGeometry = `{"type":"Polygon","coordinates":[[[77.1,28.1],[77.11,28.1],[77.11,28.11],[77.1,28.11],[77.1,28.1]]]}`

const twoSquares = `{"type":"MultiPolygon","coordinates":[` +
	`[[[77.1,28.1],[77.11,28.1],[77.11,28.11],[77.1,28.11],[77.1,28.1]]],` +
	`[[[78.1,28.1],[78.11,28.1],[78.11,28.11],[78.1,28.11],[78.1,28.1]]]]}`

const namedSquare = `{"type":"Feature","properties":{"name":"Area 51"},"geometry":` + squareGeometry + `}`

const twoPlacemarks = `<kml><Document>
<Placemark><name>North</name><Polygon><outerBoundaryIs><LinearRing><coordinates>77.1,28.1 77.2,28.1 77.2,28.2 77.1,28.1</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark>
<Placemark><name>South</name><Polygon><outerBoundaryIs><LinearRing><coordinates>77.1,27.1 77.2,27.1 77.2,27.2 77.1,27.1</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark>
</Document></kml>`

// fakeAnalyzer scores every site with a fixed result unless failing names it.
type fakeAnalyzer struct {
	failing  map[string]error
	lastSess analysis.AnalysisSession
	sites    []analysis.Site
}

func (f *fakeAnalyzer) result(sess analysis.AnalysisSession, site analysis.Site) *analysis.AreaAnalysisResult {
	return &analysis.AreaAnalysisResult{
		ID:            "id-" + site.Name,
		SessionID:     sess.ID,
		Name:          site.Name,
		Polygon:       site.Polygon,
		FinalScore:    7.4,
		Decision:      suitability.DecisionYes,
		LandOwnership: sess.Options.LandOwnership,
	}
}

func (f *fakeAnalyzer) Analyze(_ context.Context, sess analysis.AnalysisSession, site analysis.Site) (analysis.AnalysisSession, *analysis.AreaAnalysisResult, error) {
	f.lastSess = sess
	f.sites = append(f.sites, site)
	if err := f.failing[site.Name]; err != nil {
		return sess, nil, err
	}
	res := f.result(sess, site)
	return sess.WithResult(res), res, nil
}

func (f *fakeAnalyzer) AnalyzeBatch(_ context.Context, sess analysis.AnalysisSession, sites []analysis.Site) (analysis.AnalysisSession, []analysis.BatchItem) {
	f.lastSess = sess
	f.sites = append(f.sites, sites...)
	items := make([]analysis.BatchItem, len(sites))
	for i, s := range sites {
		items[i].Site = s
		if err := f.failing[s.Name]; err != nil {
			items[i].Err = err
			sess = sess.WithFailure(analysis.SiteFailure{Name: s.Name})
			continue
		}
		items[i].Result = f.result(sess, s)
		sess = sess.WithResult(items[i].Result)
	}
	return sess, items
}

func (f *fakeAnalyzer) Parameters() *suitability.ParameterSet { return suitability.DefaultParameterSet() }

type mockArchiver struct{ mock.Mock }

func (m *mockArchiver) ArchiveUpload(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	args := m.Called(ctx, sessionID, filename, data)
	return args.String(0), args.Error(1)
}

type mockQueue struct{ mock.Mock }

func (m *mockQueue) Enqueue(ctx context.Context, req analysis.QueuedRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type AnalysisHandlerSuite struct {
	suite.Suite
	analyzer *fakeAnalyzer
	archiver *mockArchiver
	queue    *mockQueue
	handler  *AnalysisHandler
}

func (s *AnalysisHandlerSuite) SetupTest() {
	s.analyzer = &fakeAnalyzer{failing: map[string]error{}}
	s.archiver = &mockArchiver{}
	s.queue = &mockQueue{}
	s.handler = NewAnalysisHandler(s.analyzer, ingestion.NewParser(0, nil), nil,
		WithArchiver(s.archiver),
		WithRequestQueue(s.queue),
		WithDefaults(AnalysisDefaults{SplitLargeAreas: true}),
	)
	s.handler.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
}

func (s *AnalysisHandlerSuite) TearDownTest() {
	s.archiver.AssertExpectations(s.T())
	s.queue.AssertExpectations(s.T())
}

func (s *AnalysisHandlerSuite) serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func (s *AnalysisHandlerSuite) errorBody(w *httptest.ResponseRecorder) ErrorResponse {
	var e ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func (s *AnalysisHandlerSuite) TestAnalyze_Success() {
	body := `{"geometry":` + squareGeometry + `,"name":"Plot 9","landOwnership":"private","splitLargeAreas":false}`
	w := s.serve(s.handler.Analyze, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body)))

	s.Equal(http.StatusOK, w.Code)
	var res analysis.AreaAnalysisResult
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.Equal("Plot 9", res.Name)
	s.Equal(suitability.DecisionYes, res.Decision)
	s.Equal(suitability.OwnershipPrivate, s.analyzer.lastSess.Options.LandOwnership)
	s.False(s.analyzer.lastSess.Options.SplitLargeAreas)
}

func (s *AnalysisHandlerSuite) TestAnalyze_DefaultsApply() {
	body := `{"geometry":` + squareGeometry + `}`
	w := s.serve(s.handler.Analyze, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body)))

	s.Equal(http.StatusOK, w.Code)
	s.True(s.analyzer.lastSess.Options.SplitLargeAreas)
	s.Equal("Area 1", s.analyzer.sites[0].Name)
}

func (s *AnalysisHandlerSuite) TestAnalyze_BadRequests() {
	cases := []struct {
		name string
		body string
		code errors.ErrorCode
	}{
		{"missing geometry", `{}`, errors.ErrCodeBadRequest},
		{"null geometry", `{"geometry":null}`, errors.ErrCodeBadRequest},
		{"malformed json", `{"geometry":`, errors.ErrCodeSerialization},
		{"empty body", ``, errors.ErrCodeBadRequest},
		{"bad ownership", `{"geometry":` + squareGeometry + `,"landOwnership":"lease"}`, errors.ErrCodeScoringOwnership},
		{"negative max area", `{"geometry":` + squareGeometry + `,"maxArea":-1}`, errors.ErrCodeBadRequest},
		{"max area below floor", `{"geometry":` + squareGeometry + `,"maxArea":1e-13}`, errors.ErrCodeBadRequest},
		{"several polygons", `{"geometry":` + twoSquares + `}`, errors.ErrCodeBadRequest},
		{"not a polygon", `{"geometry":{"type":"Point","coordinates":[1,2]}}`, errors.ErrCodeBoundaryUnsupported},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.serve(s.handler.Analyze, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tc.body)))
			s.Equal(errors.HTTPStatusForCode(tc.code), w.Code)
			s.Equal(string(tc.code), s.errorBody(w).Code)
		})
	}
}

func (s *AnalysisHandlerSuite) TestAnalyze_FailureIsMasked() {
	s.analyzer.failing["Area 1"] = &analysis.StageError{
		Site:  "Area 1",
		Stage: analysis.StageFetch,
		Err:   errors.New(errors.ErrCodeAnalysisServiceFailed, "remote analysis failed").WithDetail("earth engine quota"),
	}
	body := `{"geometry":` + squareGeometry + `}`
	w := s.serve(s.handler.Analyze, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body)))

	s.Equal(http.StatusInternalServerError, w.Code)
	e := s.errorBody(w)
	s.Equal(string(errors.ErrCodeAnalysisServiceFailed), e.Code)
	s.Equal("analysis failed", e.Message)
	s.Empty(e.Detail)
}

func (s *AnalysisHandlerSuite) TestAnalyzeBatch_MixedOutcomes() {
	body := `{"geometries":[{"type":"Point","coordinates":[1,2]},` + squareGeometry + `,` + squareGeometry + `],"landOwnership":"government"}`
	s.analyzer.failing["Area 3"] = errors.New(errors.ErrCodeAnalysisServiceFailed, "boom")

	w := s.serve(s.handler.AnalyzeBatch, httptest.NewRequest(http.MethodPost, "/api/analyze/batch", strings.NewReader(body)))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		SessionID string                   `json:"sessionId"`
		Results   []map[string]interface{} `json:"results"`
		Summary   analysis.BatchSummary    `json:"summary"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Results, 3)

	s.Contains(resp.Results[0], "error")
	s.Contains(resp.Results[0], "geometry")
	s.Equal("Area 2", resp.Results[1]["name"])
	s.Equal("Yes", resp.Results[1]["decision"])
	s.Equal("Area 3", resp.Results[2]["name"])
	s.Equal(string(errors.ErrCodeAnalysisServiceFailed), resp.Results[2]["code"])

	s.Equal(1, resp.Summary.Count)
	s.Equal(2, resp.Summary.Failed)
	s.Equal(suitability.OwnershipGovernment, s.analyzer.lastSess.Options.LandOwnership)
	s.NotEmpty(resp.SessionID)
}

func (s *AnalysisHandlerSuite) TestAnalyze_SeveralPolygonsNotAnalyzed() {
	body := `{"geometry":` + twoSquares + `}`
	w := s.serve(s.handler.Analyze, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body)))

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.errorBody(w).Message, "/api/analyze/batch")
	s.Empty(s.analyzer.sites)
}

func (s *AnalysisHandlerSuite) TestAnalyzeBatch_KeepsFileNames() {
	body := `{"geometries":[` + squareGeometry + `,` + namedSquare + `,` + twoSquares + `]}`
	w := s.serve(s.handler.AnalyzeBatch, httptest.NewRequest(http.MethodPost, "/api/analyze/batch", strings.NewReader(body)))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Results []map[string]interface{} `json:"results"`
		Summary analysis.BatchSummary    `json:"summary"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Results, 3)
	s.Equal("Area 1", resp.Results[0]["name"])
	s.Equal("Area 51", resp.Results[1]["name"])
	s.Equal(string(errors.ErrCodeBadRequest), resp.Results[2]["code"])
	s.Equal(2, resp.Summary.Count)
	s.Equal(1, resp.Summary.Failed)
}

func (s *AnalysisHandlerSuite) TestAnalyzeBatch_Empty() {
	w := s.serve(s.handler.AnalyzeBatch, httptest.NewRequest(http.MethodPost, "/api/analyze/batch", strings.NewReader(`{"geometries":[]}`)))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AnalysisHandlerSuite) TestAnalyzeUpload_RawKML() {
	s.archiver.On("ArchiveUpload", mock.Anything, mock.AnythingOfType("string"), "survey.kml", []byte(twoPlacemarks)).
		Return("sessions/x/survey.kml", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/kml?filename=survey.kml&landOwnership=private", strings.NewReader(twoPlacemarks))
	w := s.serve(s.handler.AnalyzeUpload, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp BatchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Results, 2)
	s.Equal("sessions/x/survey.kml", resp.ArchiveKey)
	s.Equal(2, resp.Summary.Count)
	s.Equal([]string{"North", "South"}, []string{s.analyzer.sites[0].Name, s.analyzer.sites[1].Name})
	s.Equal(suitability.OwnershipPrivate, s.analyzer.lastSess.Options.LandOwnership)
}

func (s *AnalysisHandlerSuite) TestAnalyzeUpload_Multipart() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "site.kml")
	s.Require().NoError(err)
	_, _ = fw.Write([]byte(twoPlacemarks))
	s.Require().NoError(mw.Close())

	s.archiver.On("ArchiveUpload", mock.Anything, mock.Anything, "site.kml", mock.Anything).
		Return("", errors.New(errors.ErrCodeStorageUploadFailed, "minio down")).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/kml?splitLargeAreas=false", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.serve(s.handler.AnalyzeUpload, req)

	s.Require().Equal(http.StatusOK, w.Code)
	s.False(s.analyzer.lastSess.Options.SplitLargeAreas)
	var resp BatchResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Empty(resp.ArchiveKey)
	s.Len(resp.Results, 2)
}

func (s *AnalysisHandlerSuite) TestAnalyzeUpload_Errors() {
	w := s.serve(s.handler.AnalyzeUpload, httptest.NewRequest(http.MethodPost, "/api/analyze/kml", strings.NewReader("")))
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.serve(s.handler.AnalyzeUpload, httptest.NewRequest(http.MethodPost, "/api/analyze/kml", strings.NewReader("<kml><Document/></kml>")))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("No valid geometry found in KML file.", s.errorBody(w).Message)

	w = s.serve(s.handler.AnalyzeUpload, httptest.NewRequest(http.MethodPost, "/api/analyze/kml?splitLargeAreas=maybe", strings.NewReader(twoPlacemarks)))
	s.Equal(http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/kml", strings.NewReader("--x--"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w = s.serve(s.handler.AnalyzeUpload, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AnalysisHandlerSuite) TestHealth() {
	w := s.serve(s.handler.Health, httptest.NewRequest(http.MethodGet, "/api/analyze/health", nil))
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"OK","message":"Analysis API is running","timestamp":"2026-03-01T09:30:00.000000Z"}`, w.Body.String())
}

func (s *AnalysisHandlerSuite) TestParameters() {
	w := s.serve(s.handler.Parameters, httptest.NewRequest(http.MethodGet, "/api/v1/parameters", nil))
	s.Require().Equal(http.StatusOK, w.Code)
	var resp ParametersResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Parameters, 15)
	s.InDelta(1.0, resp.TotalWeight, 1e-6)
}

func (s *AnalysisHandlerSuite) TestEnqueue() {
	s.queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(r analysis.QueuedRequest) bool {
		return r.Name == "Plot 1" && r.LandOwnership == "barren"
	})).Return("req-42", nil).Once()

	body := `{"name":"Plot 1","geometry":` + squareGeometry + `,"landOwnership":"barren"}`
	w := s.serve(s.handler.Enqueue, httptest.NewRequest(http.MethodPost, "/api/v1/analyses/requests", strings.NewReader(body)))

	s.Equal(http.StatusAccepted, w.Code)
	s.JSONEq(`{"requestId":"req-42","status":"queued"}`, w.Body.String())
}

func (s *AnalysisHandlerSuite) TestEnqueue_Rejected() {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"no geometry", `{"name":"x"}`, http.StatusBadRequest},
		{"bad ownership", `{"geometry":` + squareGeometry + `,"landOwnership":"x"}`, http.StatusBadRequest},
		{"max area below floor", `{"geometry":` + squareGeometry + `,"maxArea":1e-12}`, http.StatusBadRequest},
		{"bad geometry", `{"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}`, http.StatusUnsupportedMediaType},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.serve(s.handler.Enqueue, httptest.NewRequest(http.MethodPost, "/api/v1/analyses/requests", strings.NewReader(tc.body)))
			s.Equal(tc.status, w.Code)
		})
	}
}

func (s *AnalysisHandlerSuite) TestEnqueue_QueueDown() {
	s.queue.On("Enqueue", mock.Anything, mock.Anything).Return("", errors.New(errors.ErrCodeExternalService, "broker gone")).Once()
	body := `{"geometry":` + squareGeometry + `}`
	w := s.serve(s.handler.Enqueue, httptest.NewRequest(http.MethodPost, "/api/v1/analyses/requests", strings.NewReader(body)))
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestAnalysisHandlerSuite(t *testing.T) {
	suite.Run(t, new(AnalysisHandlerSuite))
}

func TestEnqueue_WithoutQueue(t *testing.T) {
	h := NewAnalysisHandler(&fakeAnalyzer{}, ingestion.NewParser(0, nil), nil)
	w := httptest.NewRecorder()
	h.Enqueue(w, httptest.NewRequest(http.MethodPost, "/api/v1/analyses/requests", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.JSONEq(t, `{"code":"COMMON_015","message":"request queue is not configured"}`, w.Body.String())
}

func TestWriteAppError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	writeAppError(w, NewAnalysisHandler(nil, nil, nil).logger, assert.AnError)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"COMMON_001","message":"internal server error"}`, w.Body.String())
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"geometry":"`+strings.Repeat("x", 64)+`"}`))
	var dst map[string]interface{}
	err := decodeJSON(w, r, 16, &dst)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

//Personal.AI order the ending
