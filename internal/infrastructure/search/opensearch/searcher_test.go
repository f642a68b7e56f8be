package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	apperrors "github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

func hitsBody(t *testing.T, results ...*analysis.AreaAnalysisResult) string {
	t.Helper()
	hits := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		raw, err := json.Marshal(r)
		require.NoError(t, err)
		hits = append(hits, map[string]interface{}{
			"_index":  "solarsite-analyses",
			"_id":     r.ID,
			"_score":  1.0,
			"_source": map[string]json.RawMessage{"result": raw},
		})
	}
	body, err := json.Marshal(map[string]interface{}{
		"took":      3,
		"timed_out": false,
		"_shards":   map[string]int{"total": 1, "successful": 1, "skipped": 0, "failed": 0},
		"hits": map[string]interface{}{
			"total":     map[string]interface{}{"value": len(hits), "relation": "eq"},
			"max_score": 1.0,
			"hits":      hits,
		},
	})
	require.NoError(t, err)
	return string(body)
}

func TestBuildQuery(t *testing.T) {
	lo, hi := 5.0, 8.0
	q := BuildQuery(analysis.HistoryFilter{
		Decision:  suitability.DecisionReview,
		SessionID: "s-1",
		MinScore:  &lo,
		MaxScore:  &hi,
		Limit:     10,
		Offset:    20,
	})
	raw, err := json.Marshal(q)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"query": {"bool": {"filter": [
			{"term": {"decision": "Review"}},
			{"term": {"sessionId": "s-1"}},
			{"range": {"finalScore": {"gte": 5, "lte": 8}}}
		]}},
		"from": 20,
		"size": 10,
		"sort": [{"analyzedAt": {"order": "desc"}}],
		"_source": ["result"]
	}`, string(raw))
}

func TestBuildQuery_MatchAll(t *testing.T) {
	q := BuildQuery(analysis.HistoryFilter{Limit: 20})
	assert.Contains(t, q["query"], "match_all")
}

func TestSearcher_Search(t *testing.T) {
	fc, srv := newFakeCluster(t)
	res := sampleResult()
	fc.handle("/solarsite-analyses/_search", http.StatusOK, hitsBody(t, res))

	s := NewSearcher(newTestClient(t, srv.URL))
	out, err := s.Search(context.Background(), analysis.HistoryFilter{Decision: suitability.DecisionYes, Limit: 1000})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a-1", out[0].ID)
	assert.Equal(t, suitability.DecisionYes, out[0].Decision)
	assert.True(t, out[0].Polygon.Equal(res.Polygon))

	req, ok := fc.find("/_search")
	require.True(t, ok)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, float64(analysis.MaxSearchLimit), sent["size"])
}

func TestSearcher_Search_InvalidFilter(t *testing.T) {
	_, srv := newFakeCluster(t)
	s := NewSearcher(newTestClient(t, srv.URL))
	_, err := s.Search(context.Background(), analysis.HistoryFilter{Decision: "Maybe"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
}

func TestSearcher_Search_ClusterError(t *testing.T) {
	fc, srv := newFakeCluster(t)
	fc.handle("/solarsite-analyses/_search", http.StatusBadRequest, `{"error":{"type":"search_phase_execution_exception","reason":"boom"},"status":400}`)

	s := NewSearcher(newTestClient(t, srv.URL))
	_, err := s.Search(context.Background(), analysis.HistoryFilter{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSearchFailed))
}

func TestSearcher_Get(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		hits     []*analysis.AreaAnalysisResult
		wantCode apperrors.ErrorCode
	}{
		{"found", "a-1", []*analysis.AreaAnalysisResult{sampleResult()}, ""},
		{"missing", "a-2", nil, apperrors.ErrCodeAnalysisNotFound},
		{"empty id", "", nil, apperrors.CodeInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, srv := newFakeCluster(t)
			fc.handle("/solarsite-analyses/_search", http.StatusOK, hitsBody(t, tt.hits...))
			s := NewSearcher(newTestClient(t, srv.URL))

			got, err := s.Get(context.Background(), tt.id)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, tt.wantCode), fmt.Sprintf("got %v", err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, got.ID)
		})
	}
}

//Personal.AI order the ending
