package opensearch

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Searcher answers history queries from the index. It implements
// analysis.HistoryStore.
type Searcher struct {
	client *Client
}

var _ analysis.HistoryStore = (*Searcher)(nil)

func NewSearcher(client *Client) *Searcher {
	return &Searcher{client: client}
}

// BuildQuery translates a normalized filter into a search body.
func BuildQuery(f analysis.HistoryFilter) map[string]interface{} {
	var filters []interface{}
	if f.Decision != "" {
		filters = append(filters, term("decision", string(f.Decision)))
	}
	if f.SessionID != "" {
		filters = append(filters, term("sessionId", f.SessionID))
	}
	if f.MinScore != nil || f.MaxScore != nil {
		r := map[string]interface{}{}
		if f.MinScore != nil {
			r["gte"] = *f.MinScore
		}
		if f.MaxScore != nil {
			r["lte"] = *f.MaxScore
		}
		filters = append(filters, map[string]interface{}{"range": map[string]interface{}{"finalScore": r}})
	}

	var query map[string]interface{}
	if len(filters) == 0 {
		query = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		query = map[string]interface{}{"bool": map[string]interface{}{"filter": filters}}
	}
	return map[string]interface{}{
		"query":   query,
		"from":    f.Offset,
		"size":    f.Limit,
		"sort":    []interface{}{map[string]interface{}{"analyzedAt": map[string]string{"order": "desc"}}},
		"_source": []string{"result"},
	}
}

func term(field, value string) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: value}}
}

// Search returns recorded analyses matching filter, newest first.
func (s *Searcher) Search(ctx context.Context, filter analysis.HistoryFilter) ([]*analysis.AreaAnalysisResult, error) {
	f, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	return s.query(ctx, BuildQuery(f))
}

// Get returns one analysis by ID.
func (s *Searcher) Get(ctx context.Context, id string) (*analysis.AreaAnalysisResult, error) {
	if id == "" {
		return nil, errors.InvalidParam("analysis id is required")
	}
	out, err := s.query(ctx, map[string]interface{}{
		"query":   map[string]interface{}{"ids": map[string]interface{}{"values": []string{id}}},
		"size":    1,
		"_source": []string{"result"},
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found").WithDetail("id=" + id)
	}
	return out[0], nil
}

func (s *Searcher) query(ctx context.Context, body map[string]interface{}) ([]*analysis.AreaAnalysisResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query")
	}
	resp, err := s.client.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{s.client.config.Index},
		Body:    bytes.NewReader(payload),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "search request failed")
	}

	out := make([]*analysis.AreaAnalysisResult, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var src struct {
			Result *analysis.AreaAnalysisResult `json:"result"`
		}
		if err := json.Unmarshal(hit.Source, &src); err != nil || src.Result == nil {
			return nil, errors.New(errors.ErrCodeSerialization, "corrupt search hit").WithDetail("id=" + hit.ID)
		}
		out = append(out, src.Result)
	}
	return out, nil
}

//Personal.AI order the ending
