package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// analysisDoc is the indexed form of a result. Result holds the complete
// result and is stored but not indexed.
type analysisDoc struct {
	ID            string             `json:"id"`
	SessionID     string             `json:"sessionId"`
	Name          string             `json:"name"`
	Decision      string             `json:"decision"`
	FinalScore    float64            `json:"finalScore"`
	AreaHectares  float64            `json:"areaHectares"`
	LandOwnership string             `json:"landOwnership,omitempty"`
	AnalyzedAt    time.Time          `json:"analyzedAt"`
	Centroid      [2]float64         `json:"centroid"`
	Scores        map[string]float64 `json:"scores"`
	SubAreaCount  int                `json:"subAreaCount"`
	Result        json.RawMessage    `json:"result"`
}

func newAnalysisDoc(res *analysis.AreaAnalysisResult) (analysisDoc, error) {
	full, err := json.Marshal(res)
	if err != nil {
		return analysisDoc{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode analysis")
	}
	scores := make(map[string]float64, len(res.Parameters))
	for _, p := range res.Parameters {
		scores[string(p.Key)] = p.Score
	}
	c := res.Polygon.Centroid()
	return analysisDoc{
		ID:            res.ID,
		SessionID:     res.SessionID,
		Name:          res.Name,
		Decision:      string(res.Decision),
		FinalScore:    res.FinalScore,
		AreaHectares:  res.AreaHectares,
		LandOwnership: string(res.LandOwnership),
		AnalyzedAt:    res.AnalyzedAt,
		Centroid:      [2]float64{c[0], c[1]},
		Scores:        scores,
		SubAreaCount:  len(res.SubAreas),
		Result:        full,
	}, nil
}

// IndexMapping returns the settings and mappings of the analyses index.
// geo_point arrays are [lon, lat], which matches orb.Point.
func IndexMapping(shards, replicas int) map[string]interface{} {
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   shards,
			"number_of_replicas": replicas,
		},
		"mappings": map[string]interface{}{
			"dynamic": "strict",
			"properties": map[string]interface{}{
				"id":            map[string]string{"type": "keyword"},
				"sessionId":     map[string]string{"type": "keyword"},
				"name":          map[string]interface{}{"type": "text", "fields": map[string]interface{}{"raw": map[string]string{"type": "keyword"}}},
				"decision":      map[string]string{"type": "keyword"},
				"finalScore":    map[string]string{"type": "float"},
				"areaHectares":  map[string]string{"type": "float"},
				"landOwnership": map[string]string{"type": "keyword"},
				"analyzedAt":    map[string]string{"type": "date"},
				"centroid":      map[string]string{"type": "geo_point"},
				"scores":        map[string]interface{}{"type": "object", "dynamic": true},
				"subAreaCount":  map[string]string{"type": "integer"},
				"result":        map[string]interface{}{"type": "object", "enabled": false},
			},
		},
	}
}

// Indexer writes analysis results to the index. It implements
// analysis.ResultRecorder.
type Indexer struct {
	client *Client
	logger logging.Logger
}

var _ analysis.ResultRecorder = (*Indexer)(nil)

func NewIndexer(client *Client) *Indexer {
	return &Indexer{client: client, logger: client.logger}
}

func (i *Indexer) Name() string { return "opensearch" }

// EnsureIndex creates the analyses index when it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	cfg := i.client.config
	resp, err := i.client.api.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{Indices: []string{cfg.Index}})
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err == nil && resp != nil && resp.StatusCode == 200 {
		return nil
	}
	if resp == nil || resp.StatusCode != 404 {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to check index").WithDetail("index=" + cfg.Index)
	}

	body, err := json.Marshal(IndexMapping(cfg.Shards, cfg.Replicas))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}
	if _, err := i.client.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: cfg.Index,
		Body:  bytes.NewReader(body),
	}); err != nil {
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to create index").WithDetail("index=" + cfg.Index)
	}
	i.logger.Info("Index created", logging.String("index", cfg.Index))
	return nil
}

// Record indexes res under its analysis ID, replacing any earlier version.
func (i *Indexer) Record(ctx context.Context, res *analysis.AreaAnalysisResult) error {
	doc, err := newAnalysisDoc(res)
	if err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
	}
	_, err = i.client.api.Index(ctx, opensearchapi.IndexReq{
		Index:      i.client.config.Index,
		DocumentID: res.ID,
		Body:       bytes.NewReader(body),
		Params:     opensearchapi.IndexParams{Refresh: i.client.config.Refresh},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to index analysis").
			WithDetail(fmt.Sprintf("index=%s id=%s", i.client.config.Index, res.ID))
	}
	i.logger.Debug("analysis indexed", logging.AnalysisID(res.ID))
	return nil
}

//Personal.AI order the ending
