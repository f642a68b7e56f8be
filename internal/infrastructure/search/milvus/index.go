package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/domain/suitability"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// DefaultTopK is used when Similar is asked for k <= 0.
const DefaultTopK = 10

// VectorIndex stores result score vectors and answers nearest-neighbour
// queries over them with L2 distance.
type VectorIndex struct {
	client *Client
	dim    int
	logger logging.Logger
}

var (
	_ analysis.ResultRecorder  = (*VectorIndex)(nil)
	_ analysis.SimilarityIndex = (*VectorIndex)(nil)
)

// NewVectorIndex returns an index over dim-dimensional vectors, which must
// match the number of scoring parameters.
func NewVectorIndex(c *Client, dim int) *VectorIndex {
	return &VectorIndex{client: c, dim: dim, logger: c.logger}
}

func (v *VectorIndex) Name() string { return "milvus" }

func (v *VectorIndex) toFloat32(vec []float64) ([]float32, error) {
	if len(vec) != v.dim {
		return nil, errors.New(errors.ErrCodeVectorDimMismatch, "score vector dimension mismatch").
			WithDetail(fmt.Sprintf("want=%d got=%d", v.dim, len(vec)))
	}
	out := make([]float32, len(vec))
	for i, f := range vec {
		out[i] = float32(f)
	}
	return out, nil
}

// Record upserts the score vector of res.
func (v *VectorIndex) Record(ctx context.Context, res *analysis.AreaAnalysisResult) error {
	vec, err := v.toFloat32(res.ScoreVector())
	if err != nil {
		return err
	}
	mc := v.client.sdk()
	if mc == nil {
		return ErrConnectionFailed
	}
	_, err = mc.Upsert(ctx, v.client.config.Collection, "",
		entity.NewColumnVarChar(FieldID, []string{res.ID}),
		entity.NewColumnVarChar(FieldSessionID, []string{res.SessionID}),
		entity.NewColumnVarChar(FieldName, []string{res.Name}),
		entity.NewColumnVarChar(FieldDecision, []string{string(res.Decision)}),
		entity.NewColumnFloat(FieldFinalScore, []float32{float32(res.FinalScore)}),
		entity.NewColumnFloatVector(FieldVector, v.dim, [][]float32{vec}),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to upsert score vector").WithDetail("analysis=" + res.ID)
	}
	v.logger.Debug("score vector stored", logging.AnalysisID(res.ID))
	return nil
}

// Similar returns up to k recorded analyses closest to vector.
func (v *VectorIndex) Similar(ctx context.Context, vector []float64, k int) ([]analysis.SimilarSite, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	vec, err := v.toFloat32(vector)
	if err != nil {
		return nil, err
	}
	mc := v.client.sdk()
	if mc == nil {
		return nil, ErrConnectionFailed
	}
	sp, err := entity.NewIndexHNSWSearchParam(hnswEf)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build search params")
	}
	results, err := mc.Search(ctx, v.client.config.Collection, nil, "",
		[]string{FieldName, FieldDecision, FieldFinalScore},
		[]entity.Vector{entity.FloatVector(vec)},
		FieldVector, entity.L2, k, sp)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "vector search failed")
	}
	if len(results) == 0 {
		return nil, nil
	}
	return decodeHits(results[0].IDs, results[0].Fields, results[0].Scores)
}

func decodeHits(ids entity.Column, fields []entity.Column, scores []float32) ([]analysis.SimilarSite, error) {
	idCol, ok := ids.(*entity.ColumnVarChar)
	if !ok {
		return nil, errors.New(errors.ErrCodeSearchFailed, "unexpected id column type")
	}
	var (
		names, decisions *entity.ColumnVarChar
		finals           *entity.ColumnFloat
	)
	for _, col := range fields {
		switch col.Name() {
		case FieldName:
			names, _ = col.(*entity.ColumnVarChar)
		case FieldDecision:
			decisions, _ = col.(*entity.ColumnVarChar)
		case FieldFinalScore:
			finals, _ = col.(*entity.ColumnFloat)
		}
	}

	out := make([]analysis.SimilarSite, 0, idCol.Len())
	for i := 0; i < idCol.Len(); i++ {
		site := analysis.SimilarSite{AnalysisID: idCol.Data()[i]}
		if i < len(scores) {
			site.Distance = scores[i]
		}
		if names != nil && i < names.Len() {
			site.Name = names.Data()[i]
		}
		if decisions != nil && i < decisions.Len() {
			site.Decision = suitability.Decision(decisions.Data()[i])
		}
		if finals != nil && i < finals.Len() {
			site.FinalScore = float64(finals.Data()[i])
		}
		out = append(out, site)
	}
	return out, nil
}

//Personal.AI order the ending
