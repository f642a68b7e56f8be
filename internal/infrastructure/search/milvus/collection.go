package milvus

import (
	"context"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Field names of the score-vector collection.
const (
	FieldID         = "analysis_id"
	FieldSessionID  = "session_id"
	FieldName       = "name"
	FieldDecision   = "decision"
	FieldFinalScore = "final_score"
	FieldVector     = "scores"
)

// HNSW build and search parameters.
const (
	hnswM              = 16
	hnswEfConstruction = 200
	hnswEf             = 64
)

// ScoreVectorSchema describes a collection of dim-dimensional score vectors
// keyed by analysis ID.
func ScoreVectorSchema(name string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "per-parameter suitability scores of analyzed sites",
		Fields: []*entity.Field{
			{Name: FieldID, DataType: entity.FieldTypeVarChar, PrimaryKey: true, AutoID: false, TypeParams: map[string]string{entity.TypeParamMaxLength: "64"}},
			{Name: FieldSessionID, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{entity.TypeParamMaxLength: "64"}},
			{Name: FieldName, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{entity.TypeParamMaxLength: "256"}},
			{Name: FieldDecision, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{entity.TypeParamMaxLength: "16"}},
			{Name: FieldFinalScore, DataType: entity.FieldTypeFloat},
			{Name: FieldVector, DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{entity.TypeParamDim: strconv.Itoa(dim)}},
		},
	}
}

// EnsureCollection creates, indexes and loads the collection when missing.
// An existing collection is only loaded.
func (c *Client) EnsureCollection(ctx context.Context, dim int) error {
	mc := c.sdk()
	if mc == nil {
		return ErrConnectionFailed
	}
	name := c.config.Collection

	has, err := mc.HasCollection(ctx, name)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to check collection").WithDetail("collection=" + name)
	}
	if !has {
		if err := mc.CreateCollection(ctx, ScoreVectorSchema(name, dim), c.config.ShardsNum); err != nil {
			return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to create collection").WithDetail("collection=" + name)
		}
		idx, err := entity.NewIndexHNSW(entity.L2, hnswM, hnswEfConstruction)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to build index params")
		}
		if err := mc.CreateIndex(ctx, name, FieldVector, idx, false); err != nil {
			return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to create index").WithDetail("collection=" + name)
		}
		c.logger.Info("Collection created", logging.String("collection", name), logging.Int("dim", dim))
	}
	if err := mc.LoadCollection(ctx, name, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexFailed, "failed to load collection").WithDetail("collection=" + name)
	}
	return nil
}

//Personal.AI order the ending
