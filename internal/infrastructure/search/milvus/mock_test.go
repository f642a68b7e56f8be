package milvus

import (
	"context"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// mockMilvusClient overrides the SDK calls the package uses; anything else
// panics through the nil embedded interface.
type mockMilvusClient struct {
	client.Client

	checkHealthFunc      func(ctx context.Context) (*entity.MilvusState, error)
	hasCollectionFunc    func(ctx context.Context, name string) (bool, error)
	createCollectionFunc func(ctx context.Context, schema *entity.Schema, shards int32) error
	createIndexFunc      func(ctx context.Context, coll, field string, idx entity.Index) error
	loadCollectionFunc   func(ctx context.Context, name string) error
	upsertFunc           func(ctx context.Context, coll string, cols ...entity.Column) (entity.Column, error)
	searchFunc           func(ctx context.Context, coll string, output []string, vectors []entity.Vector, field string, metric entity.MetricType, topK int) ([]client.SearchResult, error)

	closed int
}

func (m *mockMilvusClient) CheckHealth(ctx context.Context) (*entity.MilvusState, error) {
	if m.checkHealthFunc != nil {
		return m.checkHealthFunc(ctx)
	}
	return &entity.MilvusState{IsHealthy: true}, nil
}

func (m *mockMilvusClient) HasCollection(ctx context.Context, collName string) (bool, error) {
	return m.hasCollectionFunc(ctx, collName)
}

func (m *mockMilvusClient) CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, _ ...client.CreateCollectionOption) error {
	return m.createCollectionFunc(ctx, schema, shardsNum)
}

func (m *mockMilvusClient) CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, _ bool, _ ...client.IndexOption) error {
	return m.createIndexFunc(ctx, collName, fieldName, idx)
}

func (m *mockMilvusClient) LoadCollection(ctx context.Context, collName string, _ bool, _ ...client.LoadCollectionOption) error {
	return m.loadCollectionFunc(ctx, collName)
}

func (m *mockMilvusClient) Upsert(ctx context.Context, collName string, _ string, columns ...entity.Column) (entity.Column, error) {
	return m.upsertFunc(ctx, collName, columns...)
}

func (m *mockMilvusClient) Search(ctx context.Context, collName string, _ []string, _ string, outputFields []string, vectors []entity.Vector,
	vectorField string, metricType entity.MetricType, topK int, _ entity.SearchParam, _ ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	return m.searchFunc(ctx, collName, outputFields, vectors, vectorField, metricType, topK)
}

func (m *mockMilvusClient) Close() error {
	m.closed++
	return nil
}

//Personal.AI order the ending
