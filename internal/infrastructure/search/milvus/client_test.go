package milvus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

func newTestConfig() Config {
	return Config{
		Address:             "localhost:19530",
		ConnectTimeout:      time.Second,
		HealthCheckInterval: time.Hour,
	}
}

func stubFactory(t *testing.T, mc client.Client, err error) {
	t.Helper()
	original := milvusNewClient
	t.Cleanup(func() { milvusNewClient = original })
	milvusNewClient = func(ctx context.Context, conf client.Config) (client.Client, error) {
		return mc, err
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty address", func(c *Config) { c.Address = "" }, "Address is required"},
		{"negative timeout", func(c *Config) { c.ConnectTimeout = -1 }, "ConnectTimeout must be >= 0"},
		{"negative shards", func(c *Config) { c.ShardsNum = -1 }, "ShardsNum must be >= 0"},
		{"tls without cert", func(c *Config) { c.TLSEnabled = true }, "TLSCertPath required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "default", cfg.DBName)
	assert.Equal(t, "solarsite_score_vectors", cfg.Collection)
	assert.Equal(t, int32(1), cfg.ShardsNum)
	assert.False(t, cfg.Enabled())
}

func TestNewClient_Success(t *testing.T) {
	mc := &mockMilvusClient{}
	stubFactory(t, mc, nil)

	c, err := NewClient(newTestConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, c.IsHealthy())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, mc.closed)
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	stubFactory(t, nil, errors.New("dial failed"))

	c, err := NewClient(newTestConfig(), nil)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeServiceUnavailable))
}

func TestNewClient_Unhealthy(t *testing.T) {
	mc := &mockMilvusClient{checkHealthFunc: func(context.Context) (*entity.MilvusState, error) {
		return &entity.MilvusState{IsHealthy: false, Reasons: []string{"querynode down"}}, nil
	}}
	stubFactory(t, mc, nil)

	_, err := NewClient(newTestConfig(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, mc.closed)
}

func TestClient_CheckHealth(t *testing.T) {
	fail := true
	mc := &mockMilvusClient{checkHealthFunc: func(context.Context) (*entity.MilvusState, error) {
		if fail {
			return nil, errors.New("rpc error")
		}
		return &entity.MilvusState{IsHealthy: true}, nil
	}}
	c := NewClientWithMilvus(mc, newTestConfig(), nil)

	assert.ErrorIs(t, c.CheckHealth(context.Background()), ErrUnhealthy)
	assert.False(t, c.IsHealthy())

	fail = false
	assert.NoError(t, c.CheckHealth(context.Background()))
	assert.True(t, c.IsHealthy())
}

func TestClient_ReconnectReplacesClient(t *testing.T) {
	old := &mockMilvusClient{}
	fresh := &mockMilvusClient{}
	stubFactory(t, fresh, nil)

	c := NewClientWithMilvus(old, newTestConfig(), nil)
	require.NoError(t, c.reconnect(context.Background()))
	assert.Equal(t, 1, old.closed)
	assert.Same(t, fresh, c.sdk())
}

//Personal.AI order the ending
