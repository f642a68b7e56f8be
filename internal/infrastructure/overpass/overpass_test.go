package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

var site = orb.Point{78.0, 17.0}

const roadsJSON = `{"elements":[
	{"type":"way","id":1,"tags":{"highway":"primary"},"geometry":[{"lat":17.01,"lon":78.0},{"lat":17.01,"lon":78.01}]},
	{"type":"way","id":2,"tags":{"highway":"trunk"},"geometry":[{"lat":17.05,"lon":78.0},{"lat":17.05,"lon":78.01}]},
	{"type":"node","id":3,"lat":17.0,"lon":78.0}
]}`

const linesJSON = `{"elements":[
	{"type":"way","id":10,"tags":{"power":"line","voltage":"220000;400000"},"geometry":[{"lat":17.1,"lon":77.9},{"lat":17.1,"lon":78.1}]},
	{"type":"way","id":11,"tags":{"power":"line","voltage":"110000"},"geometry":[{"lat":17.2,"lon":77.9},{"lat":17.2,"lon":78.1}]},
	{"type":"way","id":12,"tags":{"power":"line"},"geometry":[{"lat":17.0,"lon":78.0}]}
]}`

// overpassStub answers power and road queries from fixed bodies.
func overpassStub(t *testing.T, roads, lines string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		q := r.PostForm.Get("data")
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(q, `"power"="line"`) {
			_, _ = w.Write([]byte(lines))
			return
		}
		_, _ = w.Write([]byte(roads))
	}))
}

func testClient(endpoints ...string) *Client {
	c := NewClient(Config{Endpoints: endpoints, BackoffBase: time.Millisecond})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestQueries(t *testing.T) {
	q := RoadQuery(orb.Point{78.25, 17.5}, 5000)
	assert.Equal(t, `[out:json][timeout:15];way["highway"~"^(primary|secondary|tertiary|trunk)$"](around:5000,17.5,78.25);out geom;`, q)

	p := PowerLineQuery(orb.Point{78.25, 17.5}, 25000)
	assert.Contains(t, p, `way["power"="line"]["voltage"~"^(60|30|110|220|400|500|750|1000|60000|30000|110000|220000|400000|500000|750000|1000000)$"]`)
	assert.Contains(t, p, "(around:25000,17.5,78.25)")
	assert.True(t, strings.HasSuffix(p, "out geom;"))
}

func TestMaxVoltage(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"400000", "400000"},
		{"220000;400000", "400000"},
		{"132 kV / 33 kV", "132"},
		{"", analysis.UnknownVoltage},
		{"high", analysis.UnknownVoltage},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxVoltage(tt.tag))
		})
	}
}

func TestNearest(t *testing.T) {
	d, at, el, ok := Nearest(site, []Element{
		{Type: "way", ID: 1, Geometry: []Node{{Lat: 17.01, Lon: 77.99}, {Lat: 17.01, Lon: 78.01}}},
		{Type: "way", ID: 2, Geometry: []Node{{Lat: 17.0, Lon: 78.0}}},
		{Type: "node", ID: 3},
	})
	require.True(t, ok)
	assert.Equal(t, int64(1), el.ID)
	assert.InDelta(t, 78.0, at[0], 1e-9)
	assert.InDelta(t, 17.01, at[1], 1e-9)
	assert.InDelta(t, 1.112, d, 0.005)

	_, _, _, ok = Nearest(site, nil)
	assert.False(t, ok)
}

func TestRoadDistance(t *testing.T) {
	srv := overpassStub(t, roadsJSON, linesJSON)
	defer srv.Close()

	d, err := testClient(srv.URL).RoadDistance(context.Background(), site)
	require.NoError(t, err)
	assert.InDelta(t, 1.112, d, 0.005)
}

func TestRoadDistance_NoRoadsUsesDefault(t *testing.T) {
	srv := overpassStub(t, `{"elements":[]}`, linesJSON)
	defer srv.Close()

	d, err := testClient(srv.URL).RoadDistance(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultRoadDistanceKm, d)
}

func TestPowerLine(t *testing.T) {
	srv := overpassStub(t, roadsJSON, linesJSON)
	defer srv.Close()

	got, err := testClient(srv.URL).PowerLine(context.Background(), site)
	require.NoError(t, err)
	assert.InDelta(t, 11.12, got.AerialDistance, 0.02)
	require.NotNil(t, got.NearestPowerLine)
	assert.Equal(t, "400000", got.NearestPowerLine.Voltage)
	assert.InDelta(t, 78.0, got.NearestPowerLine.Coordinates[0], 1e-9)
	assert.InDelta(t, 17.1, got.NearestPowerLine.Coordinates[1], 1e-9)
	require.NotNil(t, got.RoadDistance)
	assert.InDelta(t, got.AerialDistance+1.112, *got.RoadDistance, 0.005)
}

func TestPowerLine_NoRoadsLeavesRoadDistanceNil(t *testing.T) {
	srv := overpassStub(t, `{"elements":[]}`, linesJSON)
	defer srv.Close()

	got, err := testClient(srv.URL).PowerLine(context.Background(), site)
	require.NoError(t, err)
	assert.Nil(t, got.RoadDistance)
	assert.NotNil(t, got.NearestPowerLine)
}

func TestPowerLine_NoLines(t *testing.T) {
	srv := overpassStub(t, roadsJSON, `{"elements":[]}`)
	defer srv.Close()

	got, err := testClient(srv.URL).PowerLine(context.Background(), site)
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultPowerLineDistanceKm, got.AerialDistance)
	assert.Nil(t, got.NearestPowerLine)
	assert.Nil(t, got.RoadDistance)
}

func TestQuery_FailsOverToNextEndpoint(t *testing.T) {
	var bad, good int32
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&bad, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer badSrv.Close()
	goodSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&good, 1)
		_, _ = w.Write([]byte(roadsJSON))
	}))
	defer goodSrv.Close()

	els, err := testClient(badSrv.URL, goodSrv.URL).Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, els, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&bad))
	assert.Equal(t, int32(1), atomic.LoadInt32(&good))
}

func TestQuery_ExhaustedReturnsEmpty(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, srv.URL)
	var backoffs []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		backoffs = append(backoffs, d)
		return nil
	}

	els, err := c.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, els)
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, backoffs)
}

func TestQuery_Cancelled(t *testing.T) {
	srv := overpassStub(t, roadsJSON, linesJSON)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(srv.URL).Query(ctx, "q")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnalysisCancelled))
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultEndpoints, cfg.Endpoints)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.BackoffBase)
	assert.Equal(t, 5000, cfg.RoadRadiusM)
	assert.Equal(t, 25000, cfg.PowerRadiusM)
}

//Personal.AI order the ending
