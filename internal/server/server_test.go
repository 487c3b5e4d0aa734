package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zoobzio/dendrite"
	"github.com/zoobzio/dendrite/internal/cache"
)

func testSchema() *dendrite.Schema {
	return dendrite.MustSchema([]dendrite.ParamSpec{
		{Name: "trunk_length", Description: "trunk total length", Type: dendrite.ParamFloat, Min: 0, Max: 40, Default: 4.0},
		{Name: "leaves", Description: "generate leaves", Type: dendrite.ParamBool, Default: true},
	})
}

func newTestServer(t *testing.T, provider dendrite.Provider, c *cache.Cache) *httptest.Server {
	t.Helper()
	interp, err := dendrite.NewInterpreter("tree parameters", testSchema(), provider)
	require.NoError(t, err)
	srv := New(interp, c, zap.NewNop())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postInterpret(t *testing.T, ts *httptest.Server, body string) (*http.Response, interpretResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/interpret", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	var out interpretResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestInterpretEndpoint(t *testing.T) {
	provider := dendrite.NewMockProviderWithResponse(`{"trunk_length": 12.5, "leaves": false}`)
	ts := newTestServer(t, provider, nil)

	resp, out := postInterpret(t, ts, `{"prompt": "a tall pine"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12.5, out.Params["trunk_length"])
	assert.Equal(t, false, out.Params["leaves"])
	assert.False(t, out.UsedDefaults)
	assert.Equal(t, 1, out.Attempts)
	assert.Greater(t, out.Confidence, 0.0)
}

func TestInterpretEndpointDefaults(t *testing.T) {
	provider := dendrite.NewMockProviderWithResponse("not json")
	ts := newTestServer(t, provider, nil)

	resp, out := postInterpret(t, ts, `{"prompt": "a tall pine"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.UsedDefaults)
	assert.Equal(t, 4.0, out.Params["trunk_length"])
}

func TestInterpretEndpointValidation(t *testing.T) {
	ts := newTestServer(t, dendrite.NewMockProvider(), nil)

	resp, _ := postInterpret(t, ts, `{"prompt": "   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postInterpret(t, ts, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	getResp, err := http.Get(ts.URL + "/v1/interpret")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)
}

func TestInterpretEndpointCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.New(cache.Config{Address: mr.Addr(), TTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	provider := dendrite.NewMockProviderWithResponse(`{"trunk_length": 12.5, "leaves": false}`)
	ts := newTestServer(t, provider, c)

	_, first := postInterpret(t, ts, `{"prompt": "a tall pine"}`)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, provider.Calls())

	_, second := postInterpret(t, ts, `{"prompt": "a tall pine"}`)
	assert.True(t, second.Cached)
	assert.Equal(t, 12.5, second.Params["trunk_length"])
	assert.Equal(t, 1, provider.Calls(), "cache hit must not call the provider")

	_, third := postInterpret(t, ts, `{"prompt": "a tall pine", "no_cache": true}`)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, provider.Calls())
}

func TestSchemaEndpoint(t *testing.T) {
	ts := newTestServer(t, dendrite.NewMockProvider(), nil)

	resp, err := http.Get(ts.URL + "/v1/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Parameters []schemaParam `json:"parameters"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Parameters, 2)
	assert.Equal(t, "trunk_length", out.Parameters[0].Name)
	assert.Equal(t, "float", out.Parameters[0].Type)
	assert.Equal(t, 40.0, out.Parameters[0].Max)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	ts := newTestServer(t, dendrite.NewMockProvider(), nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
