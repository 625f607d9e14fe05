package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	proxypool "github.com/newsinsight/proxypool"
	"github.com/newsinsight/proxypool/internal/model"
	"github.com/newsinsight/proxypool/internal/source"
)

type fakeSource struct {
	name    string
	proxies []model.Proxy
}

func (f *fakeSource) Fetch(context.Context) ([]model.Proxy, error) { return f.proxies, nil }
func (f *fakeSource) Name() string                                 { return f.name }
func (f *fakeSource) LastUpdated() time.Time                       { return time.Time{} }
func (f *fakeSource) Touch(time.Time)                              {}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	e := proxypool.New(proxypool.Options{}, proxypool.WithSources([]source.Source{
		&fakeSource{name: "fake", proxies: []model.Proxy{
			{Address: "1.1.1.1", Port: 80, Protocol: model.ProtocolHTTPS, Country: "US"},
		}},
	}))
	return New(e)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestFetchProxiesEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/proxies?count=5&onlyHttps=true&country=US", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "body=%s", rec.Body.String())
	var body struct {
		Proxies []model.Proxy `json:"proxies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Proxies, 1)
}

func TestNextProxyEndpointReportsServiceUnavailableWhenEmpty(t *testing.T) {
	e := proxypool.New(proxypool.Options{}, proxypool.WithSources([]source.Source{&fakeSource{name: "empty"}}))
	s := New(e)

	req := httptest.NewRequest(http.MethodGet, "/proxy/next", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecordResultRequiresAddressAndPort(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/proxy/record", jsonBody(t, map[string]any{"success": true}))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRotationStrategyRoundTrip(t *testing.T) {
	s := newTestServer(t)

	putReq := httptest.NewRequest(http.MethodPut, "/admin/rotation-strategy", jsonBody(t, map[string]string{"strategy": "weighted"}))
	putRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code, "body=%s", putRec.Body.String())

	getReq := httptest.NewRequest(http.MethodGet, "/admin/rotation-strategy", nil)
	getRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(getRec, getReq)

	var body map[string]string
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &body))
	assert.Equal(t, "weighted", body["strategy"])
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}
