package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsinsight/proxypool/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.GetString(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "expected miss")

	require.NoError(t, s.SetString(ctx, "k", "v"))
	v, ok, err := s.GetString(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, _ = s.GetString(ctx, "k")
	assert.False(t, ok, "expected miss after delete")
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.SetString(ctx, "a", "1")
	s.SetString(ctx, "b", "2")
	require.NoError(t, s.Clear(ctx))
	_, ok, _ := s.GetString(ctx, "a")
	assert.False(t, ok, "expected a gone after clear")
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "proxypool-store-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s := NewFileStore(dir)
	require.NoError(t, s.SetBytes(ctx, "key1", []byte(`{"a":1}`)))
	b, ok, err := s.GetBytes(ctx, "key1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(b))

	_, ok, _ = s.GetBytes(ctx, "nope")
	assert.False(t, ok, "expected miss on nonexistent key")

	require.NoError(t, s.Clear(ctx))
	_, ok, _ = s.GetBytes(ctx, "key1")
	assert.False(t, ok, "expected key1 gone after clear")
}

func TestSaveAndLoadProxiesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	proxies := []model.Proxy{
		{Address: "1.2.3.4", Port: 8080, Protocol: model.ProtocolHTTPS, Country: "US", AnonymityLevel: model.AnonymityElite},
	}
	scores := map[model.Key]*model.Score{
		proxies[0].Key(): {LastUsedMs: 1700000000000, AvgResponseTimeMs: 412},
	}
	scoreOf := func(k model.Key) (*model.Score, bool) {
		sc, ok := scores[k]
		return sc, ok
	}

	require.NoError(t, SaveProxies(ctx, s, KeyCachedProxies, proxies, scoreOf))

	loaded, ok, err := LoadProxies(ctx, s, KeyCachedProxies)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded, 1)
	assert.Equal(t, "1.2.3.4", loaded[0].Address)
	assert.Equal(t, model.ProtocolHTTPS, loaded[0].Protocol)
}

func TestLoadProxiesColdCache(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, ok, err := LoadProxies(ctx, s, KeyCachedProxies)
	require.NoError(t, err)
	assert.False(t, ok, "expected cold-cache miss")
}

func TestLoadProxiesParseError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.SetBytes(ctx, KeyCachedProxies, []byte("not json"))
	_, _, err := LoadProxies(ctx, s, KeyCachedProxies)
	assert.Error(t, err, "expected a parse error for malformed cache contents")
}
