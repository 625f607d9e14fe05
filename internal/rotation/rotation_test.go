package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsinsight/proxypool/internal/model"
)

// fakeScores is a minimal in-memory ScoreLookup for exercising
// strategies without pulling in the store/engine packages.
type fakeScores struct {
	now    int64
	scores map[model.Key]*model.Score
}

func newFakeScores() *fakeScores {
	return &fakeScores{now: 1000, scores: make(map[model.Key]*model.Score)}
}

func (f *fakeScores) Score(key model.Key) (*model.Score, bool) {
	s, ok := f.scores[key]
	return s, ok
}

func (f *fakeScores) Touch(key model.Key, nowMs int64) {
	s, ok := f.scores[key]
	if !ok {
		s = model.NewScore(nowMs)
		f.scores[key] = s
	}
	s.LastUsedMs = nowMs
}

func (f *fakeScores) Now() int64 {
	f.now++
	return f.now
}

func proxiesABC() []model.Proxy {
	return []model.Proxy{
		{Address: "1.1.1.1", Port: 80, Protocol: model.ProtocolHTTP},
		{Address: "2.2.2.2", Port: 80, Protocol: model.ProtocolHTTP},
		{Address: "3.3.3.3", Port: 80, Protocol: model.ProtocolHTTP},
	}
}

// TestRoundRobinCycles implements E1: five calls over a three-proxy
// pool under RoundRobin yield [A, B, C, A, B].
func TestRoundRobinCycles(t *testing.T) {
	proxies := proxiesABC()
	s := New(RoundRobin, newFakeScores())
	s.UpdateProxies(proxies)

	want := []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "1.1.1.1", "2.2.2.2"}
	for i, wantAddr := range want {
		p, ok := s.GetNext()
		require.True(t, ok, "call %d: expected a proxy, got none", i)
		assert.Equal(t, wantAddr, p.Address, "call %d", i)
	}
}

func TestRoundRobinEmptyPool(t *testing.T) {
	s := New(RoundRobin, newFakeScores())
	_, ok := s.GetNext()
	assert.False(t, ok, "expected false on empty pool")
}

func TestRoundRobinSingleProxyAlwaysReturnsIt(t *testing.T) {
	s := New(RoundRobin, newFakeScores())
	s.UpdateProxies(proxiesABC()[:1])
	for i := 0; i < 4; i++ {
		p, ok := s.GetNext()
		assert.True(t, ok)
		assert.Equal(t, "1.1.1.1", p.Address, "call %d", i)
	}
}

func TestUnknownKindDefaultsToRoundRobin(t *testing.T) {
	s := New(Kind("bogus"), newFakeScores())
	s.UpdateProxies(proxiesABC())
	p, ok := s.GetNext()
	assert.True(t, ok)
	assert.Equal(t, "1.1.1.1", p.Address, "expected round-robin default behavior")
}

func allStrategyKinds() []Kind {
	return []Kind{RoundRobin, Random, Weighted, Advanced, GeoBased, Adaptive, LeastRecentlyUsed}
}

// TestAllStrategiesHandleEmptyPool ensures every variant reports false
// rather than panicking when the pool has nothing to select from.
func TestAllStrategiesHandleEmptyPool(t *testing.T) {
	for _, kind := range allStrategyKinds() {
		s := New(kind, newFakeScores())
		_, ok := s.GetNext()
		assert.False(t, ok, "%s: expected false on empty pool", kind)
	}
}

// TestAllStrategiesSelectFromPool ensures every variant only ever
// returns proxies that are actually in the active pool, over many
// draws (guards against off-by-one / stale-index bugs).
func TestAllStrategiesSelectFromPool(t *testing.T) {
	valid := map[string]bool{"1.1.1.1": true, "2.2.2.2": true, "3.3.3.3": true}
	for _, kind := range allStrategyKinds() {
		scores := newFakeScores()
		s := New(kind, scores)
		proxies := proxiesABC()
		s.UpdateProxies(proxies)
		for _, p := range proxies {
			scores.Touch(p.Key(), scores.Now())
		}

		for i := 0; i < 25; i++ {
			p, ok := s.GetNext()
			require.True(t, ok, "%s: call %d returned false on non-empty pool", kind, i)
			assert.True(t, valid[p.Address], "%s: returned proxy outside pool: %+v", kind, p)
			if i%2 == 0 {
				s.RecordSuccess(p)
			} else {
				s.RecordFailure(p)
			}
		}
	}
}

func TestGeoBasedRoundRobinsAcrossCountries(t *testing.T) {
	proxies := []model.Proxy{
		{Address: "1.1.1.1", Port: 80, Country: "US"},
		{Address: "2.2.2.2", Port: 80, Country: "DE"},
		{Address: "3.3.3.3", Port: 80, Country: "US"},
	}
	s := New(GeoBased, newFakeScores())
	s.UpdateProxies(proxies)

	seenCountries := make(map[string]int)
	for i := 0; i < 6; i++ {
		p, ok := s.GetNext()
		require.True(t, ok, "call %d: expected a proxy", i)
		for _, candidate := range proxies {
			if candidate.Address == p.Address {
				seenCountries[candidate.Country]++
			}
		}
	}
	assert.NotZero(t, seenCountries["US"], "expected US represented, got %+v", seenCountries)
	assert.NotZero(t, seenCountries["DE"], "expected DE represented, got %+v", seenCountries)
}

func TestLRUPicksLeastRecentlyTouched(t *testing.T) {
	scores := newFakeScores()
	proxies := proxiesABC()
	s := New(LeastRecentlyUsed, scores)
	s.UpdateProxies(proxies)

	// Manually stagger LastUsedMs so proxy B is the stalest.
	scores.Touch(proxies[0].Key(), 500)
	scores.Touch(proxies[1].Key(), 100)
	scores.Touch(proxies[2].Key(), 900)

	p, ok := s.GetNext()
	require.True(t, ok)
	assert.Equal(t, "2.2.2.2", p.Address, "expected the stalest proxy")
}

func TestAdvancedPenalizesRepeatedFailures(t *testing.T) {
	scores := newFakeScores()
	proxies := proxiesABC()
	s := New(Advanced, scores)
	s.UpdateProxies(proxies)
	for _, p := range proxies {
		scores.Touch(p.Key(), scores.Now())
	}

	target := proxies[0]
	for i := 0; i < 10; i++ {
		s.RecordFailure(target)
	}

	seenOther := false
	for i := 0; i < 10; i++ {
		p, _ := s.GetNext()
		if p.Address != target.Address {
			seenOther = true
		}
	}
	assert.True(t, seenOther, "expected the repeatedly-failing proxy to lose priority to its peers")
}
