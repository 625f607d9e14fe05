package rotation

import (
	"sort"

	"github.com/newsinsight/proxypool/internal/model"
)

// weightedStrategy samples proportionally to composite score, tying
// breaks by ascending lastUsed (stalest first), mirroring the
// teacher's selectWeighted but driven off the full composite score
// instead of raw success rate alone.
type weightedStrategy struct {
	*basePool
}

func newWeightedStrategy(scores ScoreLookup) *weightedStrategy {
	return &weightedStrategy{basePool: &basePool{scores: scores}}
}

func (s *weightedStrategy) GetNext() (model.Proxy, bool) {
	proxies := s.snapshot()
	if len(proxies) == 0 {
		return model.Proxy{}, false
	}

	const minWeight = 0.05
	weights := make([]float64, len(proxies))
	total := 0.0
	for i, p := range proxies {
		w := s.composite(p) + minWeight
		weights[i] = w
		total += w
	}

	if total <= 0 {
		return s.tieBreakOldest(proxies), true
	}

	draw := secureRandomFloat(total)
	cumulative := 0.0
	var chosen int
	found := false
	for i, w := range weights {
		cumulative += w
		if draw < cumulative {
			chosen = i
			found = true
			break
		}
	}
	if !found {
		chosen = len(proxies) - 1
	}

	// When multiple proxies carry (near-)identical weight, ties break
	// by lastUsed ascending rather than draw order.
	picked := proxies[chosen]
	var tied []model.Proxy
	for i, w := range weights {
		if w == weights[chosen] {
			tied = append(tied, proxies[i])
		}
	}
	if len(tied) > 1 {
		picked = s.tieBreakOldest(tied)
	}

	s.touch(picked)
	return picked, true
}

func (s *weightedStrategy) tieBreakOldest(proxies []model.Proxy) model.Proxy {
	sorted := append([]model.Proxy(nil), proxies...)
	sort.Slice(sorted, func(i, j int) bool {
		return s.lastUsed(sorted[i]) < s.lastUsed(sorted[j])
	})
	return sorted[0]
}

func (s *weightedStrategy) RecordSuccess(model.Proxy) {}
func (s *weightedStrategy) RecordFailure(model.Proxy) {}
