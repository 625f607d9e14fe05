package rotation

import (
	"sync"

	"github.com/newsinsight/proxypool/internal/model"
)

// advancedStrategy is the LRU-weighted variant of spec §4.5:
// score = composite − 0.2·normUsage − 0.3·recentFailuresPenalty,
// selecting the argmax. Usage and failure-penalty counters are
// strategy-local and decay over successive outcomes rather than
// resetting, so a proxy recovers standing gradually after a bad run.
type advancedStrategy struct {
	*basePool

	stateMu        sync.Mutex
	usage          map[model.Key]float64
	failurePenalty map[model.Key]float64
}

func newAdvancedStrategy(scores ScoreLookup) *advancedStrategy {
	return &advancedStrategy{
		basePool:       &basePool{scores: scores},
		usage:          make(map[model.Key]float64),
		failurePenalty: make(map[model.Key]float64),
	}
}

func (s *advancedStrategy) GetNext() (model.Proxy, bool) {
	proxies := s.snapshot()
	if len(proxies) == 0 {
		return model.Proxy{}, false
	}

	s.stateMu.Lock()
	maxUsage := 0.0
	for _, p := range proxies {
		if u := s.usage[p.Key()]; u > maxUsage {
			maxUsage = u
		}
	}

	var best model.Proxy
	bestScore := -1.0
	for _, p := range proxies {
		key := p.Key()
		normUsage := 0.0
		if maxUsage > 0 {
			normUsage = s.usage[key] / maxUsage
		}
		score := s.composite(p) - 0.2*normUsage - 0.3*s.failurePenalty[key]
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	s.usage[best.Key()] = s.usage[best.Key()]*0.9 + 1
	s.stateMu.Unlock()

	s.touch(best)
	return best, true
}

func (s *advancedStrategy) RecordSuccess(p model.Proxy) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.failurePenalty[p.Key()] *= 0.5
}

func (s *advancedStrategy) RecordFailure(p model.Proxy) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	key := p.Key()
	s.failurePenalty[key] = clampFloat(s.failurePenalty[key]*0.5+0.5, 0, 1)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
