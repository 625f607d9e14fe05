package rotation

import (
	"sync"

	"github.com/newsinsight/proxypool/internal/model"
)

const (
	adaptiveEpsilon      = 0.1
	adaptiveLearningRate = 0.1
)

// adaptiveStrategy is an epsilon-greedy bandit over per-proxy
// Q-values: with probability epsilon it explores uniformly at random,
// otherwise it exploits the current argmax Q (spec §4.5).
type adaptiveStrategy struct {
	*basePool

	stateMu sync.Mutex
	q       map[model.Key]float64
}

func newAdaptiveStrategy(scores ScoreLookup) *adaptiveStrategy {
	return &adaptiveStrategy{
		basePool: &basePool{scores: scores},
		q:        make(map[model.Key]float64),
	}
}

func (s *adaptiveStrategy) GetNext() (model.Proxy, bool) {
	proxies := s.snapshot()
	if len(proxies) == 0 {
		return model.Proxy{}, false
	}

	explore := secureRandomFloat(1) < adaptiveEpsilon

	s.stateMu.Lock()
	var picked model.Proxy
	if explore {
		picked = proxies[secureRandomInt(len(proxies))]
	} else {
		bestQ := -1.0
		picked = proxies[0]
		for _, p := range proxies {
			q, ok := s.q[p.Key()]
			if !ok {
				q = s.composite(p)
			}
			if q > bestQ {
				bestQ = q
				picked = p
			}
		}
	}
	s.stateMu.Unlock()

	s.touch(picked)
	return picked, true
}

func (s *adaptiveStrategy) update(p model.Proxy, reward float64) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	key := p.Key()
	q, ok := s.q[key]
	if !ok {
		q = s.composite(p)
	}
	s.q[key] = q + adaptiveLearningRate*(reward-q)
}

func (s *adaptiveStrategy) RecordSuccess(p model.Proxy) { s.update(p, 1) }
func (s *adaptiveStrategy) RecordFailure(p model.Proxy) { s.update(p, -1) }
