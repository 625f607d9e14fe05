package rotation

import "github.com/newsinsight/proxypool/internal/model"

// roundRobinStrategy cycles the active pool in order, carrying the
// teacher's "advance cursor, wrap, skip nothing" approach over from
// IPPool.selectRoundRobin.
type roundRobinStrategy struct {
	*basePool
	index int
}

func newRoundRobinStrategy(scores ScoreLookup) *roundRobinStrategy {
	return &roundRobinStrategy{basePool: &basePool{scores: scores}}
}

func (s *roundRobinStrategy) GetNext() (model.Proxy, bool) {
	s.mu.Lock()
	if len(s.proxies) == 0 {
		s.mu.Unlock()
		return model.Proxy{}, false
	}
	if s.index >= len(s.proxies) {
		s.index = 0
	}
	p := s.proxies[s.index]
	s.index++
	s.mu.Unlock()

	// Touch takes the engine's lock; it runs after s.mu is released so
	// the two locks are never held in the opposite order to
	// UpdateProxies, which the engine calls while holding its own lock.
	s.touch(p)
	return p, true
}

func (s *roundRobinStrategy) RecordSuccess(model.Proxy) {}
func (s *roundRobinStrategy) RecordFailure(model.Proxy) {}
