package rotation

import "github.com/newsinsight/proxypool/internal/model"

// lruStrategy always selects the proxy least recently touched,
// ties broken by pool order.
type lruStrategy struct {
	*basePool
}

func newLRUStrategy(scores ScoreLookup) *lruStrategy {
	return &lruStrategy{basePool: &basePool{scores: scores}}
}

func (s *lruStrategy) GetNext() (model.Proxy, bool) {
	proxies := s.snapshot()
	if len(proxies) == 0 {
		return model.Proxy{}, false
	}

	oldest := proxies[0]
	oldestUsed := s.lastUsed(oldest)
	for _, p := range proxies[1:] {
		if used := s.lastUsed(p); used < oldestUsed {
			oldest = p
			oldestUsed = used
		}
	}

	s.touch(oldest)
	return oldest, true
}

func (s *lruStrategy) RecordSuccess(model.Proxy) {}
func (s *lruStrategy) RecordFailure(model.Proxy) {}
