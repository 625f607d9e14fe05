package rotation

import "github.com/newsinsight/proxypool/internal/model"

// randomStrategy draws uniformly over the active pool, or, with
// UseScoring set, proportionally to composite score.
type randomStrategy struct {
	*basePool
	UseScoring bool
}

func newRandomStrategy(scores ScoreLookup) *randomStrategy {
	return &randomStrategy{basePool: &basePool{scores: scores}}
}

// SetUseScoring implements ScoringToggle.
func (s *randomStrategy) SetUseScoring(v bool) { s.UseScoring = v }

func (s *randomStrategy) GetNext() (model.Proxy, bool) {
	proxies := s.snapshot()
	if len(proxies) == 0 {
		return model.Proxy{}, false
	}

	var picked model.Proxy
	if s.UseScoring {
		picked = s.pickWeighted(proxies)
	} else {
		picked = proxies[secureRandomInt(len(proxies))]
	}

	s.touch(picked)
	return picked, true
}

func (s *randomStrategy) pickWeighted(proxies []model.Proxy) model.Proxy {
	const minWeight = 0.01
	weights := make([]float64, len(proxies))
	total := 0.0
	for i, p := range proxies {
		w := s.composite(p) + minWeight
		weights[i] = w
		total += w
	}
	draw := secureRandomFloat(total)
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if draw < cumulative {
			return proxies[i]
		}
	}
	return proxies[len(proxies)-1]
}

func (s *randomStrategy) RecordSuccess(model.Proxy) {}
func (s *randomStrategy) RecordFailure(model.Proxy) {}
