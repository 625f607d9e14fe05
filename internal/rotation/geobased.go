package rotation

import "github.com/newsinsight/proxypool/internal/model"

// geoBasedStrategy round-robins across distinct country codes, and
// round-robins by arrival order within a country; proxies with no
// country form their own null bucket (spec §4.5).
type geoBasedStrategy struct {
	*basePool

	bucketOrder  []string
	buckets      map[string][]model.Proxy
	bucketCursor map[string]int
	countryIdx   int
}

const nullCountryBucket = "\x00null"

func newGeoBasedStrategy(scores ScoreLookup) *geoBasedStrategy {
	return &geoBasedStrategy{
		basePool:     &basePool{scores: scores},
		buckets:      make(map[string][]model.Proxy),
		bucketCursor: make(map[string]int),
	}
}

func (s *geoBasedStrategy) UpdateProxies(proxies []model.Proxy) {
	s.basePool.UpdateProxies(proxies)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string][]model.Proxy)
	s.bucketOrder = nil
	for _, p := range proxies {
		key := p.Country
		if key == "" {
			key = nullCountryBucket
		}
		if _, ok := s.buckets[key]; !ok {
			s.bucketOrder = append(s.bucketOrder, key)
			s.bucketCursor[key] = 0
		}
		s.buckets[key] = append(s.buckets[key], p)
	}
	if s.countryIdx >= len(s.bucketOrder) {
		s.countryIdx = 0
	}
}

func (s *geoBasedStrategy) GetNext() (model.Proxy, bool) {
	s.mu.Lock()
	var picked model.Proxy
	found := false
	for attempts := 0; attempts < len(s.bucketOrder); attempts++ {
		if s.countryIdx >= len(s.bucketOrder) {
			s.countryIdx = 0
		}
		bucketKey := s.bucketOrder[s.countryIdx]
		s.countryIdx++

		bucket := s.buckets[bucketKey]
		if len(bucket) == 0 {
			continue
		}
		cursor := s.bucketCursor[bucketKey]
		if cursor >= len(bucket) {
			cursor = 0
		}
		picked = bucket[cursor]
		s.bucketCursor[bucketKey] = cursor + 1
		found = true
		break
	}
	s.mu.Unlock()

	if !found {
		return model.Proxy{}, false
	}
	// Touched after s.mu is released, as in roundRobinStrategy.GetNext.
	s.touch(picked)
	return picked, true
}

func (s *geoBasedStrategy) RecordSuccess(model.Proxy) {}
func (s *geoBasedStrategy) RecordFailure(model.Proxy) {}
