// Package rotation implements the pluggable proxy-selection
// strategies of spec §4.5: RoundRobin, Random, Weighted, Advanced
// (LRU-weighted), GeoBased, Adaptive, and LeastRecentlyUsed. Every
// strategy reports false (no proxy), never an error or panic, on an
// empty effective pool.
package rotation

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/newsinsight/proxypool/internal/model"
)

// Kind names a concrete rotation strategy.
type Kind string

const (
	RoundRobin        Kind = "round_robin"
	Random            Kind = "random"
	Weighted          Kind = "weighted"
	Advanced          Kind = "advanced"
	GeoBased          Kind = "geo_based"
	Adaptive          Kind = "adaptive"
	LeastRecentlyUsed Kind = "least_recently_used"
)

// ScoreLookup is the read/write view onto proxy scores a Strategy
// needs: reading the composite inputs and touching lastUsedMs on
// selection. The pool manager (the sole score writer, per spec §3)
// implements this.
type ScoreLookup interface {
	Score(key model.Key) (*model.Score, bool)
	Touch(key model.Key, nowMs int64)
	Now() int64
}

// Strategy is the capability set every rotation variant implements.
type Strategy interface {
	// UpdateProxies replaces the pool this strategy selects over.
	UpdateProxies(proxies []model.Proxy)
	// GetNext returns the next proxy, or false iff the pool is empty.
	GetNext() (model.Proxy, bool)
	// RecordSuccess/RecordFailure feed strategy-local state (usage
	// decay, Q-values); scoring itself lives in model.Score, owned by
	// the pool manager.
	RecordSuccess(p model.Proxy)
	RecordFailure(p model.Proxy)
}

// ScoringToggle is implemented by strategies whose selection behavior
// can be switched between uniform and score-weighted sampling (only
// Random, currently); the facade checks for it rather than growing
// the Strategy interface with a method most variants ignore.
type ScoringToggle interface {
	SetUseScoring(bool)
}

// New constructs the Strategy for kind. An unrecognized kind falls
// back to RoundRobin, matching the teacher's defaulting behavior.
func New(kind Kind, scores ScoreLookup) Strategy {
	switch kind {
	case Random:
		return newRandomStrategy(scores)
	case Weighted:
		return newWeightedStrategy(scores)
	case Advanced:
		return newAdvancedStrategy(scores)
	case GeoBased:
		return newGeoBasedStrategy(scores)
	case Adaptive:
		return newAdaptiveStrategy(scores)
	case LeastRecentlyUsed:
		return newLRUStrategy(scores)
	default:
		return newRoundRobinStrategy(scores)
	}
}

// secureRandomInt returns a cryptographically secure random int in [0, max).
func secureRandomInt(max int) int {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}

// secureRandomFloat returns a cryptographically secure random float
// in [0, max) at millisecond-scale precision, used for weighted draws.
func secureRandomFloat(max float64) float64 {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max*1000)))
	if err != nil {
		return 0
	}
	return float64(n.Int64()) / 1000.0
}

// basePool is embedded by every strategy: it owns the current active
// list and the mutex guarding it, since UpdateProxies can race with
// GetNext: the engine refreshes the pool under its own lock but calls
// GetNext after releasing it.
type basePool struct {
	mu      sync.RWMutex
	proxies []model.Proxy
	scores  ScoreLookup
}

func (b *basePool) UpdateProxies(proxies []model.Proxy) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.proxies = append([]model.Proxy(nil), proxies...)
}

func (b *basePool) snapshot() []model.Proxy {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.Proxy(nil), b.proxies...)
}

func (b *basePool) touch(p model.Proxy) {
	b.scores.Touch(p.Key(), b.scores.Now())
}

func (b *basePool) composite(p model.Proxy) float64 {
	s, ok := b.scores.Score(p.Key())
	if !ok {
		return 0.5
	}
	return s.Composite(b.scores.Now())
}

func (b *basePool) lastUsed(p model.Proxy) int64 {
	s, ok := b.scores.Score(p.Key())
	if !ok {
		return 0
	}
	return s.LastUsedMs
}
