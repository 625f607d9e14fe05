package proxypool

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/newsinsight/proxypool/internal/analytics"
	"github.com/newsinsight/proxypool/internal/model"
	"github.com/newsinsight/proxypool/internal/rotation"
	"github.com/newsinsight/proxypool/internal/session"
)

// GetNextProxy implements spec §4.7's getNextProxy({validated, useScoring}):
// delegates to the current Strategy over either the validated-only
// pool or the full (candidates ∪ validated) pool.
func (e *Engine) GetNextProxy(validated, useScoring bool) (model.Proxy, error) {
	e.mu.Lock()
	if toggle, ok := e.strategy.(rotation.ScoringToggle); ok {
		toggle.SetUseScoring(useScoring)
	}
	e.updateStrategyPoolLocked(validated)
	strategy := e.strategy
	e.mu.Unlock()

	p, ok := strategy.GetNext()
	if !ok {
		return model.Proxy{}, newError(KindNoValidProxies, "no valid proxies available", nil)
	}

	e.analytics.RecordSelection(p.Key().String())
	if e.metrics != nil {
		e.metrics.ObserveSelection()
	}
	return p, nil
}

// GetRandomProxy is a convenience accessor independent of the
// currently configured main strategy, per spec §4.7.
func (e *Engine) GetRandomProxy() (model.Proxy, error) {
	e.mu.Lock()
	e.updateAuxPoolLocked(e.randomAux, true)
	aux := e.randomAux
	e.mu.Unlock()

	p, ok := aux.GetNext()
	if !ok {
		return model.Proxy{}, newError(KindNoValidProxies, "no valid proxies available", nil)
	}
	e.analytics.RecordSelection(p.Key().String())
	return p, nil
}

// GetLeastRecentlyUsedProxy is a convenience accessor independent of
// the currently configured main strategy, per spec §4.7.
func (e *Engine) GetLeastRecentlyUsedProxy() (model.Proxy, error) {
	e.mu.Lock()
	e.updateAuxPoolLocked(e.lruAux, true)
	aux := e.lruAux
	e.mu.Unlock()

	p, ok := aux.GetNext()
	if !ok {
		return model.Proxy{}, newError(KindNoValidProxies, "no valid proxies available", nil)
	}
	e.analytics.RecordSelection(p.Key().String())
	return p, nil
}

// updateStrategyPoolLocked refreshes the live strategy's pool from
// either the validated set or the full pool. Caller must hold e.mu.
func (e *Engine) updateStrategyPoolLocked(validatedOnly bool) {
	e.strategy.UpdateProxies(e.effectivePoolLocked(validatedOnly))
}

func (e *Engine) updateAuxPoolLocked(s rotation.Strategy, validatedOnly bool) {
	s.UpdateProxies(e.effectivePoolLocked(validatedOnly))
}

func (e *Engine) effectivePoolLocked(validatedOnly bool) []model.Proxy {
	if validatedOnly {
		pool := make([]model.Proxy, 0, len(e.validated))
		for _, p := range e.validated {
			pool = append(pool, p)
		}
		return pool
	}
	pool := make([]model.Proxy, 0, len(e.validated)+len(e.candidates))
	for _, p := range e.validated {
		pool = append(pool, p)
	}
	for _, p := range e.candidates {
		pool = append(pool, p)
	}
	return pool
}

// SetRotationStrategy swaps the active strategy, transferring the
// current pool across (spec §4.7).
func (e *Engine) SetRotationStrategy(kind rotation.Kind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := rotation.New(kind, e)
	next.UpdateProxies(e.effectivePoolLocked(true))
	e.strategy = next
	e.strategyKind = kind
	return nil
}

// GetRotationStrategyType returns the currently configured strategy kind.
func (e *Engine) GetRotationStrategyType() rotation.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strategyKind
}

// RecordSuccess updates the proxy's score and notifies the current
// strategy; consecutive-failure streaks reset (spec §3).
func (e *Engine) RecordSuccess(p model.Proxy, responseTimeMs float64) {
	e.mu.Lock()
	e.scoreLocked(p.Key()).RecordSuccess(responseTimeMs, time.Now().UnixMilli())
	strategy := e.strategy
	e.mu.Unlock()

	strategy.RecordSuccess(p)
	e.analytics.RecordSuccess(p.Key().String())
}

// RecordFailure updates the proxy's score and notifies the current
// strategy; after MaxConsecutiveFailures the proxy moves back to
// candidates (spec §3's "may re-enter candidates after N consecutive
// failures"), adapted from the teacher's checkAndReenableProxies
// cooldown logic into a lazy check performed inline here rather than
// a background ticker.
func (e *Engine) RecordFailure(p model.Proxy) {
	e.mu.Lock()
	sc := e.scoreLocked(p.Key())
	sc.RecordFailure(time.Now().UnixMilli())
	reentered := false
	if sc.ConsecutiveFailures >= e.opts.MaxConsecutiveFailures {
		key := p.Key()
		if _, wasValidated := e.validated[key]; wasValidated {
			delete(e.validated, key)
			e.candidates[key] = p
			reentered = true
		}
	}
	strategy := e.strategy
	e.mu.Unlock()

	strategy.RecordFailure(p)
	e.analytics.RecordFailure(p.Key().String())
	if reentered {
		e.analytics.RecordCandidateReentry(p.Key().String())
		e.logger.Infow("proxy returned to candidates after consecutive failures", "proxy", p.Key().String())
	}
}

// RecordCaptcha logs a CAPTCHA challenge encountered while using p and
// treats it as a failure signal against the proxy's score, adapted
// from the teacher variant's per-proxy CaptchaCount/RecordCaptcha into
// the facade's existing score-and-analytics pipeline.
func (e *Engine) RecordCaptcha(p model.Proxy, captchaType string) {
	e.analytics.RecordCaptcha(p.Key().String(), captchaType)
	e.RecordFailure(p)
}

// GetAnalytics returns a snapshot of counters and recent events.
func (e *Engine) GetAnalytics() analytics.Snapshot {
	return e.analytics.Snapshot()
}

// ResetAnalytics clears all counters and the event log.
func (e *Engine) ResetAnalytics() {
	e.analytics.Reset()
}

// ProxyURL renders the HTTP-client-facing dial target for p, per
// spec §6's external HTTP integration interface: scheme[s]://[user:pass@]host:port.
func ProxyURL(p model.Proxy) string {
	auth := ""
	if p.Credentialed() {
		auth = fmt.Sprintf("%s:%s@", p.Auth.Username, p.Auth.Password)
	}
	return fmt.Sprintf("%s://%s%s:%d", p.Protocol, auth, p.Address, p.Port)
}

// AuthHeaders renders the Proxy-Authorization header for p, empty
// when p carries no credentials, per spec §6.
func AuthHeaders(p model.Proxy) map[string]string {
	if !p.Credentialed() {
		return map[string]string{}
	}
	token := base64.StdEncoding.EncodeToString([]byte(p.Auth.Username + ":" + p.Auth.Password))
	return map[string]string{"Proxy-Authorization": "Basic " + token}
}

// CreateSession delegates to the session manager (spec §4.6).
func (e *Engine) CreateSession(p model.Proxy, domain, userAgent string, cookies, headers map[string]string) *session.Session {
	return e.sessions.CreateSession(p, domain, userAgent, cookies, headers)
}

// RequestHeaders renders the merged header set for an existing session.
func (e *Engine) RequestHeaders(s *session.Session, defaults map[string]string) map[string]string {
	return session.RequestHeaders(s, defaults)
}

// InvalidateSession delegates to the session manager; idempotent.
func (e *Engine) InvalidateSession(sessionID string) {
	e.sessions.Invalidate(sessionID)
}
