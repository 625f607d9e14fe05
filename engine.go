package proxypool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/newsinsight/proxypool/internal/analytics"
	"github.com/newsinsight/proxypool/internal/executor"
	"github.com/newsinsight/proxypool/internal/model"
	"github.com/newsinsight/proxypool/internal/rotation"
	"github.com/newsinsight/proxypool/internal/session"
	"github.com/newsinsight/proxypool/internal/source"
	"github.com/newsinsight/proxypool/internal/store"
	"github.com/newsinsight/proxypool/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Engine is the pool manager facade of spec §4.7. A single mutex
// guards the candidate/validated pools, the score map, and the active
// rotation strategy, matching the teacher's IPPool's single
// sync.RWMutex over its proxies/order/index rather than per-field
// locks.
type Engine struct {
	mu sync.Mutex

	logger *zap.SugaredLogger
	opts   Options

	sources       []source.Source
	store         store.Store
	sessions      *session.Manager
	analytics     *analytics.Collector
	metrics       *analytics.PrometheusMetrics
	validatorOpts validator.Options

	candidates map[model.Key]model.Proxy
	validated  map[model.Key]model.Proxy
	scores     map[model.Key]*model.Score

	strategyKind rotation.Kind
	strategy     rotation.Strategy
	randomAux    rotation.Strategy
	lruAux       rotation.Strategy
}

// EngineOption configures optional Engine collaborators.
type EngineOption func(*Engine)

func WithLogger(l *zap.SugaredLogger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

func WithStore(s store.Store) EngineOption {
	return func(e *Engine) { e.store = s }
}

func WithSources(sources []source.Source) EngineOption {
	return func(e *Engine) { e.sources = sources }
}

func WithPrometheusRegisterer(reg prometheus.Registerer) EngineOption {
	return func(e *Engine) { e.metrics = analytics.NewPrometheusMetrics(reg) }
}

// New constructs an Engine. opts is validated; an invalid Options
// value is a programmer error and panics, matching the teacher's
// expectation that IPPoolConfig is validated before NewIPPool is
// called rather than returning a constructor error for config typos.
func New(opts Options, engineOpts ...EngineOption) *Engine {
	if err := opts.Validate(); err != nil {
		panic(err)
	}
	opts = opts.withDefaults()

	e := &Engine{
		opts:       opts,
		candidates: make(map[model.Key]model.Proxy),
		validated:  make(map[model.Key]model.Proxy),
		scores:     make(map[model.Key]*model.Score),
		sessions: session.NewManager(session.Config{
			MaxSessionsPerProxy: opts.SessionMaxPerProxy,
			MaxSessionAge:       opts.SessionMaxAge,
			MaxSessionIdle:      opts.SessionMaxIdle,
		}),
		analytics: analytics.NewCollector(),
		validatorOpts: validator.Options{
			Timeout: opts.ValidationTimeout,
		},
		strategyKind: opts.Strategy,
	}

	for _, o := range engineOpts {
		o(e)
	}

	if e.logger == nil {
		l, _ := zap.NewProduction()
		e.logger = l.Sugar()
	}
	if e.store == nil {
		e.store = store.NewMemoryStore()
	}
	if e.sources == nil {
		e.sources = source.Default()
	}

	e.strategy = rotation.New(opts.Strategy, e)
	e.randomAux = rotation.New(rotation.Random, e)
	e.lruAux = rotation.New(rotation.LeastRecentlyUsed, e)

	e.warmStart(context.Background())

	return e
}

// LoadCachedProxies reads one of the two cached proxy sets from the
// engine's store. A cold cache returns nil without error; a stored
// value that cannot be parsed fails with a ProxyCacheError kind.
func (e *Engine) LoadCachedProxies(ctx context.Context, validated bool) ([]model.Proxy, error) {
	key := store.KeyCachedProxies
	if validated {
		key = store.KeyCachedValidatedProxies
	}
	proxies, ok, err := store.LoadProxies(ctx, e.store, key)
	if err != nil {
		return nil, newError(KindProxyCache, "cache could not be parsed", err)
	}
	if !ok {
		return nil, nil
	}
	return proxies, nil
}

// warmStart loads CACHED_PROXIES/CACHED_VALIDATED_PROXIES from the
// store, if present; failure is logged, never fatal (spec §4.4: "the
// core does not rely on the cache for correctness").
func (e *Engine) warmStart(ctx context.Context) {
	if proxies, err := e.LoadCachedProxies(ctx, false); err != nil {
		e.logger.Warnw("cache warm-start failed", "key", store.KeyCachedProxies, "error", err)
	} else {
		e.mu.Lock()
		for _, p := range proxies {
			e.candidates[p.Key()] = p
		}
		e.mu.Unlock()
	}

	if proxies, err := e.LoadCachedProxies(ctx, true); err != nil {
		e.logger.Warnw("cache warm-start failed", "key", store.KeyCachedValidatedProxies, "error", err)
	} else if len(proxies) > 0 {
		e.mu.Lock()
		for _, p := range proxies {
			e.validated[p.Key()] = p
		}
		e.refreshStrategiesLocked()
		e.mu.Unlock()
	}
}

// --- rotation.ScoreLookup ---

func (e *Engine) Score(key model.Key) (*model.Score, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.scores[key]
	return s, ok
}

func (e *Engine) Touch(key model.Key, nowMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scoreLocked(key).LastUsedMs = nowMs
}

func (e *Engine) Now() int64 {
	return time.Now().UnixMilli()
}

// scoreLocked returns the score for key, creating it lazily. Caller
// must hold e.mu.
func (e *Engine) scoreLocked(key model.Key) *model.Score {
	s, ok := e.scores[key]
	if !ok {
		s = model.NewScore(time.Now().UnixMilli())
		e.scores[key] = s
	}
	return s
}

// refreshStrategiesLocked pushes the current validated set into the
// live strategy and both auxiliary strategies. Caller must hold e.mu.
func (e *Engine) refreshStrategiesLocked() {
	pool := make([]model.Proxy, 0, len(e.validated))
	for _, p := range e.validated {
		pool = append(pool, p)
	}
	e.strategy.UpdateProxies(pool)
	e.randomAux.UpdateProxies(pool)
	e.lruAux.UpdateProxies(pool)
}

// FetchProxies implements spec §4.7's fetchProxies: aggregate from
// sources, dedupe, filter, cache, return.
func (e *Engine) FetchProxies(ctx context.Context, opts FetchOptions) ([]model.Proxy, error) {
	filter := opts.Filter
	if filter.Count == 0 {
		filter.Count = opts.Count
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = e.opts.SourceFetchTimeout
	}

	proxies := source.FetchAll(ctx, e.sources, timeout, filter, func(name string, err error) {
		e.analytics.RecordSourceError(name, err)
		if e.metrics != nil {
			e.metrics.ObserveSourceError(name)
		}
		e.logger.Warnw("source fetch failed", "source", name, "error", err)
	})

	if len(proxies) == 0 {
		return nil, newError(KindProxyFetch, "all sources returned empty", nil)
	}

	e.mu.Lock()
	for _, p := range proxies {
		if _, alreadyValidated := e.validated[p.Key()]; !alreadyValidated {
			e.candidates[p.Key()] = p
		}
	}
	e.mu.Unlock()

	if err := store.SaveProxies(ctx, e.store, store.KeyCachedProxies, proxies, e.Score); err != nil {
		e.logger.Warnw("cache write failed", "key", store.KeyCachedProxies, "error", err)
	}

	return proxies, nil
}

// FetchValidatedProxies implements spec §4.7's fetchValidatedProxies:
// fetch candidates, validate them under the executor, truncate to
// opts.Count survivors, persist, and return.
func (e *Engine) FetchValidatedProxies(ctx context.Context, opts FetchOptions, onProgress executor.Progress) ([]model.Proxy, error) {
	candidates, err := e.FetchProxies(ctx, opts)
	if err != nil {
		return nil, err
	}

	type probe struct {
		proxy  model.Proxy
		result validator.Result
	}

	concurrency := e.opts.MaxConcurrentValidations
	results := executor.Run(ctx, candidates, concurrency, func(ctx context.Context, p model.Proxy) probe {
		r := validator.Validate(ctx, p, e.validatorOpts)
		e.analytics.RecordValidation(p.Key().String(), r.Valid)
		if e.metrics != nil {
			e.metrics.ObserveValidation(r.Valid)
		}
		return probe{proxy: p, result: r}
	}, onProgress)

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, newError(KindTimeout, "fetchValidatedProxies deadline exceeded", ctx.Err())
		}
		return nil, newError(KindCancelled, "fetchValidatedProxies cancelled", ctx.Err())
	default:
	}

	survivors := make([]model.Proxy, 0, len(results))
	for _, r := range results {
		if !r.result.Valid {
			continue
		}
		e.mu.Lock()
		key := r.proxy.Key()
		delete(e.candidates, key)
		e.validated[key] = r.proxy
		e.scoreLocked(key).RecordSuccess(r.result.ResponseTimeMs, time.Now().UnixMilli())
		e.mu.Unlock()

		survivors = append(survivors, r.proxy)
		if opts.Count > 0 && len(survivors) >= opts.Count {
			break
		}
	}

	e.mu.Lock()
	e.refreshStrategiesLocked()
	poolSize := len(e.validated)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.SetPoolSize("validated", poolSize)
	}

	if err := store.SaveProxies(ctx, e.store, store.KeyCachedValidatedProxies, survivors, e.Score); err != nil {
		e.logger.Warnw("cache write failed", "key", store.KeyCachedValidatedProxies, "error", err)
	}

	return survivors, nil
}

// ValidateSpecificProxy runs a single-shot probe. If updateScore,
// the outcome is recorded against the proxy's score.
func (e *Engine) ValidateSpecificProxy(ctx context.Context, p model.Proxy, timeout time.Duration, updateScore bool) validator.Result {
	opts := e.validatorOpts
	if timeout > 0 {
		opts.Timeout = timeout
	}
	result := validator.Validate(ctx, p, opts)

	e.analytics.RecordValidation(p.Key().String(), result.Valid)
	if e.metrics != nil {
		e.metrics.ObserveValidation(result.Valid)
	}

	if updateScore {
		if result.Valid {
			e.RecordSuccess(p, result.ResponseTimeMs)
		} else {
			e.RecordFailure(p)
		}
	}
	return result
}
