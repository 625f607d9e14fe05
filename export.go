package proxypool

import (
	"github.com/newsinsight/proxypool/internal/analytics"
	"github.com/newsinsight/proxypool/internal/executor"
	"github.com/newsinsight/proxypool/internal/model"
	"github.com/newsinsight/proxypool/internal/rotation"
	"github.com/newsinsight/proxypool/internal/session"
	"github.com/newsinsight/proxypool/internal/source"
	"github.com/newsinsight/proxypool/internal/store"
	"github.com/newsinsight/proxypool/internal/validator"
)

// Aliases for the internal domain types appearing in the Engine's
// public surface, so a host embedding the engine can name them without
// importing internal packages (which the toolchain forbids from
// outside this module).
type (
	Proxy          = model.Proxy
	ProxyKey       = model.Key
	Score          = model.Score
	Credentials    = model.Credentials
	Protocol       = model.Protocol
	AnonymityLevel = model.AnonymityLevel

	Source        = source.Source
	FilterOptions = source.FilterOptions

	Store = store.Store

	StrategyKind = rotation.Kind

	Session = session.Session

	AnalyticsSnapshot = analytics.Snapshot
	AnalyticsEvent    = analytics.Event

	ValidationResult  = validator.Result
	ValidationOptions = validator.Options

	ProgressFunc = executor.Progress
)

const (
	ProtocolHTTP   = model.ProtocolHTTP
	ProtocolHTTPS  = model.ProtocolHTTPS
	ProtocolSOCKS4 = model.ProtocolSOCKS4
	ProtocolSOCKS5 = model.ProtocolSOCKS5

	AnonymityTransparent = model.AnonymityTransparent
	AnonymityAnonymous   = model.AnonymityAnonymous
	AnonymityElite       = model.AnonymityElite

	StrategyRoundRobin        = rotation.RoundRobin
	StrategyRandom            = rotation.Random
	StrategyWeighted          = rotation.Weighted
	StrategyAdvanced          = rotation.Advanced
	StrategyGeoBased          = rotation.GeoBased
	StrategyAdaptive          = rotation.Adaptive
	StrategyLeastRecentlyUsed = rotation.LeastRecentlyUsed
)

// Constructors re-exported for hosts wiring their own source set or
// store backend into New via WithSources/WithStore.
var (
	NewFreeProxyList = source.NewFreeProxyList
	NewGeonode       = source.NewGeonode
	NewProxyScrape   = source.NewProxyScrape
	NewProxyNova     = source.NewProxyNova
	NewHideMyName    = source.NewHideMyName
	NewProxyListTo   = source.NewProxyListTo
	NewCustomSource  = source.NewCustom
	DefaultSources   = source.Default

	NewMemoryStore = store.NewMemoryStore
	NewFileStore   = store.NewFileStore
	NewRedisStore  = store.NewRedisStore
)
