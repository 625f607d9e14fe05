package source

import (
	"context"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/newsinsight/proxypool/internal/executor"
	"github.com/newsinsight/proxypool/internal/model"
)

// fetchResult pairs one source's candidates with the error it hit, if
// any; a failing source degrades to an empty contribution rather than
// aborting the whole aggregate (spec §4.1).
type fetchResult struct {
	sourceName string
	proxies    []model.Proxy
	err        error
}

// FetchAll invokes Fetch on every enabled source in parallel, each
// under its own per-source timeout, then deduplicates by
// (address, port, protocol) and applies opts before truncating to
// opts.Count. onSourceError, if non-nil, is called once per source
// that returned an error (logging hook; never aborts the aggregate).
func FetchAll(ctx context.Context, sources []Source, timeout time.Duration, opts FilterOptions, onSourceError func(sourceName string, err error)) []model.Proxy {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	results := executor.Run(ctx, sources, len(sources), func(ctx context.Context, s Source) fetchResult {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		proxies, err := s.Fetch(fetchCtx)
		return fetchResult{sourceName: s.Name(), proxies: proxies, err: err}
	}, nil)

	var merged []model.Proxy
	for _, r := range results {
		if r.err != nil {
			if onSourceError != nil {
				onSourceError(r.sourceName, r.err)
			}
			continue
		}
		merged = append(merged, r.proxies...)
	}

	deduped := dedupe(merged)
	return Apply(deduped, opts)
}

// dedupe removes duplicate (address, port, protocol) triples, using a
// Bloom filter as a fast pre-filter ahead of the exact set check — the
// filter can false-positive (triggering an exact-map lookup) but never
// false-negative, so correctness rests on the map, not the filter.
func dedupe(proxies []model.Proxy) []model.Proxy {
	if len(proxies) == 0 {
		return nil
	}

	filter := bloom.NewWithEstimates(uint(len(proxies)), 0.01)
	seen := make(map[model.Key]struct{}, len(proxies))
	out := make([]model.Proxy, 0, len(proxies))

	for _, p := range proxies {
		key := p.Key()
		fp := []byte(fmt.Sprintf("%s|%d|%s", key.Address, key.Port, key.Protocol))

		if filter.Test(fp) {
			if _, exists := seen[key]; exists {
				continue
			}
		}
		filter.Add(fp)
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Default returns the built-in upstream sources in a fixed order,
// suitable for a host that wants "all sources on". Custom is not
// included since it needs a host-supplied URL.
func Default() []Source {
	return []Source{
		NewFreeProxyList(),
		NewGeonode(),
		NewProxyScrape(),
		NewProxyNova(),
		NewHideMyName(),
		NewProxyListTo(),
	}
}
