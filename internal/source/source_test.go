package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsinsight/proxypool/internal/model"
)

// fakeSource is a scripted Source for aggregate-fetch tests.
type fakeSource struct {
	base
	proxies []model.Proxy
	err     error
}

func (f *fakeSource) Fetch(context.Context) ([]model.Proxy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.proxies, nil
}

func TestFilterOptionsMatches(t *testing.T) {
	p := model.Proxy{
		Address: "1.2.3.4", Port: 80, Protocol: model.ProtocolHTTPS,
		Country: "US", AnonymityLevel: model.AnonymityElite, SpeedMbps: 50,
	}

	opts := FilterOptions{OnlyHTTPS: true, Countries: map[string]bool{"US": true}, MinSpeedMbps: 10, RequireAnonymous: true}
	assert.True(t, opts.Matches(p), "expected proxy to satisfy all constraints")

	opts.Countries = map[string]bool{"DE": true}
	assert.False(t, opts.Matches(p), "expected country mismatch to fail")
}

func TestApplyTruncatesToCount(t *testing.T) {
	proxies := []model.Proxy{
		{Address: "1.1.1.1", Port: 80}, {Address: "2.2.2.2", Port: 80}, {Address: "3.3.3.3", Port: 80},
	}
	out := Apply(proxies, FilterOptions{Count: 2})
	assert.Len(t, out, 2)
}

func TestDedupeRemovesExactDuplicates(t *testing.T) {
	proxies := []model.Proxy{
		{Address: "1.1.1.1", Port: 80, Protocol: model.ProtocolHTTP},
		{Address: "1.1.1.1", Port: 80, Protocol: model.ProtocolHTTP},
		{Address: "1.1.1.1", Port: 80, Protocol: model.ProtocolSOCKS5},
	}
	out := dedupe(proxies)
	assert.Len(t, out, 2, "expected 2 distinct (address,port,protocol) keys: %+v", out)
}

func TestFetchAllMergesAcrossSourcesAndIgnoresFailures(t *testing.T) {
	good := &fakeSource{base: base{name: "good"}, proxies: []model.Proxy{
		{Address: "1.1.1.1", Port: 80}, {Address: "2.2.2.2", Port: 80},
	}}
	bad := &fakeSource{base: base{name: "bad"}, err: errors.New("unreachable")}

	var reportedErrs []string
	out := FetchAll(context.Background(), []Source{good, bad}, time.Second, FilterOptions{}, func(name string, _ error) {
		reportedErrs = append(reportedErrs, name)
	})

	assert.Len(t, out, 2, "expected 2 merged proxies")
	require.Len(t, reportedErrs, 1)
	assert.Equal(t, "bad", reportedErrs[0], "expected exactly the failing source reported")
}

func TestFetchAllAppliesFilterAndCount(t *testing.T) {
	s := &fakeSource{base: base{name: "s"}, proxies: []model.Proxy{
		{Address: "1.1.1.1", Port: 80, Protocol: model.ProtocolHTTPS},
		{Address: "2.2.2.2", Port: 80, Protocol: model.ProtocolHTTP},
		{Address: "3.3.3.3", Port: 80, Protocol: model.ProtocolHTTPS},
	}}
	out := FetchAll(context.Background(), []Source{s}, time.Second, FilterOptions{OnlyHTTPS: true, Count: 1}, nil)
	require.Len(t, out, 1, "expected 1 https proxy: %+v", out)
	assert.Equal(t, model.ProtocolHTTPS, out[0].Protocol)
}
