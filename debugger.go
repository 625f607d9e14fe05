package proxypool

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/newsinsight/proxypool/internal/executor"
	"github.com/newsinsight/proxypool/internal/model"
	"github.com/newsinsight/proxypool/internal/source"
)

// SourceProbeResult is one source's independent probe outcome within
// a DiagnosticReport.
type SourceProbeResult struct {
	SourceName   string
	ProxiesFound int
	Err          string
	Duration     time.Duration
}

// DiagnosticReport is the structured output of RunDiagnostic, spec
// §4.8: pool counts, per-source probes, a sample of validated
// proxies, a fetchValidatedProxies attempt, and a getNextProxy
// attempt.
type DiagnosticReport struct {
	ID                 string
	At                 time.Time
	CandidateCount     int
	ValidatedCount     int
	SourceProbes       []SourceProbeResult
	SampledValidated   []model.Proxy
	FetchValidatedErr  string
	FetchValidatedGot  int
	GetNextProxyErr    string
	GetNextProxyResult *model.Proxy
	FixApplied         bool
	FixSteps           []string
}

// RunDiagnostic runs the scripted self-check of spec §4.8: it counts
// the current pool, probes each configured source independently,
// samples up to 5 validated proxies, attempts a full
// fetchValidatedProxies(count=10), and attempts getNextProxy. Every
// step is best-effort: a failing step is recorded in the report
// rather than aborting the run.
func (e *Engine) RunDiagnostic(ctx context.Context) DiagnosticReport {
	report := DiagnosticReport{
		ID: uuid.NewString(),
		At: time.Now(),
	}

	e.mu.Lock()
	report.CandidateCount = len(e.candidates)
	report.ValidatedCount = len(e.validated)
	sample := make([]model.Proxy, 0, 5)
	for _, p := range e.validated {
		if len(sample) >= 5 {
			break
		}
		sample = append(sample, p)
	}
	e.mu.Unlock()
	report.SampledValidated = sample

	report.SourceProbes = e.probeSourcesIndependently(ctx)

	validated, err := e.FetchValidatedProxies(ctx, FetchOptions{Count: 10}, nil)
	if err != nil {
		report.FetchValidatedErr = err.Error()
	}
	report.FetchValidatedGot = len(validated)

	next, err := e.GetNextProxy(true, true)
	if err != nil {
		report.GetNextProxyErr = err.Error()
	} else {
		report.GetNextProxyResult = &next
	}

	return report
}

// probeSourcesIndependently runs each configured source's Fetch in
// isolation so one misbehaving source can't mask another's result,
// unlike FetchProxies's merged aggregation.
func (e *Engine) probeSourcesIndependently(ctx context.Context) []SourceProbeResult {
	e.mu.Lock()
	sources := append([]source.Source(nil), e.sources...)
	e.mu.Unlock()

	results := executor.Run(ctx, sources, len(sources), func(ctx context.Context, s source.Source) SourceProbeResult {
		start := time.Now()
		proxies, err := s.Fetch(ctx)
		res := SourceProbeResult{
			SourceName:   s.Name(),
			ProxiesFound: len(proxies),
			Duration:     time.Since(start),
		}
		if err != nil {
			res.Err = err.Error()
		}
		return res
	}, nil)

	return results
}

// AttemptFix implements spec §4.8's recovery procedure: it relaxes
// filters in sequence (any protocol, higher count, longer timeout)
// and retries fetchValidatedProxies after each relaxation, recording
// every step taken; if no relaxation yields a validated proxy it
// falls back to an unvalidated candidate as a last resort.
func (e *Engine) AttemptFix(ctx context.Context, report *DiagnosticReport) (model.Proxy, error) {
	steps := []struct {
		name string
		opts FetchOptions
	}{
		{
			name: "relax protocol filter, count=10",
			opts: FetchOptions{Count: 10},
		},
		{
			name: "relax protocol filter, count=25, timeout=20s",
			opts: FetchOptions{Count: 25, Timeout: 20 * time.Second},
		},
		{
			name: "relax protocol filter, count=50, timeout=30s",
			opts: FetchOptions{Count: 50, Timeout: 30 * time.Second},
		},
	}

	for _, step := range steps {
		report.FixSteps = append(report.FixSteps, step.name)
		validated, err := e.FetchValidatedProxies(ctx, step.opts, nil)
		if err == nil && len(validated) > 0 {
			report.FixApplied = true
			p, selErr := e.GetNextProxy(true, true)
			if selErr == nil {
				return p, nil
			}
		}
	}

	report.FixSteps = append(report.FixSteps, "fall back to unvalidated selection")
	e.mu.Lock()
	var fallback model.Proxy
	found := false
	for _, p := range e.candidates {
		fallback = p
		found = true
		break
	}
	e.mu.Unlock()
	if !found {
		return model.Proxy{}, newError(KindNoValidProxies, "attemptFix exhausted all recovery steps", nil)
	}

	report.FixApplied = true
	return fallback, nil
}
