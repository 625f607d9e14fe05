// Package analytics implements C9: counters and an event log fed by
// the pool manager, exported both as an in-process snapshot
// (getAnalytics/resetAnalytics, spec §4.7) and as Prometheus metrics
// for a host that registers them.
package analytics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind names the event-log categories the facade feeds.
type EventKind string

const (
	EventProxySelected    EventKind = "proxy_selected"
	EventProxyValidated   EventKind = "proxy_validated"
	EventValidationFailed EventKind = "validation_failed"
	EventSourceFetchError EventKind = "source_fetch_error"
	EventSuccessRecorded  EventKind = "success_recorded"
	EventFailureRecorded  EventKind = "failure_recorded"
	EventCandidateReentry EventKind = "candidate_reentry"
	EventCaptchaDetected  EventKind = "captcha_detected"
)

// Event is one entry in the bounded in-memory event log, tagged with a
// UUID correlation id so a host's own logs/traces can be cross
// referenced against an analytics snapshot.
type Event struct {
	ID       string
	Kind     EventKind
	ProxyKey string
	At       time.Time
	Detail   string
}

// Snapshot is the point-in-time view returned by getAnalytics.
type Snapshot struct {
	SelectionsTotal    uint64
	ValidationsTotal   uint64
	ValidationsOK      uint64
	SourceErrorsTotal  uint64
	SuccessesTotal     uint64
	FailuresTotal      uint64
	CandidateReentries uint64
	CaptchasDetected   uint64
	RecentEvents       []Event
}

const maxEventLog = 500

// Collector aggregates counters and a bounded ring of recent events.
// It never fails a caller's operation: recording is a side effect,
// never blocking or erroring.
type Collector struct {
	mu sync.Mutex

	selections    uint64
	validations   uint64
	validationsOK uint64
	sourceErrors  uint64
	successes     uint64
	failures      uint64
	reentries     uint64
	captchas      uint64

	events []Event
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) record(kind EventKind, proxyKey, detail string) {
	c.events = append(c.events, Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		ProxyKey: proxyKey,
		At:       time.Now(),
		Detail:   detail,
	})
	if len(c.events) > maxEventLog {
		c.events = c.events[len(c.events)-maxEventLog:]
	}
}

func (c *Collector) RecordSelection(proxyKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selections++
	c.record(EventProxySelected, proxyKey, "")
}

func (c *Collector) RecordValidation(proxyKey string, valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validations++
	if valid {
		c.validationsOK++
		c.record(EventProxyValidated, proxyKey, "")
	} else {
		c.record(EventValidationFailed, proxyKey, "")
	}
}

func (c *Collector) RecordSourceError(sourceName string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceErrors++
	detail := sourceName
	if err != nil {
		detail = sourceName + ": " + err.Error()
	}
	c.record(EventSourceFetchError, "", detail)
}

func (c *Collector) RecordSuccess(proxyKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successes++
	c.record(EventSuccessRecorded, proxyKey, "")
}

func (c *Collector) RecordFailure(proxyKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	c.record(EventFailureRecorded, proxyKey, "")
}

func (c *Collector) RecordCandidateReentry(proxyKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reentries++
	c.record(EventCandidateReentry, proxyKey, "")
}

// RecordCaptcha logs a CAPTCHA challenge encountered while using
// proxyKey, adapted from the teacher variant's RecordCaptcha onto the
// facade's analytics event log rather than a per-proxy counter field.
func (c *Collector) RecordCaptcha(proxyKey, captchaType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captchas++
	c.record(EventCaptchaDetected, proxyKey, captchaType)
}

// Snapshot returns a copy of the current counters and recent events.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]Event, len(c.events))
	copy(events, c.events)
	return Snapshot{
		SelectionsTotal:    c.selections,
		ValidationsTotal:   c.validations,
		ValidationsOK:      c.validationsOK,
		SourceErrorsTotal:  c.sourceErrors,
		SuccessesTotal:     c.successes,
		FailuresTotal:      c.failures,
		CandidateReentries: c.reentries,
		CaptchasDetected:   c.captchas,
		RecentEvents:       events,
	}
}

// Reset clears all counters and the event log (resetAnalytics, spec §4.7).
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selections = 0
	c.validations = 0
	c.validationsOK = 0
	c.sourceErrors = 0
	c.successes = 0
	c.failures = 0
	c.reentries = 0
	c.captchas = 0
	c.events = nil
}
