package proxypool

import (
	"errors"
	"fmt"
	"time"

	"github.com/newsinsight/proxypool/internal/rotation"
	"github.com/newsinsight/proxypool/internal/source"
	"gopkg.in/yaml.v3"
)

// Options configures a new Engine. Zero-valued fields fall back to
// the documented defaults, matching the teacher's IPPoolConfig idiom
// of tolerant zero values plus an explicit Validate step.
type Options struct {
	// Strategy selects the initial rotation strategy.
	Strategy rotation.Kind `yaml:"strategy"`

	// MaxConsecutiveFailures moves a proxy back to candidates after
	// this many consecutive failures (default 5, spec §3).
	MaxConsecutiveFailures int `yaml:"maxConsecutiveFailures"`

	// ValidationTimeout bounds a single validator probe (default 10s).
	ValidationTimeout time.Duration `yaml:"validationTimeout"`

	// SourceFetchTimeout bounds a single source fetch (default 15s).
	SourceFetchTimeout time.Duration `yaml:"sourceFetchTimeout"`

	// MaxConcurrentValidations caps the executor's concurrency for
	// fetchValidatedProxies (default 10).
	MaxConcurrentValidations int `yaml:"maxConcurrentValidations"`

	// Session tunes the session manager; zero value uses its defaults.
	SessionMaxPerProxy int           `yaml:"sessionMaxPerProxy"`
	SessionMaxAge      time.Duration `yaml:"sessionMaxAge"`
	SessionMaxIdle     time.Duration `yaml:"sessionMaxIdle"`
}

// validStrategies mirrors the teacher's IPPoolConfig validStrategies
// set, widened to the seven strategies spec §4.5 defines.
var validStrategies = map[rotation.Kind]bool{
	rotation.RoundRobin:        true,
	rotation.Random:            true,
	rotation.Weighted:          true,
	rotation.Advanced:          true,
	rotation.GeoBased:          true,
	rotation.Adaptive:          true,
	rotation.LeastRecentlyUsed: true,
}

// Validate checks field-by-field, returning the first violation,
// matching the teacher's IPPoolConfig.Validate idiom.
func (o Options) Validate() error {
	if o.Strategy != "" && !validStrategies[o.Strategy] {
		return fmt.Errorf("proxypool: invalid strategy: %s", o.Strategy)
	}
	if o.MaxConsecutiveFailures < 0 {
		return errors.New("proxypool: maxConsecutiveFailures must be non-negative")
	}
	if o.ValidationTimeout < 0 {
		return errors.New("proxypool: validationTimeout must be non-negative")
	}
	if o.SourceFetchTimeout < 0 {
		return errors.New("proxypool: sourceFetchTimeout must be non-negative")
	}
	if o.MaxConcurrentValidations < 0 {
		return errors.New("proxypool: maxConcurrentValidations must be non-negative")
	}
	if o.SessionMaxPerProxy < 0 {
		return errors.New("proxypool: sessionMaxPerProxy must be non-negative")
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = rotation.RoundRobin
	}
	if o.MaxConsecutiveFailures == 0 {
		o.MaxConsecutiveFailures = 5
	}
	if o.ValidationTimeout == 0 {
		o.ValidationTimeout = 10 * time.Second
	}
	if o.SourceFetchTimeout == 0 {
		o.SourceFetchTimeout = source.DefaultFetchTimeout
	}
	if o.MaxConcurrentValidations == 0 {
		o.MaxConcurrentValidations = 10
	}
	return o
}

// LoadOptionsYAML parses Options from YAML, for hosts that prefer a
// config file over constructing Options in code.
func LoadOptionsYAML(data []byte) (Options, error) {
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("proxypool: parse config: %w", err)
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// FetchOptions parameterizes fetchProxies/fetchValidatedProxies.
type FetchOptions struct {
	Filter  source.FilterOptions
	Count   int
	Timeout time.Duration
}
