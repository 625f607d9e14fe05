// Package source implements the Source capability of spec §4.1: each
// variant fetches a best-effort list of candidate proxies from one
// upstream, normalizing whatever it finds into model.Proxy records.
// A source that cannot be reached returns an empty list, never an
// error that aborts the aggregate fetch.
package source

import (
	"context"
	"time"

	"github.com/newsinsight/proxypool/internal/model"
)

// Source is the polymorphic capability every upstream implements.
type Source interface {
	// Fetch returns a best-effort candidate list. Network failure,
	// a non-200 response, or malformed payload all degrade to an
	// empty slice and a non-nil error the aggregator logs but ignores.
	Fetch(ctx context.Context) ([]model.Proxy, error)
	Name() string
	LastUpdated() time.Time
	// Touch records the timestamp LastUpdated reports. The built-in
	// sources call it only after a fetch succeeds.
	Touch(at time.Time)
}

// base centralizes the Name/LastUpdated/Touch bookkeeping every
// concrete source embeds, following the teacher's "small struct +
// mutex-free last-seen timestamp" shape used for its health-check
// ticker bookkeeping in ip_rotation.go.
type base struct {
	name        string
	lastUpdated time.Time
}

func (b *base) Name() string           { return b.name }
func (b *base) LastUpdated() time.Time { return b.lastUpdated }
func (b *base) Touch(at time.Time)     { b.lastUpdated = at }

// DefaultFetchTimeout is the per-source deadline spec §5 specifies.
const DefaultFetchTimeout = 15 * time.Second
