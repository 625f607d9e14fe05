// Package validator probes a single candidate proxy to confirm it
// relays traffic, speaking raw HTTP CONNECT, SOCKS4, or SOCKS5 over a
// plain TCP dial (spec §4.2). Every socket opened here is closed on
// every exit path.
package validator

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/newsinsight/proxypool/internal/model"
)

// DefaultTarget is probed when Options.TargetURL is empty.
const DefaultTarget = "https://www.google.com"

// DefaultTimeout bounds a probe when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures a single probe.
type Options struct {
	TargetURL string
	Timeout   time.Duration
}

// Result is the outcome of probing one proxy.
type Result struct {
	Valid          bool
	ResponseTimeMs float64
	Err            error
}

func (o Options) normalized() Options {
	if o.TargetURL == "" {
		o.TargetURL = DefaultTarget
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Validate dials p and runs the protocol-appropriate handshake,
// returning whether it succeeded and how long it took. It never
// panics and never leaves a socket open past its own return.
func Validate(ctx context.Context, p model.Proxy, opts Options) Result {
	opts = opts.normalized()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()

	var ok bool
	var err error

	switch p.Protocol {
	case model.ProtocolHTTP, model.ProtocolHTTPS:
		ok, err = validateHTTP(ctx, p, opts)
	case model.ProtocolSOCKS4:
		ok, err = validateSOCKS4(ctx, p, opts)
	case model.ProtocolSOCKS5:
		ok, err = validateSOCKS5(ctx, p, opts)
	default:
		return Result{Valid: false, Err: fmt.Errorf("validator: unsupported protocol %q", p.Protocol)}
	}

	if err != nil || !ok {
		return Result{Valid: false, Err: err}
	}

	return Result{Valid: true, ResponseTimeMs: float64(time.Since(start).Milliseconds())}
}

// dial opens a plain TCP connection to the proxy's own endpoint,
// honoring ctx's deadline.
func dial(ctx context.Context, p model.Proxy) (net.Conn, error) {
	var d net.Dialer
	addr := net.JoinHostPort(p.Address, fmt.Sprintf("%d", p.Port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("validator: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, nil
}

func readFull(conn net.Conn, n int) ([]byte, error) {
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := conn.Read(buf[read:])
		if err != nil {
			return nil, err
		}
		read += m
	}
	return buf, nil
}
