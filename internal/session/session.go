// Package session implements the per-(proxy, domain) sticky session
// manager of spec §4.6: LRU eviction per proxy, TTL expiry, and a
// three-way index (by sessionId, by proxy, by domain→proxyKey).
package session

import (
	"crypto/rand"
	"sort"
	"time"

	"github.com/newsinsight/proxypool/internal/model"
)

const (
	// DefaultMaxSessionsPerProxy caps active sessions per proxy key.
	DefaultMaxSessionsPerProxy = 5
	// DefaultMaxSessionAge is the absolute lifetime before expiry.
	DefaultMaxSessionAge = time.Hour
	// DefaultMaxSessionIdle is the inactivity window before expiry.
	DefaultMaxSessionIdle = 10 * time.Minute

	sessionIDLength = 16
	sessionIDAlpha  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Session is the sticky state pinned to a (proxy, domain) pair.
type Session struct {
	ID             string
	Proxy          model.Proxy
	Domain         string
	UserAgent      string
	Cookies        map[string]string
	Headers        map[string]string
	CreationTime   time.Time
	LastAccessTime time.Time
	RequestCount   int
	Active         bool
}

// defaultUserAgents is the built-in pool spec §4.6 calls for when the
// caller does not supply one.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

func randomUserAgent() string {
	idx := secureRandomIndex(len(defaultUserAgents))
	return defaultUserAgents[idx]
}

// newSessionID generates a CSPRNG-backed 16-char lowercase-alnum id.
func newSessionID() string {
	buf := make([]byte, sessionIDLength)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read on crypto/rand only fails if the OS entropy
		// source is broken; fall back to a fixed-but-valid id shape
		// rather than panicking mid-request.
		for i := range buf {
			buf[i] = sessionIDAlpha[0]
		}
	}
	out := make([]byte, sessionIDLength)
	for i, b := range buf {
		out[i] = sessionIDAlpha[int(b)%len(sessionIDAlpha)]
	}
	return string(out)
}

func secureRandomIndex(n int) int {
	if n <= 0 {
		return 0
	}
	buf := make([]byte, 1)
	if _, err := rand.Read(buf); err != nil {
		return 0
	}
	return int(buf[0]) % n
}

// RequestHeaders merges session headers over defaults, then injects
// User-Agent and (if cookies are non-empty) a single Cookie header,
// per spec §4.6's precedence.
func RequestHeaders(s *Session, defaults map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(s.Headers)+2)
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range s.Headers {
		out[k] = v
	}
	out["User-Agent"] = s.UserAgent

	if len(s.Cookies) > 0 {
		keys := make([]string, 0, len(s.Cookies))
		for k := range s.Cookies {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cookie := ""
		for i, k := range keys {
			if i > 0 {
				cookie += "; "
			}
			cookie += k + "=" + s.Cookies[k]
		}
		out["Cookie"] = cookie
	}
	return out
}
