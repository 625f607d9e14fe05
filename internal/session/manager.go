package session

import (
	"sync"
	"time"

	"github.com/newsinsight/proxypool/internal/model"
)

// Manager owns the three-way session index and enforces spec §4.6's
// eviction/expiry rules. All public methods sweep expired sessions
// first (lazily; no background goroutine), matching the teacher's
// preference for per-call maintenance over timers (ip_rotation.go's
// cooldown/health tickers are the one exception the teacher itself
// makes, for pool-wide rather than per-session state).
type Manager struct {
	mu sync.Mutex

	maxPerProxy int
	maxAge      time.Duration
	maxIdle     time.Duration

	byID     map[string]*Session
	byProxy  map[model.Key]map[string]*Session
	byDomain map[string]map[model.Key]*Session
}

// Config tunes the eviction/expiry thresholds; zero values fall back
// to the package defaults.
type Config struct {
	MaxSessionsPerProxy int
	MaxSessionAge       time.Duration
	MaxSessionIdle      time.Duration
}

func NewManager(cfg Config) *Manager {
	maxPerProxy := cfg.MaxSessionsPerProxy
	if maxPerProxy <= 0 {
		maxPerProxy = DefaultMaxSessionsPerProxy
	}
	maxAge := cfg.MaxSessionAge
	if maxAge <= 0 {
		maxAge = DefaultMaxSessionAge
	}
	maxIdle := cfg.MaxSessionIdle
	if maxIdle <= 0 {
		maxIdle = DefaultMaxSessionIdle
	}

	return &Manager{
		maxPerProxy: maxPerProxy,
		maxAge:      maxAge,
		maxIdle:     maxIdle,
		byID:        make(map[string]*Session),
		byProxy:     make(map[model.Key]map[string]*Session),
		byDomain:    make(map[string]map[model.Key]*Session),
	}
}

// CreateSession implements spec §4.6 steps 1-4: sweep, reuse-if-active,
// evict-if-full, then create.
func (m *Manager) CreateSession(proxy model.Proxy, domain, userAgent string, cookies, headers map[string]string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.sweepLocked(now)

	key := proxy.Key()
	if byKey, ok := m.byDomain[domain]; ok {
		if existing, ok := byKey[key]; ok && existing.Active {
			existing.LastAccessTime = now
			return existing
		}
	}

	if proxySessions := m.byProxy[key]; len(proxySessions) >= m.maxPerProxy {
		m.evictOldestLocked(proxySessions)
	}

	if userAgent == "" {
		userAgent = randomUserAgent()
	}
	if cookies == nil {
		cookies = make(map[string]string)
	}
	if headers == nil {
		headers = make(map[string]string)
	}

	s := &Session{
		ID:             newSessionID(),
		Proxy:          proxy,
		Domain:         domain,
		UserAgent:      userAgent,
		Cookies:        cookies,
		Headers:        headers,
		CreationTime:   now,
		LastAccessTime: now,
		Active:         true,
	}

	m.byID[s.ID] = s
	if m.byProxy[key] == nil {
		m.byProxy[key] = make(map[string]*Session)
	}
	m.byProxy[key][s.ID] = s
	if m.byDomain[domain] == nil {
		m.byDomain[domain] = make(map[model.Key]*Session)
	}
	m.byDomain[domain][key] = s

	return s
}

// Get returns the session by id, or nil if absent or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(time.Now())
	return m.byID[id]
}

// Invalidate removes a session from all indexes; idempotent.
func (m *Manager) Invalidate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(time.Now())
	s, ok := m.byID[id]
	if !ok {
		return
	}
	m.removeLocked(s)
}

// ActiveCount returns the number of currently active sessions,
// sweeping expired ones first.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(time.Now())
	return len(m.byID)
}

// evictOldestLocked removes the session with the smallest
// LastAccessTime from the given per-proxy set.
func (m *Manager) evictOldestLocked(proxySessions map[string]*Session) {
	var oldest *Session
	for _, s := range proxySessions {
		if oldest == nil || s.LastAccessTime.Before(oldest.LastAccessTime) {
			oldest = s
		}
	}
	if oldest != nil {
		m.removeLocked(oldest)
	}
}

func (m *Manager) removeLocked(s *Session) {
	s.Active = false
	delete(m.byID, s.ID)

	key := s.Proxy.Key()
	if byProxy, ok := m.byProxy[key]; ok {
		delete(byProxy, s.ID)
		if len(byProxy) == 0 {
			delete(m.byProxy, key)
		}
	}
	if byKey, ok := m.byDomain[s.Domain]; ok {
		if byKey[key] == s {
			delete(byKey, key)
		}
		if len(byKey) == 0 {
			delete(m.byDomain, s.Domain)
		}
	}
}

// sweepLocked removes every session whose age or idle time has
// exceeded the configured thresholds. Caller must hold m.mu.
func (m *Manager) sweepLocked(now time.Time) {
	for _, s := range m.byID {
		if now.Sub(s.CreationTime) > m.maxAge || now.Sub(s.LastAccessTime) > m.maxIdle {
			m.removeLocked(s)
		}
	}
}
