// Package model holds the immutable proxy record and its mutable
// quality score, the two value types every other package in
// proxypool is built around.
package model

import "fmt"

// Protocol identifies the wire protocol a Proxy speaks.
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolHTTPS  Protocol = "https"
	ProtocolSOCKS4 Protocol = "socks4"
	ProtocolSOCKS5 Protocol = "socks5"
)

// AnonymityLevel describes how much a proxy reveals about the client.
type AnonymityLevel string

const (
	AnonymityTransparent AnonymityLevel = "transparent"
	AnonymityAnonymous   AnonymityLevel = "anonymous"
	AnonymityElite       AnonymityLevel = "elite"
)

// Credentials holds optional basic-auth style proxy credentials.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Proxy is an immutable candidate or validated endpoint. Equality is
// defined by (Address, Port, Protocol) — see Key. The JSON form round
// trips losslessly with a fixed field order.
type Proxy struct {
	Address        string         `json:"address"`
	Port           int            `json:"port"`
	Protocol       Protocol       `json:"protocol"`
	Country        string         `json:"country,omitempty"`
	AnonymityLevel AnonymityLevel `json:"anonymityLevel,omitempty"`
	ISP            string         `json:"isp,omitempty"`
	Region         string         `json:"region,omitempty"`
	SpeedMbps      float64        `json:"speedMbps,omitempty"`
	Auth           *Credentials   `json:"auth,omitempty"`
	SupportsWS     bool           `json:"supportsWebsockets,omitempty"`
	SupportsAuth   bool           `json:"supportsAuth,omitempty"`
	SocksVersion   int            `json:"socksVersion,omitempty"` // 0 when not applicable, else 4 or 5

	// Source/DiscoveredAt are provenance metadata supplementing the
	// base spec: which Source produced this candidate and when.
	Source       string `json:"source,omitempty"`
	DiscoveredAt int64  `json:"discoveredAt,omitempty"` // unix ms, 0 if unknown
}

// Key uniquely identifies a Proxy within a Pool.
type Key struct {
	Address  string
	Port     int
	Protocol Protocol
}

// Key returns the identity triple used for pool membership and map keys.
func (p Proxy) Key() Key {
	return Key{Address: p.Address, Port: p.Port, Protocol: p.Protocol}
}

// String renders protocol://host:port, used as the proxy's label in
// logs and analytics.
func (k Key) String() string {
	return fmt.Sprintf("%s://%s:%d", k.Protocol, k.Address, k.Port)
}

// Credentialed reports whether the proxy carries auth credentials.
func (p Proxy) Credentialed() bool {
	return p.Auth != nil && p.Auth.Username != ""
}

// IsElite reports whether the proxy's anonymity level is elite.
func (p Proxy) IsElite() bool {
	return p.AnonymityLevel == AnonymityElite
}
