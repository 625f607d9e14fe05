package source

import "github.com/newsinsight/proxypool/internal/model"

// FilterOptions enumerates spec §4.1's candidate filters. A nil/zero
// field means "no constraint" for that dimension.
type FilterOptions struct {
	Count                 int
	OnlyHTTPS             bool
	Countries             map[string]bool
	Regions               map[string]bool
	ISPs                  map[string]bool
	MinSpeedMbps          float64
	RequireWebsockets     bool
	RequireSocks          bool
	SocksVersion          int // 0 = no constraint, else 4 or 5
	RequireAuthentication bool
	RequireAnonymous      bool
}

// Matches reports whether p satisfies every constraint in opts.
func (opts FilterOptions) Matches(p model.Proxy) bool {
	if opts.OnlyHTTPS && p.Protocol != model.ProtocolHTTPS {
		return false
	}
	if len(opts.Countries) > 0 && !opts.Countries[p.Country] {
		return false
	}
	if len(opts.Regions) > 0 && !opts.Regions[p.Region] {
		return false
	}
	if len(opts.ISPs) > 0 && !opts.ISPs[p.ISP] {
		return false
	}
	if opts.MinSpeedMbps > 0 && p.SpeedMbps < opts.MinSpeedMbps {
		return false
	}
	if opts.RequireWebsockets && !p.SupportsWS {
		return false
	}
	if opts.RequireSocks && p.Protocol != model.ProtocolSOCKS4 && p.Protocol != model.ProtocolSOCKS5 {
		return false
	}
	if opts.SocksVersion != 0 && p.SocksVersion != opts.SocksVersion {
		return false
	}
	if opts.RequireAuthentication && !p.Credentialed() {
		return false
	}
	if opts.RequireAnonymous && p.AnonymityLevel != model.AnonymityAnonymous && p.AnonymityLevel != model.AnonymityElite {
		return false
	}
	return true
}

// Apply filters and truncates proxies to opts.Count (0 = unlimited).
func Apply(proxies []model.Proxy, opts FilterOptions) []model.Proxy {
	out := make([]model.Proxy, 0, len(proxies))
	for _, p := range proxies {
		if opts.Matches(p) {
			out = append(out, p)
		}
		if opts.Count > 0 && len(out) >= opts.Count {
			break
		}
	}
	return out
}
