package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/newsinsight/proxypool/internal/model"
)

// cachedProxy is the wire shape of spec §6's KV contract — distinct
// from model.Proxy's Go-idiomatic field names, since the persisted
// JSON shape is a fixed external contract (ip/port/countryCode/...).
type cachedProxy struct {
	IP             string  `json:"ip"`
	Port           int     `json:"port"`
	CountryCode    string  `json:"countryCode,omitempty"`
	IsHTTPS        bool    `json:"isHttps"`
	AnonymityLevel string  `json:"anonymityLevel,omitempty"`
	LastChecked    int64   `json:"lastChecked,omitempty"`
	ResponseTime   float64 `json:"responseTime,omitempty"`
}

func toCachedProxy(p model.Proxy, sc *model.Score) cachedProxy {
	cp := cachedProxy{
		IP:             p.Address,
		Port:           p.Port,
		CountryCode:    p.Country,
		IsHTTPS:        p.Protocol == model.ProtocolHTTPS,
		AnonymityLevel: string(p.AnonymityLevel),
	}
	if sc != nil {
		cp.LastChecked = sc.LastUsedMs
		cp.ResponseTime = sc.AvgResponseTimeMs
	}
	return cp
}

func (cp cachedProxy) toProxy() model.Proxy {
	protocol := model.ProtocolHTTP
	if cp.IsHTTPS {
		protocol = model.ProtocolHTTPS
	}
	return model.Proxy{
		Address:        cp.IP,
		Port:           cp.Port,
		Protocol:       protocol,
		Country:        cp.CountryCode,
		AnonymityLevel: model.AnonymityLevel(cp.AnonymityLevel),
	}
}

// ScoreSource resolves a proxy's current score for persistence; the
// engine's score map satisfies this trivially.
type ScoreSource func(key model.Key) (*model.Score, bool)

// SaveProxies marshals proxies (with their scores, when scoreOf
// resolves one) to key as a JSON array and writes it via s.
func SaveProxies(ctx context.Context, s Store, key string, proxies []model.Proxy, scoreOf ScoreSource) error {
	out := make([]cachedProxy, len(proxies))
	for i, p := range proxies {
		var sc *model.Score
		if scoreOf != nil {
			sc, _ = scoreOf(p.Key())
		}
		out[i] = toCachedProxy(p, sc)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("store: marshal proxies for %s: %w", key, err)
	}
	return s.SetBytes(ctx, key, data)
}

// LoadProxies reads and decodes the JSON array stored at key. It
// returns (nil, false, nil) on a cold cache (key absent) and a
// non-nil error — surfaced by the engine as a cache-parse failure —
// when the stored value is not valid JSON in the expected shape.
func LoadProxies(ctx context.Context, s Store, key string) ([]model.Proxy, bool, error) {
	data, ok, err := s.GetBytes(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("store: read %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	var decoded []cachedProxy
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, false, fmt.Errorf("store: parse cached proxies at %s: %w", key, err)
	}

	proxies := make([]model.Proxy, len(decoded))
	for i, cp := range decoded {
		proxies[i] = cp.toProxy()
	}
	return proxies, true, nil
}
