package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/newsinsight/proxypool/internal/model"
)

// geonodeProxy mirrors ProxyList.geonode.com's API shape, grounded on
// ResistanceIsUseless-ProxyHawk's GeonodeProxy/GeonodeResponse structs
// (internal/discovery/freelists.go), trimmed to the fields the proxy
// model actually carries.
type geonodeProxy struct {
	IP           string   `json:"ip"`
	Port         string   `json:"port"`
	Country      string   `json:"country"`
	ResponseTime int      `json:"responseTime"`
	Protocols    []string `json:"protocols"`
	Anonymity    string   `json:"anonymity"`
	ISP          string   `json:"isp"`
	Region       string   `json:"region"`
	Speed        int      `json:"speed"`
}

type geonodeResponse struct {
	Data []geonodeProxy `json:"data"`
}

// Geonode fetches https://proxylist.geonode.com/api/proxy-list.
type Geonode struct {
	base
	client  *http.Client
	baseURL string
}

func NewGeonode() *Geonode {
	return &Geonode{
		base:    base{name: "geonode"},
		client:  newHTTPClient(),
		baseURL: "https://proxylist.geonode.com/api/proxy-list?limit=200&page=1&sort_by=lastChecked&sort_type=desc",
	}
}

func (g *Geonode) Fetch(ctx context.Context) ([]model.Proxy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geonode: unexpected status %d", resp.StatusCode)
	}

	var decoded geonodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("geonode: decode: %w", err)
	}

	proxies := make([]model.Proxy, 0, len(decoded.Data))
	for _, gp := range decoded.Data {
		port, err := strconv.Atoi(gp.Port)
		if err != nil {
			continue
		}
		protocol := model.ProtocolHTTP
		for _, p := range gp.Protocols {
			if p == "socks5" {
				protocol = model.ProtocolSOCKS5
			} else if p == "socks4" && protocol == model.ProtocolHTTP {
				protocol = model.ProtocolSOCKS4
			} else if p == "https" && protocol == model.ProtocolHTTP {
				protocol = model.ProtocolHTTPS
			}
		}
		proxies = append(proxies, model.Proxy{
			Address:        gp.IP,
			Port:           port,
			Protocol:       protocol,
			Country:        gp.Country,
			AnonymityLevel: anonymityFromString(gp.Anonymity),
			ISP:            gp.ISP,
			Region:         gp.Region,
			SpeedMbps:      float64(gp.Speed),
			Source:         g.Name(),
			DiscoveredAt:   time.Now().UnixMilli(),
		})
	}

	g.Touch(time.Now())
	return proxies, nil
}

func anonymityFromString(s string) model.AnonymityLevel {
	switch s {
	case "elite", "high_anonymous":
		return model.AnonymityElite
	case "anonymous":
		return model.AnonymityAnonymous
	case "transparent":
		return model.AnonymityTransparent
	default:
		return ""
	}
}
