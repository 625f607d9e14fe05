package source

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newsinsight/proxypool/internal/model"
)

// ProxyScrape fetches the plain-text ip:port list from api.proxyscrape.com,
// grounded on ProxyHawk's FreeListSource "text" format parser
// (internal/discovery/freelists.go parseFreeProxyWorldResponse), which
// reads one "host:port" per line rather than JSON or HTML.
type ProxyScrape struct {
	base
	client   *http.Client
	baseURL  string
	protocol model.Protocol
}

func NewProxyScrape() *ProxyScrape {
	return &ProxyScrape{
		base:     base{name: "proxyscrape"},
		client:   newHTTPClient(),
		baseURL:  "https://api.proxyscrape.com/v2/?request=getproxies&protocol=http&timeout=10000&country=all",
		protocol: model.ProtocolHTTP,
	}
}

func (p *ProxyScrape) Fetch(ctx context.Context) ([]model.Proxy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxyscrape: unexpected status %d", resp.StatusCode)
	}

	now := time.Now().UnixMilli()
	var proxies []model.Proxy
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		host, portStr, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			continue
		}
		proxies = append(proxies, model.Proxy{
			Address:      host,
			Port:         port,
			Protocol:     p.protocol,
			Source:       p.Name(),
			DiscoveredAt: now,
		})
	}

	p.Touch(time.Now())
	return proxies, scanner.Err()
}
