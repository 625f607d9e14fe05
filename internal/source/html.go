package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/newsinsight/proxypool/internal/model"
)

// htmlTableSource is the shared shape of the HTML-scraped upstreams
// (FreeProxyList, ProxyNova, HideMyName, ProxyListTo): each renders an
// ip/port/country table at a fixed URL with a fixed row selector.
// Parsing is centralized here, grounded on the goquery
// doc.Find(selector).Each(...) idiom from NullMeDev-LUMA's css_parser.go
// and BenjaminSRussell-go_go_go's internal/parser/advanced.go.
type htmlTableSource struct {
	base
	client       *http.Client
	url          string
	rowSelector  string
	defaultProto model.Protocol
	https        bool
}

func (h *htmlTableSource) Fetch(ctx context.Context) ([]model.Proxy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", h.Name(), resp.StatusCode)
	}

	// The body is read once up front so the token-walk fallback below
	// can re-scan it after goquery has consumed its reader.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", h.Name(), err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", h.Name(), err)
	}

	now := time.Now().UnixMilli()
	var proxies []model.Proxy
	doc.Find(h.rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		address := strings.TrimSpace(cells.Eq(0).Text())
		portText := strings.TrimSpace(cells.Eq(1).Text())
		port, err := strconv.Atoi(portText)
		if address == "" || err != nil {
			return
		}

		country := ""
		if cells.Length() > 2 {
			country = strings.TrimSpace(cells.Eq(2).Text())
		}

		protocol := h.defaultProto
		if h.https && cells.Length() > 6 {
			if strings.EqualFold(strings.TrimSpace(cells.Eq(6).Text()), "yes") {
				protocol = model.ProtocolHTTPS
			}
		}

		proxies = append(proxies, model.Proxy{
			Address:      address,
			Port:         port,
			Protocol:     protocol,
			Country:      country,
			Source:       h.Name(),
			DiscoveredAt: now,
		})
	})

	// Some list pages bury ip:port pairs in <div>/<li> text rather than
	// table cells. When the selector found nothing, fall back to a raw
	// token walk over the same body.
	if len(proxies) == 0 {
		proxies = append(proxies, extractIPPortFromTokens(body, h.defaultProto, h.Name(), now)...)
	}

	h.Touch(time.Now())
	return proxies, nil
}

// ipPortPattern matches the bare "ip:port" shape that falls out of
// plain text nodes once tags are stripped.
var ipPortPattern = regexp.MustCompile(`\b(\d{1,3}(?:\.\d{1,3}){3}):(\d{2,5})\b`)

// extractIPPortFromTokens walks raw HTML tokens collecting text-node
// content and regex-matching ip:port pairs out of it, for pages whose
// layout doesn't fit the goquery.Selection table-cell idiom above.
func extractIPPortFromTokens(body []byte, protocol model.Protocol, sourceName string, discoveredAt int64) []model.Proxy {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var proxies []model.Proxy
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return proxies
		case html.TextToken:
			text := string(tokenizer.Text())
			for _, m := range ipPortPattern.FindAllStringSubmatch(text, -1) {
				port, err := strconv.Atoi(m[2])
				if err != nil {
					continue
				}
				proxies = append(proxies, model.Proxy{
					Address:      m[1],
					Port:         port,
					Protocol:     protocol,
					Source:       sourceName,
					DiscoveredAt: discoveredAt,
				})
			}
		}
	}
}

// FreeProxyList scrapes free-proxy-list.net's table, grounded on the
// goquery idiom above; the real site's markup is a <table id="proxylisttable">
// with columns [IP, Port, Country code, Country, Anonymity, Google, Https, Last checked].
type FreeProxyList struct{ htmlTableSource }

func NewFreeProxyList() *FreeProxyList {
	return &FreeProxyList{htmlTableSource{
		base:         base{name: "free-proxy-list"},
		client:       newHTTPClient(),
		url:          "https://free-proxy-list.net/",
		rowSelector:  "table#proxylisttable tbody tr",
		defaultProto: model.ProtocolHTTP,
		https:        true,
	}}
}

// ProxyNova scrapes proxynova.com's regional tables.
type ProxyNova struct{ htmlTableSource }

func NewProxyNova() *ProxyNova {
	return &ProxyNova{htmlTableSource{
		base:         base{name: "proxynova"},
		client:       newHTTPClient(),
		url:          "https://www.proxynova.com/proxy-server-list/",
		rowSelector:  "table#tbl_proxy_list tbody tr",
		defaultProto: model.ProtocolHTTP,
	}}
}

// HideMyName scrapes hidemy.name/en/proxy-list/'s table.
type HideMyName struct{ htmlTableSource }

func NewHideMyName() *HideMyName {
	return &HideMyName{htmlTableSource{
		base:         base{name: "hidemyname"},
		client:       newHTTPClient(),
		url:          "https://hidemy.name/en/proxy-list/",
		rowSelector:  "table.proxy__t tbody tr",
		defaultProto: model.ProtocolHTTP,
	}}
}

// ProxyListTo scrapes proxy-list.download / proxylist.to's table.
type ProxyListTo struct{ htmlTableSource }

func NewProxyListTo() *ProxyListTo {
	return &ProxyListTo{htmlTableSource{
		base:         base{name: "proxylist.to"},
		client:       newHTTPClient(),
		url:          "https://www.proxy-list.download/HTTP",
		rowSelector:  "table tbody tr",
		defaultProto: model.ProtocolHTTP,
	}}
}

// Custom wraps an arbitrary URL rendering the same row shape, for
// hosts that want to point the engine at a private or mirrored list
// without writing a new Source implementation.
type Custom struct{ htmlTableSource }

func NewCustom(name, url string, protocol model.Protocol) *Custom {
	return &Custom{htmlTableSource{
		base:         base{name: name},
		client:       newHTTPClient(),
		url:          url,
		rowSelector:  "table tbody tr",
		defaultProto: protocol,
	}}
}
