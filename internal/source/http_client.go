package source

import (
	"net/http"
)

// newHTTPClient returns a client scoped to DefaultFetchTimeout, shared
// by every concrete source rather than each constructing its own.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultFetchTimeout}
}

const defaultUserAgent = "proxypool/1.0 (+https://github.com/newsinsight/proxypool)"
