package validator

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/newsinsight/proxypool/internal/model"
)

// validateHTTP speaks the CONNECT method (HTTPS targets) or a plain
// GET (HTTP targets) through an HTTP/HTTPS proxy, per spec §4.2.
func validateHTTP(ctx context.Context, p model.Proxy, opts Options) (bool, error) {
	target, err := url.Parse(opts.TargetURL)
	if err != nil {
		return false, fmt.Errorf("validator: bad target url: %w", err)
	}

	conn, err := dial(ctx, p)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	host := target.Hostname()
	port := target.Port()
	if port == "" {
		if target.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	var request string
	if target.Scheme == "https" {
		request = fmt.Sprintf("CONNECT %s:%s HTTP/1.1\r\nHost: %s:%s\r\n", host, port, host, port)
		if p.Credentialed() {
			auth := base64.StdEncoding.EncodeToString([]byte(p.Auth.Username + ":" + p.Auth.Password))
			request += "Proxy-Authorization: Basic " + auth + "\r\n"
		}
		request += "\r\n"
	} else {
		path := target.RequestURI()
		if path == "" {
			path = "/"
		}
		request = fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", path, host)
	}

	if _, err := conn.Write([]byte(request)); err != nil {
		return false, fmt.Errorf("validator: write request: %w", err)
	}

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("validator: read status line: %w", err)
	}

	return isHTTPOK(statusLine), nil
}

// isHTTPOK reports whether statusLine is an HTTP/1.x 200 response
// line, accepted for both the CONNECT and plain-GET success cases.
func isHTTPOK(statusLine string) bool {
	statusLine = strings.TrimRight(statusLine, "\r\n")
	return strings.HasPrefix(statusLine, "HTTP/1.0 200") ||
		strings.HasPrefix(statusLine, "HTTP/1.1 200")
}
