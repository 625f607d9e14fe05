package validator

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/newsinsight/proxypool/internal/model"
)

// validateSOCKS4 performs the SOCKS4 CONNECT handshake against the
// target URL's host, per spec §4.2. SOCKS4 only addresses IPv4, so a
// target that does not resolve to an A record fails the probe.
func validateSOCKS4(ctx context.Context, p model.Proxy, opts Options) (bool, error) {
	target, err := url.Parse(opts.TargetURL)
	if err != nil {
		return false, fmt.Errorf("validator: bad target url: %w", err)
	}

	host := target.Hostname()
	port, err := targetPort(target)
	if err != nil {
		return false, err
	}

	ip4, err := resolveIPv4(ctx, host)
	if err != nil {
		return false, fmt.Errorf("validator: socks4 requires an A record for %s: %w", host, err)
	}

	conn, err := dial(ctx, p)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	req := make([]byte, 0, 9)
	req = append(req, 0x04, 0x01)
	req = append(req, byte(port>>8), byte(port&0xff))
	req = append(req, ip4...)
	var user string
	if p.Credentialed() {
		user = p.Auth.Username
	}
	req = append(req, []byte(user)...)
	req = append(req, 0x00)

	if _, err := conn.Write(req); err != nil {
		return false, fmt.Errorf("validator: socks4 write request: %w", err)
	}

	resp, err := readFull(conn, 8)
	if err != nil {
		return false, fmt.Errorf("validator: socks4 read response: %w", err)
	}

	return resp[0] == 0x00 && resp[1] == 0x5A, nil
}

func targetPort(u *url.URL) (int, error) {
	portStr := u.Port()
	if portStr != "" {
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
			return 0, fmt.Errorf("validator: bad port %q: %w", portStr, err)
		}
		return port, nil
	}
	if u.Scheme == "https" {
		return 443, nil
	}
	return 80, nil
}

func resolveIPv4(ctx context.Context, host string) ([]byte, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("validator: %s is not an IPv4 literal", host)
	}

	var r net.Resolver
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("validator: no A record for %s", host)
	}
	return ips[0].To4(), nil
}
