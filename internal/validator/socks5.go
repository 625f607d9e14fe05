package validator

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/newsinsight/proxypool/internal/model"
)

const (
	socks5Version        = 0x05
	socks5MethodNoAuth   = 0x00
	socks5MethodUserPass = 0x02
	socks5CmdConnect     = 0x01
	socks5AtypIPv4       = 0x01
	socks5AtypDomain     = 0x03
	socks5AtypIPv6       = 0x04
)

// validateSOCKS5 performs the RFC 1928 handshake: method negotiation,
// optional username/password subnegotiation, then a CONNECT request
// against the target URL's host (spec §4.2).
func validateSOCKS5(ctx context.Context, p model.Proxy, opts Options) (bool, error) {
	target, err := url.Parse(opts.TargetURL)
	if err != nil {
		return false, fmt.Errorf("validator: bad target url: %w", err)
	}
	host := target.Hostname()
	port, err := targetPort(target)
	if err != nil {
		return false, err
	}

	conn, err := dial(ctx, p)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if err := socks5Authenticate(conn, p); err != nil {
		return false, err
	}

	atyp, addr := socks5ResolveAddress(ctx, host)

	req := make([]byte, 0, 10)
	req = append(req, socks5Version, socks5CmdConnect, 0x00, atyp)
	if atyp == socks5AtypDomain {
		req = append(req, byte(len(addr)))
	}
	req = append(req, addr...)
	req = append(req, byte(port>>8), byte(port&0xff))

	if _, err := conn.Write(req); err != nil {
		return false, fmt.Errorf("validator: socks5 write connect request: %w", err)
	}

	resp, err := readFull(conn, 10)
	if err != nil {
		return false, fmt.Errorf("validator: socks5 read connect reply: %w", err)
	}

	return resp[0] == socks5Version && resp[1] == 0x00, nil
}

func socks5Authenticate(conn net.Conn, p model.Proxy) error {
	methods := []byte{socks5MethodNoAuth}
	if p.Credentialed() {
		methods = append(methods, socks5MethodUserPass)
	}

	authReq := make([]byte, 0, 2+len(methods))
	authReq = append(authReq, socks5Version, byte(len(methods)))
	authReq = append(authReq, methods...)

	if _, err := conn.Write(authReq); err != nil {
		return fmt.Errorf("validator: socks5 write auth request: %w", err)
	}

	authResp, err := readFull(conn, 2)
	if err != nil {
		return fmt.Errorf("validator: socks5 read auth response: %w", err)
	}
	if authResp[0] != socks5Version {
		return fmt.Errorf("validator: socks5 unexpected version %d in auth reply", authResp[0])
	}

	switch authResp[1] {
	case socks5MethodNoAuth:
		return nil
	case socks5MethodUserPass:
		return socks5UserPassSubnegotiate(conn, p)
	default:
		return fmt.Errorf("validator: socks5 server rejected all offered methods")
	}
}

func socks5UserPassSubnegotiate(conn net.Conn, p model.Proxy) error {
	if !p.Credentialed() {
		return fmt.Errorf("validator: socks5 server requires user/pass auth but no credentials configured")
	}
	user := []byte(p.Auth.Username)
	pass := []byte(p.Auth.Password)

	req := make([]byte, 0, 3+len(user)+len(pass))
	req = append(req, 0x01, byte(len(user)))
	req = append(req, user...)
	req = append(req, byte(len(pass)))
	req = append(req, pass...)

	if _, err := conn.Write(req); err != nil {
		return fmt.Errorf("validator: socks5 write subnegotiation: %w", err)
	}

	resp, err := readFull(conn, 2)
	if err != nil {
		return fmt.Errorf("validator: socks5 read subnegotiation reply: %w", err)
	}
	if resp[0] != 0x01 || resp[1] != 0x00 {
		return fmt.Errorf("validator: socks5 subnegotiation failed")
	}
	return nil
}

// socks5ResolveAddress prefers an IPv4 literal/resolution, falls back
// to IPv6, and falls back further to ATYP domain-name when neither
// resolves, per spec §4.2.
func socks5ResolveAddress(ctx context.Context, host string) (atyp byte, addr []byte) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return socks5AtypIPv4, v4
		}
		return socks5AtypIPv6, ip.To16()
	}

	var r net.Resolver
	if ips, err := r.LookupIP(ctx, "ip4", host); err == nil && len(ips) > 0 {
		return socks5AtypIPv4, ips[0].To4()
	}
	if ips, err := r.LookupIP(ctx, "ip6", host); err == nil && len(ips) > 0 {
		return socks5AtypIPv6, ips[0].To16()
	}
	return socks5AtypDomain, []byte(host)
}
