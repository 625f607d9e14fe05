package validator

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsinsight/proxypool/internal/model"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func proxyFor(t *testing.T, l net.Listener, protocol model.Protocol) model.Proxy {
	t.Helper()
	host, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return model.Proxy{Address: host, Port: port, Protocol: protocol}
}

// TestValidateSOCKS5Handshake exercises spec.md E3's exact byte
// sequence: auth negotiation [05 01 00] -> [05 00], then connect
// [05 01 00 01 7F000001 0050] -> [05 00 00 01 00000000 0000].
func TestValidateSOCKS5Handshake(t *testing.T) {
	l := listen(t)

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		auth := make([]byte, 3)
		if _, err := readAllInto(conn, auth); err != nil {
			return
		}
		if auth[0] != 0x05 || auth[1] != 0x01 || auth[2] != 0x00 {
			return
		}
		conn.Write([]byte{0x05, 0x00})

		connectReq := make([]byte, 10)
		if _, err := readAllInto(conn, connectReq); err != nil {
			return
		}
		conn.Write([]byte{0x05, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	}()

	p := proxyFor(t, l, model.ProtocolSOCKS5)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res := Validate(ctx, p, Options{TargetURL: "http://127.0.0.1:80", Timeout: 2 * time.Second})
	assert.NoError(t, res.Err)
	assert.True(t, res.Valid)
}

func readAllInto(conn net.Conn, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		if err != nil {
			return read, err
		}
		read += n
	}
	return read, nil
}

func TestValidateSOCKS5RejectsBadAuthReply(t *testing.T) {
	l := listen(t)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 3)
		readAllInto(conn, buf)
		conn.Write([]byte{0x05, 0xFF}) // no acceptable methods
	}()

	p := proxyFor(t, l, model.ProtocolSOCKS5)
	res := Validate(context.Background(), p, Options{TargetURL: "http://127.0.0.1:80", Timeout: time.Second})
	assert.False(t, res.Valid, "expected validation to fail on rejected auth method")
}

func TestValidateSOCKS4Success(t *testing.T) {
	l := listen(t)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 9) // VER CMD PORT(2) IP(4) USER NUL
		readAllInto(conn, buf)
		conn.Write([]byte{0x00, 0x5A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	}()

	p := proxyFor(t, l, model.ProtocolSOCKS4)
	res := Validate(context.Background(), p, Options{TargetURL: "http://127.0.0.1:80", Timeout: time.Second})
	assert.NoError(t, res.Err)
	assert.True(t, res.Valid, "expected SOCKS4 validation to succeed")
}

func TestValidateSOCKS4RejectsNonGranted(t *testing.T) {
	l := listen(t)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 9)
		readAllInto(conn, buf)
		conn.Write([]byte{0x00, 0x5B, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}) // request rejected
	}()

	p := proxyFor(t, l, model.ProtocolSOCKS4)
	res := Validate(context.Background(), p, Options{TargetURL: "http://127.0.0.1:80", Timeout: time.Second})
	assert.False(t, res.Valid, "expected SOCKS4 validation to fail on rejection code")
}

func TestValidateHTTPConnectSuccess(t *testing.T) {
	l := listen(t)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		line, _ := reader.ReadString('\n')
		if line == "" {
			return
		}
		conn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))
	}()

	p := proxyFor(t, l, model.ProtocolHTTP)
	res := Validate(context.Background(), p, Options{TargetURL: "https://www.google.com", Timeout: time.Second})
	assert.NoError(t, res.Err)
	assert.True(t, res.Valid, "expected HTTP CONNECT validation to succeed")
}

func TestValidateHTTPPlainGetSuccess(t *testing.T) {
	l := listen(t)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		reader := bufio.NewReader(conn)
		reader.ReadString('\n')
		conn.Write([]byte("HTTP/1.0 200 OK\r\n\r\n"))
	}()

	p := proxyFor(t, l, model.ProtocolHTTP)
	res := Validate(context.Background(), p, Options{TargetURL: "http://example.com/", Timeout: time.Second})
	assert.True(t, res.Valid, "expected plain GET validation to succeed, err=%v", res.Err)
}

func TestValidateTimesOutOnDeadServer(t *testing.T) {
	l := listen(t)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(500 * time.Millisecond)
	}()

	p := proxyFor(t, l, model.ProtocolSOCKS5)
	res := Validate(context.Background(), p, Options{TargetURL: "http://127.0.0.1:80", Timeout: 50 * time.Millisecond})
	assert.False(t, res.Valid, "expected validation to fail on timeout")
}

func TestValidateUnsupportedProtocol(t *testing.T) {
	res := Validate(context.Background(), model.Proxy{Address: "127.0.0.1", Port: 1, Protocol: "bogus"}, Options{})
	assert.False(t, res.Valid)
	assert.Error(t, res.Err)
}
