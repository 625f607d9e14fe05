package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyKeyIdentity(t *testing.T) {
	a := Proxy{Address: "1.1.1.1", Port: 80, Protocol: ProtocolHTTP}
	b := Proxy{Address: "1.1.1.1", Port: 80, Protocol: ProtocolHTTP, Country: "US"}
	c := Proxy{Address: "1.1.1.1", Port: 80, Protocol: ProtocolSOCKS5}

	assert.Equal(t, a.Key(), b.Key(), "expected keys to match regardless of annotation fields")
	assert.NotEqual(t, a.Key(), c.Key(), "expected distinct protocols on the same endpoint to be distinct keys")
}

func TestKeyString(t *testing.T) {
	k := Key{Address: "10.0.0.1", Port: 1080, Protocol: ProtocolSOCKS5}
	assert.Equal(t, "socks5://10.0.0.1:1080", k.String())
}

func TestProxyJSONRoundTrip(t *testing.T) {
	p := Proxy{
		Address:        "198.51.100.7",
		Port:           1080,
		Protocol:       ProtocolSOCKS5,
		Country:        "DE",
		AnonymityLevel: AnonymityElite,
		ISP:            "Example AG",
		Region:         "Hessen",
		SpeedMbps:      12.5,
		Auth:           &Credentials{Username: "u", Password: "p"},
		SupportsAuth:   true,
		SocksVersion:   5,
		Source:         "geonode",
		DiscoveredAt:   1700000000000,
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back Proxy
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	// Marshaling is deterministic: the same record always serializes
	// to the same bytes.
	again, err := json.Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestCredentialed(t *testing.T) {
	p := Proxy{Address: "x", Port: 1, Protocol: ProtocolHTTP}
	assert.False(t, p.Credentialed(), "expected no credentials by default")

	p.Auth = &Credentials{Username: "u", Password: "p"}
	assert.True(t, p.Credentialed(), "expected credentials to be detected")
}
