package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResolver implements Resolver for deterministic testing.
type mockResolver struct {
	ips map[string][]net.IPAddr
}

func (m *mockResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ips, ok := m.ips[host]
	if !ok {
		return nil, fmt.Errorf("no such host: %s", host)
	}
	return ips, nil
}

func newMockResolver(mappings map[string][]string) *mockResolver {
	ips := make(map[string][]net.IPAddr)
	for host, ipStrs := range mappings {
		addrs := make([]net.IPAddr, len(ipStrs))
		for i, ipStr := range ipStrs {
			addrs[i] = net.IPAddr{IP: net.ParseIP(ipStr)}
		}
		ips[host] = addrs
	}
	return &mockResolver{ips: ips}
}

func TestInitBlockedNets(t *testing.T) {
	initBlockedNets()
	require.NoError(t, initErr)
	require.NotEmpty(t, blockedNets)
}

func TestIsBlockedIP(t *testing.T) {
	initBlockedNets()

	tests := []struct {
		ip      string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"100.64.0.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"93.184.216.34", false},
		{"8.8.8.8", false},
		{"2606:4700::1111", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.blocked, isBlockedIP(net.ParseIP(tt.ip)))
		})
	}
}

// TestSafeTransport_BlocksPrivateResolution verifies that a forecast host that
// resolves into a private range is never dialed.
func TestSafeTransport_BlocksPrivateResolution(t *testing.T) {
	transport, err := NewSafeTransport(nil)
	require.NoError(t, err)
	transport.Resolver = newMockResolver(map[string][]string{
		"forecast.example.com": {"10.0.0.7"},
	})

	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}

	_, err = client.Get("http://forecast.example.com/gridpoints/MTR/1,2/forecast")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSSRFBlocked), "got: %v", err)
}

// TestSafeTransport_BlocksMixedIPs verifies that one unsafe record poisons the
// whole resolution.
func TestSafeTransport_BlocksMixedIPs(t *testing.T) {
	transport, err := NewSafeTransport(nil)
	require.NoError(t, err)
	transport.Resolver = newMockResolver(map[string][]string{
		"mixed.example.com": {"93.184.216.34", "169.254.169.254"},
	})

	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}

	_, err = client.Get("http://mixed.example.com/")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSSRFBlocked), "got: %v", err)
}

func TestSafeTransport_BlocksIPLiteral(t *testing.T) {
	transport, err := NewSafeTransport(nil)
	require.NoError(t, err)

	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}

	for _, target := range []string{
		"http://127.0.0.1/points/1,2",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/alerts",
	} {
		t.Run(target, func(t *testing.T) {
			_, err := client.Get(target)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSSRFBlocked), "got: %v", err)
		})
	}
}

func TestSafeTransport_DNSFailure(t *testing.T) {
	transport, err := NewSafeTransport(nil)
	require.NoError(t, err)
	transport.Resolver = newMockResolver(nil)

	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}

	_, err = client.Get("http://unknown.example.com/")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSSRFDNSFailed), "got: %v", err)
}

func TestNewSafeTransport_DisablesProxy(t *testing.T) {
	base := &http.Transport{Proxy: http.ProxyFromEnvironment}
	transport, err := NewSafeTransport(base)
	require.NoError(t, err)
	assert.Nil(t, transport.Base.Proxy)
	assert.NotNil(t, transport.Base.DialContext)
}

func redirectRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	u, err := url.Parse(target)
	require.NoError(t, err)
	return &http.Request{URL: u, Header: http.Header{}}
}

func TestCheckRedirect(t *testing.T) {
	resolver := newMockResolver(map[string][]string{
		"api.weather.gov": {"23.55.221.10"},
		"internal.corp":   {"192.168.10.4"},
	})
	check := CheckRedirect(2, resolver)

	t.Run("public host allowed", func(t *testing.T) {
		req := redirectRequest(t, "https://api.weather.gov/gridpoints/LWX/96,70/forecast")
		assert.NoError(t, check(req.WithContext(context.Background()), nil))
	})

	t.Run("private host blocked", func(t *testing.T) {
		req := redirectRequest(t, "http://internal.corp/secrets")
		err := check(req.WithContext(context.Background()), nil)
		assert.True(t, errors.Is(err, ErrSSRFBlocked), "got: %v", err)
	})

	t.Run("metadata literal blocked", func(t *testing.T) {
		req := redirectRequest(t, "http://169.254.169.254/")
		err := check(req.WithContext(context.Background()), nil)
		assert.True(t, errors.Is(err, ErrSSRFBlocked), "got: %v", err)
	})

	t.Run("limit enforced", func(t *testing.T) {
		req := redirectRequest(t, "https://api.weather.gov/")
		via := []*http.Request{{}, {}}
		err := check(req.WithContext(context.Background()), via)
		assert.True(t, errors.Is(err, ErrSSRFTooManyRedirects), "got: %v", err)
	})
}

func TestNewSafeHTTPClient(t *testing.T) {
	client, err := NewSafeHTTPClient(10*time.Second, 3)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, client.Timeout)
	assert.IsType(t, &SafeTransport{}, client.Transport)
	assert.NotNil(t, client.CheckRedirect)
}
