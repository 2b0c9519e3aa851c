// Package httpclient builds the HTTP client used for Bale Bot API calls and
// decodes the API response envelope.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

// UserAgent is sent with every Bot API request.
const UserAgent = "balego (+https://github.com/python-bale-bot/balego)"

// Config holds HTTP client configuration.
type Config struct {
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	TLSTimeout     time.Duration
	IdleTimeout    time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int

	// Proxy picks the proxy per request. Nil uses HTTPS_PROXY and friends.
	Proxy func(*http.Request) (*url.URL, error)
}

// DefaultConfig returns defaults for tapi.bale.ai. Every call goes to a
// single host, so the per-host pool is close to the global one.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:      30 * time.Second,
		ConnectTimeout:      10 * time.Second,
		TLSTimeout:          10 * time.Second,
		IdleTimeout:         90 * time.Second,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 16,
		MaxConnsPerHost:     32,
	}
}

// New creates an HTTP client from cfg.
func New(cfg Config) *http.Client {
	proxy := cfg.Proxy
	if proxy == nil {
		proxy = http.ProxyFromEnvironment
	}
	transport := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   cfg.TLSTimeout,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleTimeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: userAgent{next: transport},
		Timeout:   cfg.RequestTimeout,
	}
}

// NewDefault creates a client with DefaultConfig.
func NewDefault() *http.Client {
	return New(DefaultConfig())
}

// WithTimeout returns a copy of c whose request timeout is at least d.
func (c Config) WithTimeout(d time.Duration) Config {
	c.RequestTimeout = max(c.RequestTimeout, d)
	return c
}

// userAgent stamps UserAgent on requests that do not set one.
type userAgent struct {
	next http.RoundTripper
}

func (t userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", UserAgent)
	return t.next.RoundTrip(r)
}
