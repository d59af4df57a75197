package httpclient

import (
	"net"
	"net/http"
	"time"
)

const (
	// maxHeaderBytes caps response headers; page bodies are capped separately by MaxBodyBytes
	maxHeaderBytes = 1 << 20

	dialTimeout = 5 * time.Second
)

// newTransport builds the proxy-aware transport behind a Client.
// Header and handshake waits are bounded by the per-request timeout so a
// stalled server fails the fetch instead of holding a connection.
func newTransport(opts Options) *http.Transport {
	wait := opts.Timeout
	if wait <= 0 || wait > 10*time.Second {
		wait = 10 * time.Second
	}

	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		TLSHandshakeTimeout:    wait,
		ResponseHeaderTimeout:  wait,
		MaxResponseHeaderBytes: maxHeaderBytes,

		// Scans revisit a handful of hosts; keep a small warm pool per host
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,

		ForceAttemptHTTP2: true,
	}
}
