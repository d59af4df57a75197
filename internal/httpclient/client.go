package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxRedirects bounds how many redirects a fetch follows
const maxRedirects = 5

// Options configures a Client
type Options struct {
	Timeout      time.Duration // Per-request timeout
	MaxBodyBytes int64         // Largest body read; larger bodies fail with ErrBodyTooLarge
	RatePerHost  float64       // Requests per second per host, <= 0 disables limiting
	UserAgent    string        // Default User-Agent header
}

// Client fetches pages for analysis with per-host rate limiting and bounded bodies
type Client struct {
	httpClient *http.Client
	opts       Options

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

// TimingInfo holds performance timing information for a request
type TimingInfo struct {
	RequestStart time.Time
	DNSDone      time.Time
	ConnectDone  time.Time
	TLSDone      time.Time
	GotFirstByte time.Time
	RequestDone  time.Time
}

// Total is the wall time from request start to body read
func (t *TimingInfo) Total() time.Duration {
	if t == nil || t.RequestDone.IsZero() {
		return 0
	}
	return t.RequestDone.Sub(t.RequestStart)
}

// Page is a fetched response body with the metadata the analyzer needs
type Page struct {
	URL         string // requested URL
	FinalURL    string // URL after redirects
	StatusCode  int
	Proto       string // e.g., "HTTP/2.0"
	ContentType string
	Body        string
	Header      http.Header
	TLS         *tls.ConnectionState
	Timings     *TimingInfo
}

// NewClient creates a new HTTP client with the configured transport
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "sideeye/1.0"
	}
	return &Client{
		httpClient: &http.Client{
			Transport: newTransport(opts),
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiter returns the shared limiter for host, or nil when limiting is off
func (c *Client) limiter(host string) *rate.Limiter {
	if c.opts.RatePerHost <= 0 {
		return nil
	}
	c.limitersMu.Lock()
	defer c.limitersMu.Unlock()

	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(c.opts.RatePerHost), 1)
		c.limiters[host] = l
	}
	return l
}

// Fetch GETs rawURL and returns its body. Only http and https URLs are accepted.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if l := c.limiter(u.Host); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter cancelled: %w", err)
		}
	}

	// Create timing info to capture performance metrics
	timings := &TimingInfo{RequestStart: time.Now()}
	trace := &httptrace.ClientTrace{
		DNSDone: func(_ httptrace.DNSDoneInfo) {
			timings.DNSDone = time.Now()
		},
		ConnectDone: func(_, _ string, _ error) {
			timings.ConnectDone = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, _ error) {
			timings.TLSDone = time.Now()
		},
		GotFirstResponseByte: func() {
			timings.GotFirstByte = time.Now()
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body, c.opts.MaxBodyBytes)
	if err != nil {
		return nil, err
	}
	timings.RequestDone = time.Now()

	return &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Proto:       resp.Proto,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
		Header:      resp.Header,
		TLS:         resp.TLS,
		Timings:     timings,
	}, nil
}

// readBody reads at most limit bytes and reports ErrBodyTooLarge past that
func readBody(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// IsTimeout reports whether err came from a deadline or client timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
