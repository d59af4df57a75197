// Package render captures the post-script DOM of a page with a headless browser.
package render

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a single capture when none is configured
const DefaultTimeout = 15 * time.Second

// Options configures a Renderer
type Options struct {
	PoolSize  int
	Timeout   time.Duration
	UserAgent string
}

// Renderer serializes rendered documents from a small browser pool
// Browsers start on first use so a missing Chrome only fails rendered scans
type Renderer struct {
	pool    *browserPool
	timeout time.Duration
}

// New creates a renderer; no browser is started until the first Capture
func New(opts Options) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Renderer{
		pool:    newBrowserPool(opts.PoolSize, allocatorOptions(opts.UserAgent), nil),
		timeout: opts.Timeout,
	}
}

// Capture navigates to rawURL and returns document.documentElement.outerHTML
func (r *Renderer) Capture(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	inst, err := r.pool.acquire()
	if err != nil {
		return "", err
	}
	defer r.pool.release(inst)

	// A tab per capture; the browser context is shared
	tabCtx, tabCancel := chromedp.NewContext(inst.ctx)
	defer tabCancel()

	timeoutCtx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	// Propagate caller cancellation into the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err = chromedp.Run(timeoutCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		r.pool.markFailed(inst)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrNavigationFailed, err)
	}

	return html, nil
}

// Health returns idle and started browser counts
func (r *Renderer) Health() (available, total int) {
	return r.pool.health()
}

// Close shuts down all browsers
func (r *Renderer) Close() {
	r.pool.close()
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
