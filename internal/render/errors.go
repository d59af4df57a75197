package render

import "errors"

var (
	// ErrBrowserUnavailable indicates no browser could be started or the pool is exhausted
	ErrBrowserUnavailable = errors.New("headless browser unavailable")

	// ErrNavigationFailed indicates the page failed to load or its DOM could not be read
	ErrNavigationFailed = errors.New("page navigation failed")

	// ErrTimeout indicates the capture timed out
	ErrTimeout = errors.New("render timed out")

	// ErrInvalidURL indicates the provided URL is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid URL provided")
)
