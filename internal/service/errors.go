package service

import "errors"

var (
	// ErrEmptyBody is returned for a page with no content to analyze
	ErrEmptyBody = errors.New("page body is empty")

	// ErrNotHTML is returned when neither the content type nor the body looks like HTML
	ErrNotHTML = errors.New("page is not HTML")

	// ErrAnalyzerPanic is returned when analysis of a single page panicked
	ErrAnalyzerPanic = errors.New("analyzer failed on page")

	// ErrFetchUnavailable is returned when no fetcher is configured
	ErrFetchUnavailable = errors.New("page fetching is not configured")

	// ErrRenderUnavailable is returned when no renderer is configured
	ErrRenderUnavailable = errors.New("rendered scanning is not configured")
)
