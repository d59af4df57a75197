package httpclient

import "errors"

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs
	ErrInvalidURL = errors.New("invalid URL")
	// ErrBodyTooLarge is returned when a response body exceeds the configured limit
	ErrBodyTooLarge = errors.New("response body too large")
)
