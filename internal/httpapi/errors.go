package httpapi

import (
	"errors"
	"net/http"

	"github.com/olegrjumin/sideeye/internal/httpclient"
	"github.com/olegrjumin/sideeye/internal/render"
	"github.com/olegrjumin/sideeye/internal/service"
	"github.com/olegrjumin/sideeye/internal/store"
)

// ErrNoPort is returned when Listen finds no free port in its range
var ErrNoPort = errors.New("no free port in range")

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, httpclient.ErrInvalidURL),
		errors.Is(err, render.ErrInvalidURL),
		errors.Is(err, service.ErrEmptyBody):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotHTML):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, store.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, httpclient.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, render.ErrBrowserUnavailable),
		errors.Is(err, service.ErrFetchUnavailable),
		errors.Is(err, service.ErrRenderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, render.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, render.ErrTimeout), errors.Is(err, render.ErrQueueTimeout), httpclient.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrAnalyzerPanic):
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}
