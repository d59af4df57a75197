package httpapi

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegrjumin/sideeye/internal/logging"
	"github.com/olegrjumin/sideeye/internal/service"
)

// maxRequestBytes bounds JSON request bodies on the service API
const maxRequestBytes = 8 << 20

// NewServer creates and configures the service API server
func NewServer(addr string, logger *logging.Logger, svc *service.Service) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(logger, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the service API routes wrapped in logging middleware
func NewHandler(logger *logging.Logger, svc *service.Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/analyze", analyzeHandler(svc))
	mux.HandleFunc("/analyze/batch", batchHandler(svc))
	mux.HandleFunc("/scan", scanHandler(svc))
	mux.HandleFunc("/scan/stream", scanStreamHandler(logger, svc))
	mux.HandleFunc("/findings", findingsHandler(svc))
	mux.HandleFunc("/findings/false-positive", falsePositiveHandler(svc))
	mux.HandleFunc("/export", exportHandler(logger, svc))
	mux.HandleFunc("/hint", hintHandler(svc))

	return loggingMiddleware(logger, mux)
}

// BridgeOptions configures the loopback bridge
type BridgeOptions struct {
	Rate  rate.Limit // accepted findings per second, 0 = unlimited
	Burst int
}

// NewBridgeServer creates the loopback bridge server; serve it on a listener from Listen
func NewBridgeServer(logger *logging.Logger, svc *service.Service, opts BridgeOptions) *http.Server {
	return &http.Server{
		Handler:           NewBridgeHandler(logger, svc, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// NewBridgeHandler builds the bridge routes: /api/health and /api/finding
func NewBridgeHandler(logger *logging.Logger, svc *service.Service, opts BridgeOptions) http.Handler {
	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.Rate, burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", bridgeHealthHandler)
	mux.HandleFunc("/api/finding", bridgeFindingHandler(logger, svc, limiter))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})

	return loggingMiddleware(logger, corsMiddleware(mux))
}

// Listen binds the first free port in [port, port+attempts) on host
func Listen(host string, port, attempts int) (net.Listener, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var last error
	for i := 0; i < attempts; i++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port+i)))
		if err == nil {
			return ln, nil
		}
		last = err
	}
	return nil, fmt.Errorf("%w: %s:%d-%d: %v", ErrNoPort, host, port, port+attempts-1, last)
}

// healthHandler handles GET requests to /health
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "sideeye",
	})
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeJSON sets the Content-Type header and encodes data as JSON.
// HTML escaping is off so evidence markup stays readable.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}
