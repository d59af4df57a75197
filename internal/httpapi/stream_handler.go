package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/olegrjumin/sideeye/internal/logging"
	"github.com/olegrjumin/sideeye/internal/service"
)

// scanStreamHandler handles SSE streaming for GET /scan/stream?url=...&render=1
func scanStreamHandler(logger *logging.Logger, svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// EventSource only supports GET
		if !requireMethod(w, r, http.MethodGet) {
			return
		}

		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("URL is required"))
			return
		}
		rendered := r.URL.Query().Get("render") == "1" || r.URL.Query().Get("render") == "true"

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeJSON(w, http.StatusInternalServerError, errorBody("Streaming not supported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

		for event := range svc.ScanStream(r.Context(), url, rendered) {
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to marshal event", "stage", event.Stage, "error", err)
				continue
			}

			fmt.Fprintf(w, "event: %s\n", event.Stage)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
