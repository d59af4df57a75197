package service

import (
	"context"
	"time"
)

// StreamEvent represents a progressive event during a scan
type StreamEvent struct {
	Stage   string      `json:"stage"`   // "start", "loaded", "finding", "complete", "error"
	Message string      `json:"message"` // Human-readable message
	Data    interface{} `json:"data"`    // Stage-specific data
}

// ScanSummary is the data of the "complete" event
type ScanSummary struct {
	URL        string `json:"url"`
	Rendered   bool   `json:"rendered"`
	Findings   int    `json:"findings"`
	Stored     int    `json:"stored"`
	DurationMs int64  `json:"duration_ms"`
}

// ScanStream scans one URL and emits progressive events.
// The channel is closed after "complete" or "error", or when ctx is done.
func (s *Service) ScanStream(ctx context.Context, rawURL string, rendered bool) <-chan StreamEvent {
	events := make(chan StreamEvent, 10)

	go func() {
		defer close(events)
		start := time.Now()

		send := func(evt StreamEvent) bool {
			select {
			case events <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		mode := "fetch"
		if rendered {
			mode = "render"
		}
		if !send(StreamEvent{
			Stage:   "start",
			Message: "Starting scan...",
			Data:    map[string]string{"url": rawURL, "mode": mode},
		}) {
			return
		}

		findings, err := s.Scan(ctx, rawURL, rendered)
		if err != nil {
			send(StreamEvent{
				Stage:   "error",
				Message: err.Error(),
				Data:    map[string]string{"url": rawURL},
			})
			return
		}

		if !send(StreamEvent{
			Stage:   "loaded",
			Message: "Page analyzed",
			Data:    map[string]int{"findings": len(findings)},
		}) {
			return
		}

		for _, f := range findings {
			if !send(StreamEvent{Stage: "finding", Message: f.Title, Data: f}) {
				return
			}
		}

		send(StreamEvent{
			Stage:   "complete",
			Message: "Scan complete",
			Data: ScanSummary{
				URL:        rawURL,
				Rendered:   rendered,
				Findings:   len(findings),
				Stored:     s.store.Len(),
				DurationMs: time.Since(start).Milliseconds(),
			},
		})
	}()

	return events
}
