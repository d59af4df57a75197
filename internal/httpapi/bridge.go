package httpapi

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/olegrjumin/sideeye/internal/analyzer"
	"github.com/olegrjumin/sideeye/internal/logging"
	"github.com/olegrjumin/sideeye/internal/service"
)

// Defaults applied to browser-reported findings
const (
	bridgeDefaultConfidence     = 55
	bridgeDefaultSource         = "browser-extension"
	bridgeDefaultTitle          = "Browser-reported client-side control finding"
	bridgeDefaultSummary        = "A browser extension submitted a client-side control signal for review."
	bridgeDefaultEvidence       = "(no evidence)"
	bridgeDefaultRecommendation = "Validate server-side authorization for this action. Do not rely on client-side disabled/hidden states."

	// maxBridgeFormBytes bounds a form-encoded finding
	maxBridgeFormBytes = 1 << 20
)

// bridgeHealthHandler handles GET /api/health
func bridgeHealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bridgeFindingHandler handles POST /api/finding with a form-encoded finding
func bridgeFindingHandler(logger *logging.Logger, svc *service.Service, limiter *rate.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
			return
		}
		if limiter != nil && !limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody("rate limited"))
			return
		}

		// The body is form-encoded whatever Content-Type the extension sent
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBridgeFormBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("bad request"))
			return
		}
		form, err := url.ParseQuery(string(body))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("bad request"))
			return
		}

		rawURL := strings.TrimSpace(form.Get("url"))
		if rawURL == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("url is required"))
			return
		}

		f := svc.Submit(analyzer.Finding{
			Type:           bridgeType(form.Get("type")),
			Severity:       bridgeSeverity(form.Get("severity")),
			Confidence:     bridgeConfidence(form.Get("confidence")),
			URL:            rawURL,
			Title:          orDefault(form.Get("title"), bridgeDefaultTitle),
			Summary:        orDefault(form.Get("summary"), bridgeDefaultSummary),
			Evidence:       orDefault(form.Get("evidence"), bridgeDefaultEvidence),
			Recommendation: orDefault(form.Get("recommendation"), bridgeDefaultRecommendation),
		})

		logger.Info("Bridge accepted finding",
			"source", orDefault(form.Get("source"), bridgeDefaultSource),
			"type", f.Type,
			"severity", f.Severity,
			"confidence", f.Confidence,
			"url", f.URL,
		)
		writeJSON(w, http.StatusOK, map[string]int{"accepted": 1})
	}
}

// bridgeType maps unknown or blank names to the hidden/disabled control type
func bridgeType(s string) analyzer.FindingType {
	if t, ok := analyzer.ParseFindingType(s); ok {
		return t
	}
	return analyzer.TypeHiddenOrDisabledControl
}

func bridgeSeverity(s string) analyzer.Severity {
	if sev, ok := analyzer.ParseSeverity(s); ok {
		return sev
	}
	return analyzer.SeverityMedium
}

func bridgeConfidence(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return bridgeDefaultConfidence
	}
	return n
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
