package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/olegrjumin/sideeye/internal/analyzer"
	"github.com/olegrjumin/sideeye/internal/logging"
	"github.com/olegrjumin/sideeye/internal/service"
	"github.com/olegrjumin/sideeye/internal/store"
)

// analyzeRequest represents the JSON request body for /analyze
type analyzeRequest struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	ContentType string `json:"content_type,omitempty"`
}

// scanRequest represents the JSON request body for /scan
type scanRequest struct {
	URL    string `json:"url"`
	Render bool   `json:"render,omitempty"`
}

type falsePositiveRequest struct {
	Key           string `json:"key"`
	FalsePositive bool   `json:"false_positive"`
}

type hintRequest struct {
	Evidence string `json:"evidence"`
	HTML     string `json:"html,omitempty"`
}

// findingsResponse wraps findings returned by analyze and scan
type findingsResponse struct {
	URL      string             `json:"url,omitempty"`
	Count    int                `json:"count"`
	Findings []analyzer.Finding `json:"findings"`
}

// decodeJSON reads a bounded JSON body, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON"))
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
	return false
}

// analyzeHandler handles POST /analyze with a page supplied inline
func analyzeHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		var req analyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("URL is required"))
			return
		}

		// An inline page is HTML unless the caller says otherwise
		ct := req.ContentType
		if ct == "" {
			ct = "text/html"
		}

		findings, err := svc.AnalyzePage(r.Context(), service.Page{URL: req.URL, ContentType: ct, Body: req.HTML})
		if err != nil {
			writeJSON(w, statusFor(err), errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, findingsResponse{URL: req.URL, Count: len(findings), Findings: findings})
	}
}

// batchHandler handles POST /analyze/batch with a JSON array of pages
func batchHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		var pages []service.Page
		if !decodeJSON(w, r, &pages) {
			return
		}
		for i := range pages {
			if pages[i].ContentType == "" {
				pages[i].ContentType = "text/html"
			}
		}

		results := svc.ScanBatch(r.Context(), pages)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"pages":   len(results),
			"results": results,
		})
	}
}

// scanHandler handles POST /scan, fetching or rendering the page first
func scanHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		var req scanRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("URL is required"))
			return
		}

		findings, err := svc.Scan(r.Context(), req.URL, req.Render)
		if err != nil {
			writeJSON(w, statusFor(err), errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, findingsResponse{URL: req.URL, Count: len(findings), Findings: findings})
	}
}

// findingsHandler lists stored findings on GET and clears them on DELETE
func findingsHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet, http.MethodDelete) {
			return
		}

		if r.Method == http.MethodDelete {
			svc.Clear()
			writeJSON(w, http.StatusOK, map[string]int{"count": 0})
			return
		}

		filter, msg := parseFilter(r)
		if msg != "" {
			writeJSON(w, http.StatusBadRequest, errorBody(msg))
			return
		}

		entries := svc.Findings(filter)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":    len(entries),
			"findings": entries,
		})
	}
}

// falsePositiveHandler handles POST /findings/false-positive
func falsePositiveHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		var req falsePositiveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Key == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
			return
		}

		if err := svc.SetFalsePositive(req.Key, req.FalsePositive); err != nil {
			writeJSON(w, statusFor(err), errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

// exportHandler handles GET /export, honouring the same filters as /findings
func exportHandler(logger *logging.Logger, svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}

		filter, msg := parseFilter(r)
		if msg != "" {
			writeJSON(w, http.StatusBadRequest, errorBody(msg))
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="sideeye-findings.json"`)
		if err := svc.Export(w, filter); err != nil {
			logger.Error("Export failed", "error", err)
		}
	}
}

// hintHandler handles POST /hint
func hintHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}

		var req hintRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Evidence) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("evidence is required"))
			return
		}

		res, err := svc.Hint(req.Evidence, req.HTML)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// parseFilter reads host, type, severity (comma separated) and hide_fp.
// A non-empty message means the query was invalid.
func parseFilter(r *http.Request) (store.Filter, string) {
	q := r.URL.Query()
	f := store.Filter{Host: strings.TrimSpace(q.Get("host"))}

	if t := q.Get("type"); t != "" {
		ft, ok := analyzer.ParseFindingType(t)
		if !ok {
			return f, "unknown type: " + t
		}
		f.Type = ft
	}

	if sev := q.Get("severity"); sev != "" {
		f.Severities = make(map[analyzer.Severity]bool)
		for _, part := range strings.Split(sev, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			s, ok := analyzer.ParseSeverity(part)
			if !ok {
				return f, "unknown severity: " + part
			}
			f.Severities[s] = true
		}
	}

	switch strings.ToLower(q.Get("hide_fp")) {
	case "1", "true", "yes":
		f.HideFalsePositives = true
	}
	return f, ""
}
