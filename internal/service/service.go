package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olegrjumin/sideeye/internal/analyzer"
	"github.com/olegrjumin/sideeye/internal/export"
	"github.com/olegrjumin/sideeye/internal/hint"
	"github.com/olegrjumin/sideeye/internal/httpclient"
	"github.com/olegrjumin/sideeye/internal/logging"
	"github.com/olegrjumin/sideeye/internal/store"
)

// Fetcher retrieves a page over HTTP
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*httpclient.Page, error)
}

// Renderer captures the DOM of a page after its scripts ran
type Renderer interface {
	Capture(ctx context.Context, rawURL string) (string, error)
}

// Page is one document handed to the analyzer
type Page struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"html"`
}

// PageResult is the outcome of analyzing one page of a batch
type PageResult struct {
	URL      string             `json:"url"`
	Findings []analyzer.Finding `json:"findings"`
	Added    int                `json:"added"`
	Error    string             `json:"error,omitempty"`
	Err      error              `json:"-"`
}

// Service provides the host side around the analyzer
// It gates pages, isolates failures and accumulates findings in the store
type Service struct {
	analyze  func(rawURL, html string) []analyzer.Finding
	store    *store.Store
	fetcher  Fetcher
	renderer Renderer
	logger   *logging.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithFetcher enables ScanURL
func WithFetcher(f Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithRenderer enables ScanRendered
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithAnalyzer replaces the default analyzer
func WithAnalyzer(a *analyzer.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyze = a.Analyze
		}
	}
}

// WithClock overrides the time source for submitted findings and exports
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new Service instance
func New(st *store.Store, logger *logging.Logger, opts ...Option) *Service {
	if st == nil {
		st = store.New(store.DefaultCapacity)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Service{
		analyze: analyzer.New().Analyze,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the findings store
func (s *Service) Store() *store.Store {
	return s.store
}

// LooksLikeHTML reports whether a response should be analyzed: an HTML or
// XHTML content type, or a body that starts like a document or carries form markup
func LooksLikeHTML(contentType, body string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") {
		return true
	}

	head := body
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = strings.ToLower(strings.TrimSpace(head))
	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return true
	}

	lower := strings.ToLower(body)
	return strings.Contains(lower, "<input") || strings.Contains(lower, "<form")
}

// AnalyzePage analyzes one page and accumulates its findings.
// A panic while analyzing is recovered and reported as ErrAnalyzerPanic.
func (s *Service) AnalyzePage(ctx context.Context, p Page) ([]analyzer.Finding, error) {
	findings, _, err := s.analyzePage(ctx, p)
	return findings, err
}

func (s *Service) analyzePage(ctx context.Context, p Page) (findings []analyzer.Finding, added int, err error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(p.Body) == "" {
		return nil, 0, ErrEmptyBody
	}
	if !LooksLikeHTML(p.ContentType, p.Body) {
		s.logger.Debug("Skipping non-HTML page", "url", p.URL, "content_type", p.ContentType)
		return nil, 0, ErrNotHTML
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Analyzer panic", "url", p.URL, "panic", fmt.Sprint(r))
			findings, added = nil, 0
			err = fmt.Errorf("%w: %s: %v", ErrAnalyzerPanic, p.URL, r)
		}
	}()

	start := time.Now()
	findings = s.analyze(p.URL, p.Body)
	added = s.store.Add(findings...)

	s.logger.Info("Page analyzed",
		"url", p.URL,
		"bytes", len(p.Body),
		"findings", len(findings),
		"added", added,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return findings, added, nil
}

// ScanURL fetches a page and analyzes it
func (s *Service) ScanURL(ctx context.Context, rawURL string) ([]analyzer.Finding, error) {
	if s.fetcher == nil {
		return nil, ErrFetchUnavailable
	}

	s.logger.Info("Fetching page", "url", rawURL)
	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.logger.Warn("Fetch failed", "url", rawURL, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	return s.AnalyzePage(ctx, Page{
		URL:         page.FinalURL,
		ContentType: page.ContentType,
		Body:        page.Body,
	})
}

// ScanRendered captures the live DOM in a headless browser and analyzes it
func (s *Service) ScanRendered(ctx context.Context, rawURL string) ([]analyzer.Finding, error) {
	if s.renderer == nil {
		return nil, ErrRenderUnavailable
	}

	s.logger.Info("Rendering page", "url", rawURL)
	dom, err := s.renderer.Capture(ctx, rawURL)
	if err != nil {
		s.logger.Warn("Render failed", "url", rawURL, "error", err)
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}

	return s.AnalyzePage(ctx, Page{URL: rawURL, ContentType: "text/html", Body: dom})
}

// Scan dispatches to ScanRendered or ScanURL
func (s *Service) Scan(ctx context.Context, rawURL string, rendered bool) ([]analyzer.Finding, error) {
	if rendered {
		return s.ScanRendered(ctx, rawURL)
	}
	return s.ScanURL(ctx, rawURL)
}

// ScanBatch analyzes pages in order. A failing page is recorded in its
// result and never stops the rest of the batch.
func (s *Service) ScanBatch(ctx context.Context, pages []Page) []PageResult {
	results := make([]PageResult, 0, len(pages))
	before := s.store.Len()

	for _, p := range pages {
		res := PageResult{URL: p.URL}
		findings, added, err := s.analyzePage(ctx, p)
		if err != nil {
			res.Err = err
			res.Error = err.Error()
			res.Findings = []analyzer.Finding{}
		} else {
			res.Findings = findings
			res.Added = added
		}
		results = append(results, res)
	}

	s.logger.Info("Batch analyzed", "pages", len(pages), "stored_before", before, "stored_after", s.store.Len())
	return results
}

// Submit normalizes and stores an externally reported finding
func (s *Service) Submit(f analyzer.Finding) analyzer.Finding {
	f = analyzer.Assemble(f, s.now())
	added := s.store.Add(f)

	s.logger.Info("Finding submitted",
		"type", f.Type,
		"severity", f.Severity,
		"confidence", f.Confidence,
		"url", f.URL,
		"new", added == 1,
	)
	return f
}

// Findings lists stored findings matching the filter
func (s *Service) Findings(f store.Filter) []store.Entry {
	return s.store.List(f)
}

// SetFalsePositive flags a stored finding
func (s *Service) SetFalsePositive(key string, fp bool) error {
	if err := s.store.SetFalsePositive(key, fp); err != nil {
		return err
	}
	s.logger.Info("False positive updated", "key", key, "false_positive", fp)
	return nil
}

// Clear drops every stored finding
func (s *Service) Clear() {
	n := s.store.Len()
	s.store.Clear()
	s.logger.Info("Findings cleared", "count", n)
}

// Export writes the findings matching f as an export document
func (s *Service) Export(w io.Writer, f store.Filter) error {
	return export.Write(w, s.store.List(f), s.now())
}

// Hint builds locate/reveal hints for a piece of evidence. When page is not
// empty the selector is also resolved against it.
func (s *Service) Hint(evidence, page string) (hint.Result, error) {
	res := hint.Build(evidence)
	if strings.TrimSpace(page) == "" || res.BestSelector == "" {
		return res, nil
	}

	n, err := hint.Verify(page, res.BestSelector)
	if err != nil {
		return res, fmt.Errorf("verify selector %q: %w", res.BestSelector, err)
	}
	res.Matches = &n
	return res, nil
}
