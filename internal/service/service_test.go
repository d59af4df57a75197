package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/olegrjumin/sideeye/internal/analyzer"
	"github.com/olegrjumin/sideeye/internal/httpclient"
	"github.com/olegrjumin/sideeye/internal/logging"
	"github.com/olegrjumin/sideeye/internal/store"
)

const passwordPage = `<form><input type="password" name="pw" value="hunter22"></form>`

type fakeFetcher struct {
	page *httpclient.Page
	err  error
}

func (f fakeFetcher) Fetch(ctx context.Context, rawURL string) (*httpclient.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	p.URL = rawURL
	if p.FinalURL == "" {
		p.FinalURL = rawURL
	}
	return &p, nil
}

type fakeRenderer struct {
	dom string
	err error
}

func (f fakeRenderer) Capture(ctx context.Context, rawURL string) (string, error) {
	return f.dom, f.err
}

func newTestService(opts ...Option) (*Service, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, logging.LevelDebug)
	return New(store.New(100), logger, opts...), &buf
}

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        bool
	}{
		{"html content type", "text/html; charset=utf-8", "plain", true},
		{"xhtml content type", "application/xhtml+xml", "", true},
		{"doctype", "", "  <!DOCTYPE html><p>x</p>", true},
		{"html root", "application/octet-stream", "<HTML><body></body></HTML>", true},
		{"form fragment", "text/plain", "junk <form action=/x>", true},
		{"input fragment", "", "<INPUT type=hidden>", true},
		{"json", "application/json", `{"a":1}`, false},
		{"plain text", "text/plain", "hello world", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksLikeHTML(tt.contentType, tt.body); got != tt.want {
				t.Errorf("LooksLikeHTML(%q, %q) = %v, want %v", tt.contentType, tt.body, got, tt.want)
			}
		})
	}
}

func TestAnalyzePage(t *testing.T) {
	svc, _ := newTestService()

	findings, err := svc.AnalyzePage(context.Background(), Page{URL: "https://a.test/login", Body: passwordPage})
	if err != nil {
		t.Fatalf("AnalyzePage: %v", err)
	}
	if len(findings) == 0 || findings[0].Type != analyzer.TypePasswordValueInDOM {
		t.Fatalf("findings = %+v", findings)
	}
	if svc.Store().Len() != len(findings) {
		t.Errorf("store len = %d, want %d", svc.Store().Len(), len(findings))
	}

	// Re-analyzing the same page adds nothing
	if _, err := svc.AnalyzePage(context.Background(), Page{URL: "https://a.test/login", Body: passwordPage}); err != nil {
		t.Fatal(err)
	}
	if svc.Store().Len() != len(findings) {
		t.Errorf("duplicate analysis grew the store to %d", svc.Store().Len())
	}
}

func TestAnalyzePageGating(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		page Page
		want error
	}{
		{"empty", Page{URL: "https://a.test/", Body: "  \n"}, ErrEmptyBody},
		{"json", Page{URL: "https://a.test/", ContentType: "application/json", Body: `{"password":"x"}`}, ErrNotHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AnalyzePage(context.Background(), tt.page)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.AnalyzePage(ctx, Page{URL: "https://a.test/", Body: passwordPage}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx err = %v", err)
	}
}

func TestAnalyzePagePanicIsolated(t *testing.T) {
	svc, logs := newTestService()
	svc.analyze = func(rawURL, html string) []analyzer.Finding {
		if strings.Contains(rawURL, "boom") {
			panic("index out of range")
		}
		return analyzer.Analyze(rawURL, html)
	}

	results := svc.ScanBatch(context.Background(), []Page{
		{URL: "https://a.test/boom", Body: passwordPage},
		{URL: "https://a.test/ok", Body: passwordPage},
	})

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !errors.Is(results[0].Err, ErrAnalyzerPanic) || results[0].Error == "" {
		t.Errorf("first page err = %v, want ErrAnalyzerPanic", results[0].Err)
	}
	if results[0].Findings == nil {
		t.Error("failed page should carry an empty, non-nil findings slice")
	}
	if results[1].Err != nil || len(results[1].Findings) == 0 || results[1].Added == 0 {
		t.Errorf("second page should still be analyzed: %+v", results[1])
	}
	if !strings.Contains(logs.String(), "[ERROR] Analyzer panic") {
		t.Errorf("panic not logged:\n%s", logs.String())
	}
}

func TestScanBatchAdded(t *testing.T) {
	svc, _ := newTestService()

	results := svc.ScanBatch(context.Background(), []Page{
		{URL: "https://a.test/", Body: passwordPage},
		{URL: "https://a.test/", Body: passwordPage},
		{URL: "https://a.test/", ContentType: "text/plain", Body: "nothing"},
	})

	if results[0].Added == 0 || results[1].Added != 0 {
		t.Errorf("added = %d, %d; want >0, 0", results[0].Added, results[1].Added)
	}
	if !errors.Is(results[2].Err, ErrNotHTML) {
		t.Errorf("third page err = %v", results[2].Err)
	}
}

func TestScanURL(t *testing.T) {
	svc, _ := newTestService(WithFetcher(fakeFetcher{page: &httpclient.Page{
		FinalURL:    "https://a.test/final",
		ContentType: "text/html",
		Body:        passwordPage,
	}}))

	findings, err := svc.ScanURL(context.Background(), "https://a.test/start")
	if err != nil {
		t.Fatalf("ScanURL: %v", err)
	}
	if len(findings) == 0 || findings[0].URL != "https://a.test/final" {
		t.Errorf("findings should carry the final URL: %+v", findings)
	}
}

func TestScanErrors(t *testing.T) {
	t.Run("no fetcher", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.ScanURL(context.Background(), "https://a.test/"); !errors.Is(err, ErrFetchUnavailable) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("no renderer", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.Scan(context.Background(), "https://a.test/", true); !errors.Is(err, ErrRenderUnavailable) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("fetch error wrapped", func(t *testing.T) {
		svc, _ := newTestService(WithFetcher(fakeFetcher{err: httpclient.ErrBodyTooLarge}))
		if _, err := svc.ScanURL(context.Background(), "https://a.test/"); !errors.Is(err, httpclient.ErrBodyTooLarge) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestScanRendered(t *testing.T) {
	dom := `<html><body><button hidden onclick="deleteUser()">Delete</button></body></html>`
	svc, _ := newTestService(WithRenderer(fakeRenderer{dom: dom}))

	findings, err := svc.ScanRendered(context.Background(), "https://a.test/app")
	if err != nil {
		t.Fatalf("ScanRendered: %v", err)
	}
	if len(findings) != 1 || findings[0].Type != analyzer.TypeHiddenOrDisabledControl {
		t.Errorf("findings = %+v", findings)
	}
}

func TestSubmit(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, _ := newTestService(WithClock(func() time.Time { return now }))

	f := svc.Submit(analyzer.Finding{
		Type:       analyzer.TypeHiddenOrDisabledControl,
		Severity:   analyzer.SeverityMedium,
		Confidence: 150,
		URL:        "https://example.test/x",
		Evidence:   "<button disabled>",
	})

	if f.Confidence != 100 || f.Host != "example.test" || !f.FirstSeen.Equal(now) || f.StableKey == "" {
		t.Errorf("submitted finding not normalized: %+v", f)
	}
	if _, ok := svc.Store().Get(f.StableKey); !ok {
		t.Error("submitted finding not stored")
	}
}

func TestFalsePositiveAndExport(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(WithClock(func() time.Time { return now }))
	findings, _ := svc.AnalyzePage(context.Background(), Page{URL: "https://a.test/", Body: passwordPage})

	if err := svc.SetFalsePositive("nope", true); !errors.Is(err, store.ErrUnknownKey) {
		t.Errorf("unknown key err = %v", err)
	}
	if err := svc.SetFalsePositive(findings[0].StableKey, true); err != nil {
		t.Fatal(err)
	}
	if got := svc.Findings(store.Filter{HideFalsePositives: true}); len(got) != len(findings)-1 {
		t.Errorf("hidden false positives: got %d entries", len(got))
	}

	var buf bytes.Buffer
	if err := svc.Export(&buf, store.Filter{}); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Tool       string `json:"tool"`
		ExportedAt string `json:"exported_at"`
		Count      int    `json:"count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc.Tool != "sideeye" || doc.Count != len(findings) || doc.ExportedAt != "2025-06-01T00:00:00Z" {
		t.Errorf("export doc = %+v", doc)
	}

	svc.Clear()
	if svc.Store().Len() != 0 {
		t.Error("Clear left findings behind")
	}
}

func TestHint(t *testing.T) {
	svc, _ := newTestService()
	evidence := `<button id="save" hidden>Save</button>`
	page := `<html><body><button id="save" hidden>Save</button></body></html>`

	res, err := svc.Hint(evidence, "")
	if err != nil || res.Matches != nil {
		t.Errorf("Hint without page: %+v, %v", res, err)
	}

	res, err = svc.Hint(evidence, page)
	if err != nil {
		t.Fatal(err)
	}
	if res.Matches == nil || *res.Matches != 1 {
		t.Errorf("matches = %v, want 1", res.Matches)
	}
}

func TestScanStream(t *testing.T) {
	svc, _ := newTestService(WithFetcher(fakeFetcher{page: &httpclient.Page{ContentType: "text/html", Body: passwordPage}}))

	var stages []string
	for evt := range svc.ScanStream(context.Background(), "https://a.test/", false) {
		stages = append(stages, evt.Stage)
	}

	if len(stages) < 4 || stages[0] != "start" || stages[1] != "loaded" || stages[len(stages)-1] != "complete" {
		t.Errorf("stages = %v", stages)
	}
	for _, s := range stages[2 : len(stages)-1] {
		if s != "finding" {
			t.Errorf("unexpected stage %q between loaded and complete", s)
		}
	}
}

func TestScanStreamError(t *testing.T) {
	svc, _ := newTestService()

	var last StreamEvent
	for evt := range svc.ScanStream(context.Background(), "https://a.test/", false) {
		last = evt
	}
	if last.Stage != "error" || !strings.Contains(last.Message, "not configured") {
		t.Errorf("last event = %+v", last)
	}
}
