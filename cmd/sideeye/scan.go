package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegrjumin/sideeye/internal/analyzer"
	"github.com/olegrjumin/sideeye/internal/render"
	"github.com/olegrjumin/sideeye/internal/report"
	"github.com/olegrjumin/sideeye/internal/service"
	"github.com/olegrjumin/sideeye/internal/store"
)

type scanFlags struct {
	url         string
	render      bool
	json        bool
	minSeverity string
	verbose     bool
	noColor     bool
}

func newScanCmd(a *app) *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan FILE|URL...",
		Short: "Analyze HTML files or pages and print the findings",
		Example: `  sideeye scan https://app.example.com/settings
  sideeye scan --render --min-severity medium https://app.example.com/
  sideeye scan --url https://app.example.com/admin saved.html
  curl -s https://app.example.com/ | sideeye scan -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd.Context(), f, args)
		},
	}

	cmd.Flags().StringVar(&f.url, "url", "", "URL recorded for file input (default file://<abs path>)")
	cmd.Flags().BoolVar(&f.render, "render", false, "capture the rendered DOM with a headless browser")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the export JSON document")
	cmd.Flags().StringVar(&f.minSeverity, "min-severity", "info", "lowest severity reported: info|low|medium|high")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "include evidence and recommendations")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colour output")
	return cmd
}

func (a *app) runScan(ctx context.Context, f scanFlags, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	min, ok := analyzer.ParseSeverity(f.minSeverity)
	if !ok {
		return fmt.Errorf("unknown severity %q", f.minSeverity)
	}

	var opts []service.Option
	if f.render {
		r := render.New(render.Options{PoolSize: 1, Timeout: a.cfg.RenderTimeout, UserAgent: a.cfg.UserAgent})
		defer r.Close()
		opts = append(opts, service.WithRenderer(r))
	}
	svc := a.newService(opts...)

	var failed []string
	for _, arg := range args {
		if err := a.scanOne(ctx, svc, f, arg); err != nil {
			fmt.Fprintf(a.errOut, "sideeye: %s: %v\n", arg, err)
			failed = append(failed, arg)
		}
	}

	if f.json {
		if err := svc.Export(a.out, store.Filter{Severities: severitiesAtLeast(min)}); err != nil {
			return err
		}
	} else {
		entries := svc.Findings(store.Filter{})
		findings := make([]analyzer.Finding, 0, len(entries))
		for _, e := range entries {
			findings = append(findings, e.Finding)
		}
		ropts := report.Options{Verbose: f.verbose, Color: !f.noColor && isTerminal(a.out)}
		if err := report.Render(a.out, report.AtLeast(findings, min), ropts); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d inputs failed", len(failed), len(args))
	}
	return nil
}

func (a *app) scanOne(ctx context.Context, svc *service.Service, f scanFlags, arg string) error {
	if isWebURL(arg) {
		_, err := svc.Scan(ctx, arg, f.render)
		return err
	}

	page, err := readPage(arg, f.url)
	if err != nil {
		return err
	}
	_, err = svc.AnalyzePage(ctx, page)
	if errors.Is(err, service.ErrNotHTML) {
		return fmt.Errorf("%w (use a .html file)", err)
	}
	return err
}

// readPage loads a file, or stdin for "-", as a page
func readPage(path, pageURL string) (service.Page, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return service.Page{}, err
	}

	if pageURL == "" {
		pageURL = fileURL(path)
	}
	ct := ""
	if path != "-" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	return service.Page{URL: pageURL, ContentType: ct, Body: string(data)}, nil
}

func fileURL(path string) string {
	if path == "-" {
		return "stdin:"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

func isWebURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func severitiesAtLeast(min analyzer.Severity) map[analyzer.Severity]bool {
	out := make(map[analyzer.Severity]bool)
	for _, s := range []analyzer.Severity{analyzer.SeverityHigh, analyzer.SeverityMedium, analyzer.SeverityLow, analyzer.SeverityInfo} {
		if s.Rank() >= min.Rank() {
			out[s] = true
		}
	}
	return out
}
