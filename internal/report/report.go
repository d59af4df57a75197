// Package report formats findings for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/olegrjumin/sideeye/internal/analyzer"
)

// Options controls Render output
type Options struct {
	Color   bool // apply severity styles
	Verbose bool // include evidence and recommendation
}

// Lipgloss styles for each severity level
var (
	styleHigh   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	styleMedium = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	styleLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleInfo   = lipgloss.NewStyle().Faint(true)
	styleURL    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleFaint  = lipgloss.NewStyle().Faint(true)
)

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// AtLeast keeps findings whose severity ranks at or above min
func AtLeast(findings []analyzer.Finding, min analyzer.Severity) []analyzer.Finding {
	out := make([]analyzer.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity.Rank() >= min.Rank() {
			out = append(out, f)
		}
	}
	return out
}

// Render writes findings sorted by severity (High first, stable otherwise)
// followed by a per-severity summary line
func Render(w io.Writer, findings []analyzer.Finding, opts Options) error {
	if len(findings) == 0 {
		_, err := io.WriteString(w, "No findings.\n")
		return err
	}

	sorted := make([]analyzer.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})

	style := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	counts := make(map[analyzer.Severity]int)
	for _, f := range sorted {
		counts[f.Severity]++

		label := fmt.Sprintf("%-6s", f.Severity)
		b.WriteString(fmt.Sprintf("  %s %3d  %s\n", style(severityStyle(f.Severity), label), f.Confidence, f.Title))
		b.WriteString(fmt.Sprintf("              %s\n", style(styleURL, f.URL)))

		if opts.Verbose {
			if ev := oneLine(f.Evidence, 160); ev != "" {
				b.WriteString(fmt.Sprintf("              evidence: %s\n", ev))
			}
			if rec := oneLine(f.Recommendation, 200); rec != "" {
				b.WriteString(fmt.Sprintf("              %s\n", style(styleFaint, "→ "+rec)))
			}
		}
	}

	var parts []string
	for _, sev := range []analyzer.Severity{analyzer.SeverityHigh, analyzer.SeverityMedium, analyzer.SeverityLow, analyzer.SeverityInfo} {
		if c := counts[sev]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, strings.ToLower(string(sev))))
		}
	}
	b.WriteString(fmt.Sprintf("\n%d finding(s) (%s)\n", len(sorted), strings.Join(parts, ", ")))

	_, err := io.WriteString(w, b.String())
	return err
}

func severityStyle(s analyzer.Severity) lipgloss.Style {
	switch s {
	case analyzer.SeverityHigh:
		return styleHigh
	case analyzer.SeverityMedium:
		return styleMedium
	case analyzer.SeverityLow:
		return styleLow
	}
	return styleInfo
}

// oneLine collapses whitespace and truncates to max runes
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
