package report

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/olegrjumin/sideeye/internal/analyzer"
)

func sample() []analyzer.Finding {
	return []analyzer.Finding{
		{Severity: analyzer.SeverityInfo, Confidence: 20, Title: "info one", URL: "https://a.test/"},
		{Severity: analyzer.SeverityHigh, Confidence: 90, Title: "high one", URL: "https://a.test/",
			Evidence: "<input type=\"password\"\n   value=\"x\">", Recommendation: "Do not render passwords."},
		{Severity: analyzer.SeverityMedium, Confidence: 60, Title: "medium one", URL: "https://b.test/"},
		{Severity: analyzer.SeverityHigh, Confidence: 88, Title: "high two", URL: "https://b.test/"},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	order := []string{"high one", "high two", "medium one", "info one"}
	last := -1
	for _, title := range order {
		i := strings.Index(out, title)
		if i < 0 || i < last {
			t.Fatalf("%q out of order in:\n%s", title, out)
		}
		last = i
	}

	if !strings.Contains(out, "4 finding(s) (2 high, 1 medium, 1 info)") {
		t.Errorf("missing summary:\n%s", out)
	}
	if strings.Contains(out, "evidence:") {
		t.Error("evidence should only appear in verbose mode")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output should carry no escape codes")
	}
}

func TestRenderVerbose(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), Options{Verbose: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, `evidence: <input type="password" value="x">`) {
		t.Errorf("evidence should be collapsed onto one line:\n%s", out)
	}
	if !strings.Contains(out, "→ Do not render passwords.") {
		t.Errorf("missing recommendation:\n%s", out)
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, nil, Options{})
	if buf.String() != "No findings.\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		min  analyzer.Severity
		want int
	}{
		{analyzer.SeverityInfo, 4},
		{analyzer.SeverityLow, 3},
		{analyzer.SeverityMedium, 3},
		{analyzer.SeverityHigh, 2},
	}

	for _, tt := range tests {
		if got := AtLeast(sample(), tt.min); len(got) != tt.want {
			t.Errorf("AtLeast(%s) = %d findings, want %d", tt.min, len(got), tt.want)
		}
	}
}

func TestOneLine(t *testing.T) {
	if got := oneLine("a\n\t b", 10); got != "a b" {
		t.Errorf("got %q", got)
	}
	if got := oneLine(strings.Repeat("é", 12), 10); got != strings.Repeat("é", 10)+"..." {
		t.Errorf("got %q", got)
	}
}

func TestColorEnabledNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(os.Stdout) {
		t.Error("NO_COLOR should disable colour")
	}
}
