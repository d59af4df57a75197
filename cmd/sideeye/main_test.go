package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const page = `<!doctype html><html><body>
<form action="/admin/users/delete" method="post">
  <input type="password" name="pw" value="hunter22">
  <button type="submit" hidden>Delete user</button>
</form>
</body></html>`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("SIDEEYE_CONFIG", "")
	t.Setenv("NO_COLOR", "1")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writePage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanFile(t *testing.T) {
	path := writePage(t, "page.html", page)

	out, _, err := run(t, "scan", "--log-level", "error", path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "file://") || !strings.Contains(out, "finding(s)") {
		t.Errorf("output:\n%s", out)
	}
}

func TestScanJSON(t *testing.T) {
	path := writePage(t, "page.html", page)

	out, _, err := run(t, "scan", "--json", "--url", "https://app.test/admin", "--min-severity", "high", path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	var doc struct {
		Tool     string `json:"tool"`
		Findings []struct {
			Severity string `json:"severity"`
			URL      string `json:"url"`
			Type     string `json:"type"`
		} `json:"findings"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if doc.Tool != "sideeye" || len(doc.Findings) == 0 {
		t.Fatalf("doc = %+v", doc)
	}
	for _, f := range doc.Findings {
		if f.Severity != "High" || f.URL != "https://app.test/admin" {
			t.Errorf("finding = %+v", f)
		}
	}
}

func TestScanErrors(t *testing.T) {
	txt := writePage(t, "notes.txt", "just some notes")

	if _, _, err := run(t, "scan", "--min-severity", "critical", txt); err == nil {
		t.Error("unknown severity should fail")
	}

	_, errOut, err := run(t, "scan", txt, filepath.Join(t.TempDir(), "missing.html"))
	if err == nil || !strings.Contains(err.Error(), "2 of 2 inputs failed") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(errOut, "not HTML") {
		t.Errorf("stderr = %s", errOut)
	}

	if _, _, err := run(t, "scan"); err == nil {
		t.Error("scan without inputs should fail")
	}
}

func TestScanStdin(t *testing.T) {
	stdin = strings.NewReader(page)
	defer func() { stdin = os.Stdin }()

	out, _, err := run(t, "scan", "--json", "-")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, `"url": "stdin:"`) {
		t.Errorf("output:\n%s", out)
	}
}

func TestHintCommand(t *testing.T) {
	path := writePage(t, "page.html", `<div><button id="del" hidden>Delete</button></div>`)

	out, _, err := run(t, "hint", "--page", path, `<button id="del" hidden>Delete</button>`)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	for _, want := range []string{`Selector: [id="del"]`, "Matches in page: 1", "Reveal snippet:"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFileURL(t *testing.T) {
	got := fileURL(filepath.Join(string(filepath.Separator), "tmp", "a b.html"))
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/tmp/a%20b.html") {
		t.Errorf("fileURL = %q", got)
	}
}

func TestIsWebURL(t *testing.T) {
	for in, want := range map[string]bool{
		"https://a.test/": true,
		"HTTP://a.test":   true,
		"page.html":       false,
		"ftp://a.test":    false,
	} {
		if got := isWebURL(in); got != want {
			t.Errorf("isWebURL(%q) = %v", in, got)
		}
	}
}
