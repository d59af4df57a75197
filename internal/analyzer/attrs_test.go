package analyzer

import (
	"strings"
	"testing"
)

func TestExtractAttr(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		attr     string
		expected string
	}{
		{"double quoted", `type="password" value="x"`, "value", "x"},
		{"single quoted with space", `value='x y' type=password`, "value", "x y"},
		{"unquoted before close", `value=abc>`, "value", "abc"},
		{"unquoted before whitespace", `value=abc type=text`, "value", "abc"},
		{"full tag", `<input type=password value=secret123>`, "value", "secret123"},
		{"full tag without close", `<button id="go"`, "id", "go"},
		{"case insensitive name", `ID="Main"`, "id", "Main"},
		{"first of duplicates", `id="a" id="b"`, "id", "a"},
		{"missing", `type=password`, "value", ""},
		{"empty text", ``, "id", ""},
		{"boolean attribute", `disabled`, "disabled", ""},
		{"unterminated quote", `id="unterminated`, "id", ""},
		{"not a tag", `</div>`, "id", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractAttr(tc.text, tc.attr); got != tc.expected {
				t.Errorf("ExtractAttr(%q, %q) = %q, want %q", tc.text, tc.attr, got, tc.expected)
			}
		})
	}
}

func TestHasAttr(t *testing.T) {
	testCases := []struct {
		text     string
		attr     string
		expected bool
	}{
		{`type="password" value=""`, "value", true},
		{`type="password" value`, "value", true},
		{`type="password"`, "value", false},
		{`<button DISABLED>`, "disabled", true},
		{`data-value="x"`, "value", false},
	}

	for _, tc := range testCases {
		if got := HasAttr(tc.text, tc.attr); got != tc.expected {
			t.Errorf("HasAttr(%q, %q) = %v, want %v", tc.text, tc.attr, got, tc.expected)
		}
	}
}

func TestSplitPage(t *testing.T) {
	p := splitPage(`<html><head><style>.a{display:none}</style><script src="x.js"></script><script>var a = 1;</script></head>
<body><BUTTON ID="Go" hidden>Go</BUTTON><p>text</p><input type=text></body></html>`)

	if len(p.scripts) != 1 || p.scripts[0] != "var a = 1;" {
		t.Errorf("scripts = %q, want one inline body", p.scripts)
	}
	if len(p.tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(p.tags))
	}
	if p.tags[0].name != "button" || p.tags[0].raw != `<BUTTON ID="Go" hidden>` {
		t.Errorf("tag = %+v", p.tags[0])
	}
	if p.tags[0].attrs.get("id") != "Go" || !p.tags[0].attrs.has("hidden") {
		t.Errorf("attrs = %+v", p.tags[0].attrs)
	}
	for _, s := range []string{"display:none", "var a"} {
		if strings.Contains(p.markup, s) {
			t.Errorf("markup still contains %q", s)
		}
	}
}
