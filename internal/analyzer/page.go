package analyzer

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	// maxScripts bounds how many inline script bodies are examined per page
	maxScripts = 500

	// maxScriptScanBytes bounds how much of one script body the matchers scan
	maxScriptScanBytes = 256 * 1024

	// maxControlTags bounds how many candidate control tags are collected per page
	maxControlTags = 5000
)

// controlTagNames are the elements the hidden/disabled detector considers
var controlTagNames = map[string]bool{
	"button":   true,
	"a":        true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"form":     true,
	"div":      true,
	"span":     true,
}

// tag is one opening tag seen outside script/style bodies
type tag struct {
	name  string // lower-cased element name
	raw   string // literal opening tag as it appeared in the page
	attrs attrList
}

// page holds the text views the detectors run over
type page struct {
	html    string   // original text, unstripped
	markup  string   // html with script/style bodies removed
	scripts []string // inline script bodies in document order
	tags    []tag    // candidate control tags in document order
}

// splitPage tokenizes html once and builds the detector views.
// The x/net/html tokenizer is lenient and linear in input size, so
// malformed markup degrades to text instead of failing.
func splitPage(src string) *page {
	p := &page{html: src}
	var markup strings.Builder
	markup.Grow(len(src))

	z := html.NewTokenizer(strings.NewReader(src))
	rawElement := "" // "script" or "style" while inside such a body

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		// Raw must be copied before TagName/TagAttr, which lower-case the buffer in place
		raw := string(z.Raw())

		switch tt {
		case html.TextToken:
			if rawElement != "" {
				if rawElement == "script" && len(p.scripts) < maxScripts && strings.TrimSpace(raw) != "" {
					p.scripts = append(p.scripts, raw)
				}
				continue
			}
			markup.WriteString(raw)

		case html.StartTagToken, html.SelfClosingTagToken:
			markup.WriteString(raw)
			name, hasAttr := z.TagName()
			tagName := string(name)
			if tagName == "script" || tagName == "style" {
				rawElement = tagName
				continue
			}
			if controlTagNames[tagName] && len(p.tags) < maxControlTags {
				p.tags = append(p.tags, tag{
					name:  tagName,
					raw:   raw,
					attrs: readAttrs(z, hasAttr),
				})
			}

		case html.EndTagToken:
			markup.WriteString(raw)
			rawElement = ""

		default:
			markup.WriteString(raw)
		}
	}

	p.markup = markup.String()
	return p
}

// scanText bounds a script body to the scanned prefix
func scanText(body string) string {
	if len(body) > maxScriptScanBytes {
		return body[:maxScriptScanBytes]
	}
	return body
}

// asciiLower lower-cases ASCII letters only, so byte offsets into the result
// stay valid for the original string
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
