package analyzer

import (
	"strings"

	"golang.org/x/net/html"
)

// attribute is one name/value pair in source order
type attribute struct {
	key string // lower-cased
	val string // entity-decoded, "" for boolean attributes
}

// attrList preserves attribute order so lookups return the first occurrence
type attrList []attribute

// get returns the first value of name, or "" when absent
func (a attrList) get(name string) string {
	for _, at := range a {
		if at.key == name {
			return at.val
		}
	}
	return ""
}

// has reports whether name is present with or without a value
func (a attrList) has(name string) bool {
	for _, at := range a {
		if at.key == name {
			return true
		}
	}
	return false
}

// hasAny reports whether any of names is present
func (a attrList) hasAny(names ...string) bool {
	for _, n := range names {
		if a.has(n) {
			return true
		}
	}
	return false
}

// lower returns the trimmed, lower-cased value of name
func (a attrList) lower(name string) string {
	return strings.ToLower(strings.TrimSpace(a.get(name)))
}

// readAttrs drains the attributes of the tag the tokenizer is positioned on
func readAttrs(z *html.Tokenizer, more bool) attrList {
	var out attrList
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		out = append(out, attribute{key: string(key), val: string(val)})
	}
	return out
}

// parseTag tokenizes a single raw opening tag such as `<input type=password>`.
// Anything that is not a well-formed opening tag yields no attributes.
func parseTag(rawTag string) attrList {
	z := html.NewTokenizer(strings.NewReader(rawTag))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
	default:
		return nil
	}
	_, more := z.TagName()
	return readAttrs(z, more)
}

// ExtractAttr resolves the first value of the named attribute from a tag's
// attribute text. Double-quoted, single-quoted and unquoted (terminated by
// whitespace or '>') forms are supported in any order. Absent or malformed
// attributes resolve to "".
func ExtractAttr(attrText, name string) string {
	return parseTag(asTag(attrText)).get(strings.ToLower(name))
}

// HasAttr reports whether the attribute text carries the named attribute,
// with any value or none.
func HasAttr(attrText, name string) bool {
	return parseTag(asTag(attrText)).has(strings.ToLower(name))
}

// asTag wraps bare attribute text in a synthetic opening tag; full tags pass through
func asTag(attrText string) string {
	trimmed := strings.TrimSpace(attrText)
	if strings.HasPrefix(trimmed, "<") {
		if !strings.HasSuffix(trimmed, ">") {
			trimmed += ">"
		}
		return trimmed
	}
	return "<x " + trimmed + ">"
}
