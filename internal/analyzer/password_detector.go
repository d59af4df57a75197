package analyzer

import (
	"regexp"
	"strings"
)

// maxPasswordInputs bounds how many <input> tags are examined per page
const maxPasswordInputs = 200

// passwordMatch is an <input type=password> that carries a value attribute
type passwordMatch struct {
	raw   string // the literal tag
	value string
}

// PasswordDetector finds password inputs whose value is rendered into the markup
type PasswordDetector struct {
	inputTag *regexp.Regexp
}

// NewPasswordDetector creates a new password-value detector
func NewPasswordDetector() *PasswordDetector {
	return &PasswordDetector{
		// Quoted values may contain '>'; a lone quote still lets the tag close
		inputTag: regexp.MustCompile(`(?is)<input\b(?:[^>"']|"[^"]*"|'[^']*'|["'])*>`),
	}
}

// Detect scans the unstripped page so inputs built inside scripts are seen too
func (d *PasswordDetector) Detect(p *page) []passwordMatch {
	var out []passwordMatch
	for _, raw := range d.inputTag.FindAllString(p.html, maxPasswordInputs) {
		attrs := parseTag(raw)
		if attrs.lower("type") != "password" || !attrs.has("value") {
			continue
		}
		out = append(out, passwordMatch{raw: raw, value: attrs.get("value")})
	}
	return out
}

// passwordConfidence is 95 for a real-looking value, 70 for an empty one and
// 75 for placeholder-looking values
func passwordConfidence(value string) int {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return 70
	case strings.EqualFold(v, "password") || isMaskRun(v):
		return 75
	}
	return 95
}

// isMaskRun reports a value made only of masking characters such as "********"
func isMaskRun(v string) bool {
	for _, r := range v {
		switch r {
		case '*', '•', '●', '·', '∙', '◦':
		default:
			return false
		}
	}
	return v != ""
}
