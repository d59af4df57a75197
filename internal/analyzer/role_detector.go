package analyzer

import "regexp"

// roleMatch is the first role/permission hint on a page
type roleMatch struct {
	keyword string // bare keyword, or the role key for an assignment
	role    string // privileged role value, "" for bare keywords
	text    string // the matched text
}

// RoleHintDetector looks for authorization vocabulary exposed to the client
type RoleHintDetector struct {
	hint *regexp.Regexp
}

// NewRoleHintDetector creates a new role/permission hint detector
func NewRoleHintDetector() *RoleHintDetector {
	return &RoleHintDetector{
		// One alternation keeps the search single-pass and leftmost-first:
		// group 1 is a bare keyword, groups 2/3 a role key and a privileged value.
		hint: regexp.MustCompile(`(?i)\b(?:(permission|authorize|isadmin|is_admin|acl|rbac|privilege)\b|((?:data-)?(?:user[_-]?)?roles?)["']?\s*[:=]\s*["']?\s*(admin|superuser|owner|manager|privileged|staff)\b)`),
	}
}

// Detect searches the script/style-stripped markup and returns at most one
// match. Inline script bodies are not part of the search.
func (d *RoleHintDetector) Detect(p *page) (roleMatch, bool) {
	text := p.markup
	loc := d.hint.FindStringSubmatchIndex(text)
	if loc == nil {
		return roleMatch{}, false
	}
	m := roleMatch{text: text[loc[0]:loc[1]]}
	if loc[2] >= 0 {
		m.keyword = text[loc[2]:loc[3]]
	} else {
		m.keyword = text[loc[4]:loc[5]]
		m.role = text[loc[6]:loc[7]]
	}
	return m, true
}
