package analyzer

import "regexp"

const (
	// maxSecretFindings bounds secret-like findings per page
	maxSecretFindings = 20

	// maxTokenProbes bounds how many long tokens per body are checked for a nearby keyword
	maxTokenProbes = 64

	// keywordProximity is how close a keyword must sit to a long token
	keywordProximity = 80
)

// secretKeywords name credentials. Matched against the lower-cased body.
var secretKeywords = []string{"api_key", "api-key", "apikey", "secret", "bearer", "token"}

// SecretDetector flags inline scripts that appear to embed credentials
type SecretDetector struct {
	assignment *regexp.Regexp
	jwt        *regexp.Regexp
	base64ish  *regexp.Regexp
	hexish     *regexp.Regexp
}

// NewSecretDetector creates a new inline-script secret detector
func NewSecretDetector() *SecretDetector {
	return &SecretDetector{
		assignment: regexp.MustCompile("(?i)(?:api[_-]?key|secret|bearer|token)[\\w$.-]{0,40}[\"']?\\s*[:=]\\s*[\"'`]([^\"'`\\r\\n]{20,})[\"'`]"),
		jwt:        regexp.MustCompile(`eyJ[^.]{2,200}\.`), // the '.' may follow after a split or concatenation
		base64ish:  regexp.MustCompile(`[A-Za-z0-9+/]{30,}={0,2}`),
		hexish:     regexp.MustCompile(`[A-Fa-f0-9]{32,}`),
	}
}

// Detect returns the qualifying script bodies in document order
func (d *SecretDetector) Detect(p *page) []string {
	var out []string
	for _, body := range p.scripts {
		if len(out) >= maxSecretFindings {
			break
		}
		if d.looksSecretish(scanText(body)) {
			out = append(out, body)
		}
	}
	return out
}

// looksSecretish applies the three heuristics: a keyword assigned a long
// quoted literal, a JWT-shaped fragment, or a keyword near a long token
func (d *SecretDetector) looksSecretish(body string) bool {
	if d.assignment.MatchString(body) || d.jwt.MatchString(body) {
		return true
	}

	lower := asciiLower(body)
	if !containsAny(lower, secretKeywords) {
		return false
	}
	for _, re := range []*regexp.Regexp{d.base64ish, d.hexish} {
		for _, loc := range re.FindAllStringIndex(body, maxTokenProbes) {
			if keywordNear(lower, loc[0], loc[1]) {
				return true
			}
		}
	}
	return false
}

// keywordNear reports a secret keyword within keywordProximity bytes of [start,end)
func keywordNear(lower string, start, end int) bool {
	lo := start - keywordProximity
	if lo < 0 {
		lo = 0
	}
	hi := end + keywordProximity
	if hi > len(lower) {
		hi = len(lower)
	}
	if lo >= hi {
		return false
	}
	return containsAny(lower[lo:hi], secretKeywords)
}
