package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// devtoolsThreshold is the minimum score for a script-level finding
	devtoolsThreshold = 40

	// devtoolsMediumScore promotes a script-level finding to Medium
	devtoolsMediumScore = 65

	// maxDevtoolsFindings bounds script-level DevTools findings per page
	maxDevtoolsFindings = 20

	// pageHintContext is how much text around the keyword the page-level hint keeps
	pageHintContext = 60
)

// DevtoolsSignals is the cumulative DevTools-detection score of one script body
type DevtoolsSignals struct {
	Score   int      // clamped to [0,100]
	Signals []string // names of the idioms that matched
}

// devtoolsIdiom is a single weighted pattern matched against the lower-cased body
type devtoolsIdiom struct {
	name   string
	weight int
	re     *regexp.Regexp
}

// devtoolsCandidate is a script body that scored at or above the threshold
type devtoolsCandidate struct {
	body    string
	signals DevtoolsSignals
}

// devtoolsResult is everything the DevTools pass found on a page
type devtoolsResult struct {
	candidates []devtoolsCandidate // ordered by descending score
	pageHint   string              // snippet around a keyword when no candidate cleared the threshold
}

// DevtoolsDetector scores inline scripts for anti-DevTools logic
type DevtoolsDetector struct {
	idioms       []devtoolsIdiom
	widthMinus   *regexp.Regexp
	heightMinus  *regexp.Regexp
	absCall      *regexp.Regexp
	threshold160 *regexp.Regexp
}

// NewDevtoolsDetector creates a new DevTools-blocking detector
func NewDevtoolsDetector() *DevtoolsDetector {
	return &DevtoolsDetector{
		idioms: []devtoolsIdiom{
			{"devtools mention", 30, regexp.MustCompile(`devtool`)},
			{"devtools opened idiom", 30, regexp.MustCompile(`devtools?[\s._'"-]*(?:is[\s._-]*)?open|devtoolschange`)},
			{"isDevToolsOpen idiom", 20, regexp.MustCompile(`is[\s._-]*dev[\s._-]*tools?[\s._-]*open`)},
			{"disable on open", 25, regexp.MustCompile(`disable[\s._-]*dev[\s._-]*tools?|ondevtools?open`)},
			{"debugger statement", 20, regexp.MustCompile(`\bdebugger\b`)},
			{"timer", 12, regexp.MustCompile(`\bset(?:interval|timeout)\s*\(`)},
			{"animation frame", 8, regexp.MustCompile(`\brequestanimationframe\s*\(`)},
			{"resize listener", 10, regexp.MustCompile(`addeventlistener\s*\(\s*["'\x60]resize["'\x60]|\bonresize\s*=`)},
			{"console override", 10, regexp.MustCompile(`console\.(?:clear|log|profile(?:end)?)\s*=|console\.(?:clear|profile(?:end)?)\s*\(`)},
			{"function toString idiom", 10, regexp.MustCompile(`\.tostring\s*=|function\.prototype\.tostring|\btostring\s*:\s*function`)},
			{"timing probe", 8, regexp.MustCompile(`performance\.now\s*\(|\bdate\.now\s*\(|new\s+date\s*\(\s*\)\s*\.gettime\s*\(`)},
		},
		widthMinus:   regexp.MustCompile(`outerwidth\s*-\s*(?:window\.|self\.|top\.)?innerwidth|innerwidth\s*-\s*(?:window\.|self\.|top\.)?outerwidth`),
		heightMinus:  regexp.MustCompile(`outerheight\s*-\s*(?:window\.|self\.|top\.)?innerheight|innerheight\s*-\s*(?:window\.|self\.|top\.)?outerheight`),
		absCall:      regexp.MustCompile(`math\.abs\s*\(`),
		threshold160: regexp.MustCompile(`\b160\b`),
	}
}

// Detect scores every inline script and falls back to a page-level hint
func (d *DevtoolsDetector) Detect(p *page) devtoolsResult {
	var res devtoolsResult
	for _, body := range p.scripts {
		if len(res.candidates) >= maxDevtoolsFindings {
			break
		}
		sig := d.Score(scanText(body))
		if sig.Score >= devtoolsThreshold {
			res.candidates = append(res.candidates, devtoolsCandidate{body: body, signals: sig})
		}
	}
	sort.SliceStable(res.candidates, func(i, j int) bool {
		return res.candidates[i].signals.Score > res.candidates[j].signals.Score
	})

	if len(res.candidates) == 0 {
		res.pageHint = devtoolsSnippet(p.html)
	}
	return res
}

// Score accumulates the weights of every idiom present in body
func (d *DevtoolsDetector) Score(body string) DevtoolsSignals {
	var s DevtoolsSignals
	l := asciiLower(body)
	add := func(points int, name string) {
		s.Score += points
		s.Signals = append(s.Signals, name)
	}

	for _, idiom := range d.idioms {
		if idiom.re.MatchString(l) {
			add(idiom.weight, idiom.name)
		}
	}

	widthPair := strings.Contains(l, "outerwidth") && strings.Contains(l, "innerwidth")
	heightPair := strings.Contains(l, "outerheight") && strings.Contains(l, "innerheight")
	if widthPair {
		add(25, "outer/inner width")
	}
	if heightPair {
		add(20, "outer/inner height")
	}

	widthMinus := d.widthMinus.MatchString(l)
	heightMinus := d.heightMinus.MatchString(l)
	if widthMinus {
		add(15, "width subtraction")
	}
	if heightMinus {
		add(15, "height subtraction")
	}
	if (widthMinus || heightMinus) && d.absCall.MatchString(l) {
		add(10, "absolute-value check")
	}
	if (widthPair || heightPair) && d.threshold160.MatchString(l) {
		add(10, "160px threshold")
	}

	if strings.Contains(l, "chrome") && strings.Contains(l, "devtool") {
		add(10, "chrome devtools mention")
	}

	s.Score = clamp(s.Score, 0, 100)
	return s
}

// devtoolsSnippet returns the text around the first devtools keyword, or ""
func devtoolsSnippet(src string) string {
	l := asciiLower(src)
	i := strings.Index(l, "devtool")
	if i < 0 {
		if i = strings.Index(l, "dev tools"); i < 0 {
			return ""
		}
	}
	lo := i - pageHintContext
	if lo < 0 {
		lo = 0
	}
	hi := i + len("devtools") + pageHintContext
	if hi > len(src) {
		hi = len(src)
	}
	// Widen both ends to rune boundaries so no multi-byte rune is split
	for lo > 0 && !utf8.RuneStart(src[lo]) {
		lo--
	}
	for hi < len(src) && !utf8.RuneStart(src[hi]) {
		hi++
	}
	return src[lo:hi]
}
