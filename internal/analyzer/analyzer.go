// Package analyzer turns a raw (URL, HTML) pair into structured findings about
// client-side-only authorization signals. It is a pure function over text: no
// I/O, no shared mutable state, safe for concurrent use.
package analyzer

import (
	"strings"
	"time"
)

// Analyzer runs the detectors over a page
type Analyzer struct {
	password *PasswordDetector
	controls *ControlDetector
	roles    *RoleHintDetector
	secrets  *SecretDetector
	devtools *DevtoolsDetector
	now      func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithClock overrides the time source used for FirstSeen
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an Analyzer with every detector enabled
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		password: NewPasswordDetector(),
		controls: NewControlDetector(),
		roles:    NewRoleHintDetector(),
		secrets:  NewSecretDetector(),
		devtools: NewDevtoolsDetector(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the findings for one page in detector order: password,
// hidden/disabled controls, role hint, inline secrets, DevTools blocking.
// Blank html yields an empty, non-nil slice.
func (a *Analyzer) Analyze(rawURL, html string) []Finding {
	out := []Finding{}
	if strings.TrimSpace(html) == "" {
		return out
	}

	p := splitPage(html)
	host := hostFromURL(rawURL)
	now := a.now()
	emit := func(f Finding) {
		out = append(out, finalize(f, rawURL, host, now))
	}

	for _, m := range a.password.Detect(p) {
		emit(passwordFinding(m))
	}

	for _, c := range a.controls.Detect(p) {
		emit(controlFinding(c))
	}

	if m, ok := a.roles.Detect(p); ok {
		emit(roleFinding(m))
	}

	seen := make(map[string]bool)
	for _, body := range a.secrets.Detect(p) {
		f := secretFinding(body)
		if seen[f.Evidence] {
			continue
		}
		seen[f.Evidence] = true
		emit(f)
	}

	dt := a.devtools.Detect(p)
	clear(seen)
	for _, c := range dt.candidates {
		f := devtoolsFinding(c)
		if seen[f.Evidence] {
			continue
		}
		seen[f.Evidence] = true
		emit(f)
	}
	if dt.pageHint != "" {
		emit(devtoolsHintFinding(dt.pageHint))
	}

	return out
}

var defaultAnalyzer = New()

// Analyze runs the default Analyzer
func Analyze(rawURL, html string) []Finding {
	return defaultAnalyzer.Analyze(rawURL, html)
}
