package analyzer

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Evidence bounds, in characters
const (
	passwordEvidenceMax = 400
	evidenceMax         = 420
	roleEvidenceMax     = 200
)

// Severity bands for actionable controls
const (
	controlHighScore   = 85
	controlMediumScore = 60
)

// Confidence range for non-actionable controls that are still reported
const (
	infoControlMin = 15
	infoControlMax = 45
)

// Fixed confidences
const (
	roleConfidence         = 35
	secretConfidence       = 30
	devtoolsHintConfidence = 30
)

const (
	passwordTitle   = "Password value present in HTML"
	passwordSummary = `An <input type="password"> includes a value attribute in the HTML. Users can reveal it via DevTools or intercepting proxies.`
	passwordFix     = "Do not render secrets or passwords into client-side HTML. Populate credentials server-side only when needed, and never include password values in responses. Enforce server-side authorization and consider rotating exposed credentials."

	controlFix = "Do not rely on client-side hiding/disabled states for authorization. Enforce authorization server-side for all actions. Prefer not rendering unauthorized controls at all (or render in a non-actionable form)."

	roleTitle   = "Role/permission hints found in HTML/JS"
	roleSummary = "The page contains role/permission-related keywords. This may help locate authorization logic or UI gating, but is not necessarily a vulnerability on its own."
	roleFix     = "Confirm all authorization decisions are enforced server-side. Avoid leaking internal role names or authorization flags to the client unless required."

	secretTitle   = "Potential secret-like value in inline script"
	secretSummary = "The page contains inline script content that looks like it may include credentials/tokens/keys. This is heuristic and can generate false positives."
	secretFix     = "Avoid embedding secrets in client-side code. Use server-side sessions or retrieve short-lived tokens from protected endpoints with proper authorization."

	devtoolsTitle       = "Anti-DevTools logic in inline script"
	devtoolsHintTitle   = "DevTools-related keyword in page"
	devtoolsHintSummary = "The page mentions DevTools but no inline script scored as active DevTools detection. It may load such logic from an external script."
	devtoolsFix         = "Client-side DevTools detection does not protect data or actions. Assume every response is fully visible to the user and enforce authorization server-side."
)

func passwordFinding(m passwordMatch) Finding {
	return Finding{
		Type:           TypePasswordValueInDOM,
		Severity:       SeverityHigh,
		Confidence:     passwordConfidence(m.value),
		Title:          passwordTitle,
		Summary:        passwordSummary,
		Evidence:       shrink(m.raw, passwordEvidenceMax),
		Recommendation: passwordFix,
	}
}

func controlFinding(c controlCandidate) Finding {
	conf := c.signals.Total()
	sev := SeverityInfo
	if c.signals.Actionable {
		switch {
		case conf >= controlHighScore:
			sev = SeverityHigh
		case conf >= controlMediumScore:
			sev = SeverityMedium
		default:
			sev = SeverityLow
		}
	} else {
		conf = clamp(conf, infoControlMin, infoControlMax)
	}

	state := c.vis.state()
	summary := "An interactive <" + c.tag.name + "> is present in the HTML but is " + state +
		" on the client side. If server-side authorization is missing, users may be able to enable or trigger privileged actions."
	if c.signals.Actionable {
		summary += " Action score " + strconv.Itoa(c.signals.Action) + " marks it as likely actionable."
	}
	if len(c.vis.signals) > 0 {
		summary += " State: " + strings.Join(c.vis.signals, ", ") + "."
	}
	if len(c.signals.Reasons) > 0 {
		summary += " Signals: " + strings.Join(c.signals.Reasons, ", ") + "."
	}

	return Finding{
		Type:           TypeHiddenOrDisabledControl,
		Severity:       sev,
		Confidence:     conf,
		Title:          "Client-side " + state + " control present in HTML",
		Summary:        summary,
		Evidence:       shrink(c.tag.raw, evidenceMax),
		Recommendation: controlFix,
	}
}

func roleFinding(m roleMatch) Finding {
	evidence := "Matched keyword: " + m.keyword
	if m.role != "" {
		evidence = "Matched role assignment: " + shrink(m.text, roleEvidenceMax)
	}
	return Finding{
		Type:           TypeRolePermissionHint,
		Severity:       SeverityInfo,
		Confidence:     roleConfidence,
		Title:          roleTitle,
		Summary:        roleSummary,
		Evidence:       evidence,
		Recommendation: roleFix,
	}
}

func secretFinding(body string) Finding {
	return Finding{
		Type:           TypeInlineScriptSecretish,
		Severity:       SeverityLow,
		Confidence:     secretConfidence,
		Title:          secretTitle,
		Summary:        secretSummary,
		Evidence:       shrink(body, evidenceMax),
		Recommendation: secretFix,
	}
}

func devtoolsFinding(c devtoolsCandidate) Finding {
	sev := SeverityLow
	if c.signals.Score >= devtoolsMediumScore {
		sev = SeverityMedium
	}
	summary := "An inline script combines DevTools-detection idioms (score " + strconv.Itoa(c.signals.Score) + ")."
	if len(c.signals.Signals) > 0 {
		summary += " Signals: " + strings.Join(c.signals.Signals, ", ") + "."
	}
	return Finding{
		Type:           TypeDevtoolsBlocking,
		Severity:       sev,
		Confidence:     c.signals.Score,
		Title:          devtoolsTitle,
		Summary:        summary,
		Evidence:       shrink(c.body, evidenceMax),
		Recommendation: devtoolsFix,
	}
}

func devtoolsHintFinding(snippet string) Finding {
	return Finding{
		Type:           TypeDevtoolsBlocking,
		Severity:       SeverityInfo,
		Confidence:     devtoolsHintConfidence,
		Title:          devtoolsHintTitle,
		Summary:        devtoolsHintSummary,
		Evidence:       shrink(snippet, evidenceMax),
		Recommendation: devtoolsFix,
	}
}

// finalize stamps the call-wide fields shared by every finding
func finalize(f Finding, rawURL, host string, now time.Time) Finding {
	f.URL = rawURL
	f.Host = host
	f.FirstSeen = now
	f.Confidence = clamp(f.Confidence, 0, 100)
	f.StableKey = StableKey(f.Type, rawURL, f.Evidence)
	return f
}

// shrink collapses whitespace runs to single spaces, trims, and truncates to
// max characters with a trailing ellipsis.
func shrink(s string, max int) string {
	var b strings.Builder
	b.Grow(min(len(s), max*utf8.UTFMax))

	n := 0
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = n > 0
			continue
		}
		if pendingSpace {
			if n == max {
				return b.String() + "…"
			}
			b.WriteByte(' ')
			n++
			pendingSpace = false
		}
		if n == max {
			return strings.TrimRight(b.String(), " ") + "…"
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
