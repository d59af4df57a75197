package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// FindingType identifies which detector produced a Finding
type FindingType string

// Finding type constants
const (
	TypePasswordValueInDOM      FindingType = "PASSWORD_VALUE_IN_DOM"
	TypeHiddenOrDisabledControl FindingType = "HIDDEN_OR_DISABLED_CONTROL"
	TypeRolePermissionHint      FindingType = "ROLE_PERMISSION_HINT"
	TypeInlineScriptSecretish   FindingType = "INLINE_SCRIPT_SECRETISH"
	TypeDevtoolsBlocking        FindingType = "DEVTOOLS_BLOCKING"
)

// FindingTypes returns every known finding type in detector order
func FindingTypes() []FindingType {
	return []FindingType{
		TypePasswordValueInDOM,
		TypeHiddenOrDisabledControl,
		TypeRolePermissionHint,
		TypeInlineScriptSecretish,
		TypeDevtoolsBlocking,
	}
}

// ParseFindingType matches a type name case-insensitively
func ParseFindingType(s string) (FindingType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range FindingTypes() {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Severity is the fixed-threshold band derived from a confidence score
type Severity string

// Severity constants, highest first
const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
	SeverityInfo   Severity = "Info"
)

// Rank orders severities so that High > Medium > Low > Info
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity matches a severity name case-insensitively.
// "information" and "informational" are accepted as Info.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return SeverityHigh, true
	case "medium":
		return SeverityMedium, true
	case "low":
		return SeverityLow, true
	case "info", "information", "informational":
		return SeverityInfo, true
	}
	return "", false
}

// Finding is one structured detection result for an observed client-side signal.
// Values are handed to the caller and never mutated by the engine afterwards.
type Finding struct {
	Type           FindingType `json:"type"`
	Severity       Severity    `json:"severity"`
	Confidence     int         `json:"confidence"` // 0-100
	URL            string      `json:"url"`
	Host           string      `json:"host"` // empty when URL is unparseable
	Title          string      `json:"title"`
	Summary        string      `json:"summary"`
	Evidence       string      `json:"evidence"` // literal markup, never HTML-escaped
	Recommendation string      `json:"recommendation"`
	FirstSeen      time.Time   `json:"first_seen"`
	StableKey      string      `json:"stable_key"`
}

// Assemble normalizes a Finding built outside a detector (for example one
// reported by the browser bridge): confidence is clamped, host and stable key
// are derived, and FirstSeen defaults to now.
func Assemble(f Finding, now time.Time) Finding {
	f.Confidence = clamp(f.Confidence, 0, 100)
	f.Host = hostFromURL(f.URL)
	if f.FirstSeen.IsZero() {
		f.FirstSeen = now
	}
	f.StableKey = StableKey(f.Type, f.URL, f.Evidence)
	return f
}

// StableKey derives the deduplication key for a finding. Identical
// (type, url, evidence) always produce the same key.
func StableKey(t FindingType, rawURL, evidence string) string {
	return string(t) + "|" + rawURL + "|" + evidenceDigest(evidence)
}

// evidenceDigest is the first 16 hex chars of the SHA-256 of the evidence
func evidenceDigest(evidence string) string {
	sum := sha256.Sum256([]byte(evidence))
	return hex.EncodeToString(sum[:8])
}

// hostFromURL returns the hostname of rawURL or "" if none can be derived
func hostFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
