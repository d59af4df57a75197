package analyzer

import "strings"

// actionableThreshold is the action score at which a control is treated as
// likely to trigger a state-changing request
const actionableThreshold = 60

// Action-score weights
const (
	weightEventHandler  = 30
	weightFormAssoc     = 30
	weightSubmit        = 30
	weightDisabledGate  = 15
	weightWeakHref      = 10
	weightRealHref      = 25
	weightDataAction    = 20
	weightButtonElement = 10
	weightInputButton   = 15
	weightRoleButton    = 10
	weightTabindex      = 5
	weightStateVerb     = 10
)

// Confidence-base weights
const (
	confidenceBase       = 10
	weightRiskKeyword    = 8
	maxRiskKeywordBonus  = 30
	weightWidgetIDIdioms = 5
)

// riskKeywords often correlate with privileged actions. Matched by substring.
var riskKeywords = []string{
	"delete", "remove", "admin", "role", "permission", "privilege",
	"approve", "reject", "reset", "unlock", "disable", "enable",
	"export", "import", "service", "serviceaccount", "account",
	"sudo", "elevat", "impersonat", "grant", "revoke", "token", "key",
}

// stateChangeVerbs in identifying attributes hint at a mutating action
var stateChangeVerbs = []string{"save", "submit", "update", "create", "add", "apply", "confirm"}

// widgetIDIdioms are fragments of auto-generated widget ids (WebForms and friends)
var widgetIDIdioms = []string{"btn", "ctl00", "cphmain"}

var eventHandlerAttrs = []string{"onclick", "onmousedown", "onmouseup", "onchange"}

var dataActionAttrs = []string{"data-action", "data-url", "data-endpoint", "data-method"}

var identityAttrs = []string{
	"id", "name", "value", "aria-label", "title", "href",
	"data-action", "data-url", "data-endpoint", "data-testid",
}

// ControlSignals accumulates the evidence for one hidden/disabled candidate
type ControlSignals struct {
	Action     int      // action-score accumulator
	Confidence int      // confidence-base accumulator
	Actionable bool     // Action >= actionableThreshold
	Reasons    []string // human-readable reason tags
}

// Total is the clamped combined confidence
func (s ControlSignals) Total() int {
	return clamp(s.Confidence+s.Action, 0, 100)
}

// scoreControl runs both accumulators over one candidate tag
func scoreControl(t tag, vis visibility) ControlSignals {
	var s ControlSignals
	identity := identityText(t.attrs)

	s.Action = scoreAction(t, vis, identity, &s.Reasons)
	s.Confidence = scoreRisk(identity, &s.Reasons)
	s.Actionable = s.Action >= actionableThreshold
	return s
}

// scoreAction scores how likely the control triggers a state-changing action
func scoreAction(t tag, vis visibility, identity string, reasons *[]string) int {
	a := t.attrs
	score := 0
	add := func(points int, reason string) {
		score += points
		*reasons = append(*reasons, reason)
	}

	if a.hasAny(eventHandlerAttrs...) {
		add(weightEventHandler, "event handler")
	}
	if hasFormAssociation(t) {
		add(weightFormAssoc, "form association")
	}
	if isSubmit(t) {
		add(weightSubmit, "submit")
	}
	if vis.disabled {
		add(weightDisabledGate, "client-side disabled gate")
	}
	if a.has("href") {
		if isWeakHref(a.get("href")) {
			add(weightWeakHref, "placeholder href")
		} else {
			add(weightRealHref, "href target")
		}
	}
	if a.hasAny(dataActionAttrs...) {
		add(weightDataAction, "data-* action hint")
	}
	if t.name == "button" {
		add(weightButtonElement, "button element")
	}
	if t.name == "input" {
		switch a.lower("type") {
		case "button", "submit", "image", "reset":
			add(weightInputButton, "input button type")
		}
	}
	if a.lower("role") == "button" {
		add(weightRoleButton, "role=button")
	}
	if a.has("tabindex") {
		add(weightTabindex, "tabindex")
	}
	if containsAny(identity, stateChangeVerbs) {
		add(weightStateVerb, "state-change verb")
	}

	return score
}

// scoreRisk scores privileged vocabulary in the identifying attributes
func scoreRisk(identity string, reasons *[]string) int {
	score := confidenceBase

	hits := 0
	for _, k := range riskKeywords {
		if strings.Contains(identity, k) {
			hits++
		}
	}
	if hits > 0 {
		bonus := hits * weightRiskKeyword
		if bonus > maxRiskKeywordBonus {
			bonus = maxRiskKeywordBonus
		}
		score += bonus
		*reasons = append(*reasons, "risky keyword(s)")
	}

	if containsAny(identity, widgetIDIdioms) {
		score += weightWidgetIDIdioms
		*reasons = append(*reasons, "generated widget id")
	}

	return score
}

// identityText joins the lower-cased identifying attribute values
func identityText(a attrList) string {
	parts := make([]string, 0, len(identityAttrs))
	for _, name := range identityAttrs {
		if v := a.lower(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// hasFormAssociation covers formaction/formmethod/form on controls and
// action/method on the form element itself
func hasFormAssociation(t tag) bool {
	if t.attrs.hasAny("formaction", "formmethod", "form") {
		return true
	}
	return t.name == "form" && t.attrs.hasAny("action", "method")
}

// isSubmit is true for explicit type=submit and for a <button> with no type,
// which submits its form by default
func isSubmit(t tag) bool {
	if t.attrs.lower("type") == "submit" {
		return true
	}
	return t.name == "button" && !t.attrs.has("type")
}

// isWeakHref reports placeholder targets that navigate nowhere by themselves
func isWeakHref(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	return h == "" || strings.HasPrefix(h, "#") || strings.HasPrefix(h, "javascript:")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
