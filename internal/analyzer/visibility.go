package analyzer

import (
	"strconv"
	"strings"
)

// hiddenClasses hide an element for everyone
var hiddenClasses = []string{"hidden", "d-none"}

// disabledClasses are matched as exact class tokens
var disabledClasses = []string{"disabled", "pf-m-disabled", "is-disabled", "btn-disabled"}

// visibility is the client-side state of one tag
type visibility struct {
	hidden   bool
	disabled bool
	signals  []string // which attributes produced the state
}

// state names the detected state for titles and summaries
func (v visibility) state() string {
	switch {
	case v.hidden && v.disabled:
		return "hidden & disabled"
	case v.hidden:
		return "hidden"
	case v.disabled:
		return "disabled"
	}
	return ""
}

// classifyVisibility decides whether a tag is hidden and/or disabled from its
// attributes, ARIA flags, inline style and class tokens. Accessibility classes
// such as sr-only are not in hiddenClasses, so they never count as hidden.
func classifyVisibility(attrs attrList) visibility {
	var v visibility
	classes := strings.Fields(strings.ToLower(attrs.get("class")))

	if attrs.has("hidden") {
		v.hidden = true
		v.signals = append(v.signals, "hidden attribute")
	}
	if prop := hiddenStyle(attrs.get("style")); prop != "" {
		v.hidden = true
		v.signals = append(v.signals, "inline "+prop)
	}
	if c := firstToken(classes, hiddenClasses); c != "" {
		v.hidden = true
		v.signals = append(v.signals, "class "+c)
	}
	if attrs.has("disabled") {
		v.disabled = true
		v.signals = append(v.signals, "disabled attribute")
	}
	if attrs.lower("aria-disabled") == "true" {
		v.disabled = true
		v.signals = append(v.signals, "aria-disabled")
	}
	if c := firstToken(classes, disabledClasses); c != "" {
		v.disabled = true
		v.signals = append(v.signals, "class "+c)
	}

	return v
}

// hiddenStyle returns the style property that hides the element, or ""
func hiddenStyle(style string) string {
	if style == "" {
		return ""
	}
	for _, decl := range strings.Split(strings.ToLower(style), ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		val = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important"))
		switch prop {
		case "display":
			if val == "none" {
				return "display:none"
			}
		case "visibility":
			if val == "hidden" {
				return "visibility:hidden"
			}
		case "opacity":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f == 0 {
				return "opacity:0"
			}
		}
	}
	return ""
}

// firstToken returns the first of wanted present in tokens
func firstToken(tokens []string, wanted []string) string {
	for _, w := range wanted {
		for _, t := range tokens {
			if t == w {
				return w
			}
		}
	}
	return ""
}
