// Package hint helps a tester locate a finding's element in a live browser.
package hint

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/olegrjumin/sideeye/internal/analyzer"
)

// maxInnerText bounds InnerText and the fallback search term
const maxInnerText = 80

// Result is everything needed to find and reveal one element
type Result struct {
	BestSelector  string   `json:"best_selector"`
	Hints         []string `json:"hints"`
	RevealSnippet string   `json:"reveal_snippet"`
	Matches       *int     `json:"matches,omitempty"` // set when verified against a page
}

// identity holds the attributes used to build selectors
type identity struct {
	id, testID, name, ariaLabel, typ, value, href, src, action string
}

func readIdentity(evidence string) identity {
	get := func(name string) string {
		return strings.TrimSpace(analyzer.ExtractAttr(evidence, name))
	}
	return identity{
		id:        get("id"),
		testID:    get("data-testid"),
		name:      get("name"),
		ariaLabel: get("aria-label"),
		typ:       get("type"),
		value:     get("value"),
		href:      get("href"),
		src:       get("src"),
		action:    get("action"),
	}
}

// selector picks the most specific CSS selector available
func (a identity) selector() string {
	switch {
	case a.id != "":
		return `[id="` + cssEscape(a.id) + `"]`
	case a.testID != "":
		return `[data-testid="` + cssEscape(a.testID) + `"]`
	case a.name != "":
		return `[name="` + cssEscape(a.name) + `"]`
	case a.ariaLabel != "":
		return `[aria-label="` + cssEscape(a.ariaLabel) + `"]`
	case a.typ != "":
		if a.value != "" {
			return `input[type="` + cssEscape(a.typ) + `"][value="` + cssEscape(a.value) + `"]`
		}
		return `button[type="` + cssEscape(a.typ) + `"],input[type="` + cssEscape(a.typ) + `"]`
	case a.href != "":
		return `a[href="` + cssEscape(a.href) + `"]`
	case a.src != "":
		return `[src="` + cssEscape(a.src) + `"]`
	case a.action != "":
		return `form[action="` + cssEscape(a.action) + `"]`
	}
	return ""
}

// Build derives a selector, human hints and a reveal snippet from evidence
func Build(evidence string) Result {
	a := readIdentity(evidence)
	text := InnerText(evidence)
	sel := a.selector()

	var hints []string
	if sel != "" {
		q := jsString(sel)
		hints = append(hints,
			"Console (Chrome/Firefox): inspect(document.querySelector("+q+"))",
			"Console (Chrome/Firefox): document.querySelector("+q+")?.scrollIntoView({block:'center'})",
			"Elements/Inspector search (Chrome/Firefox): "+sel,
		)
	}
	for _, attr := range []struct{ name, val string }{
		{"id", a.id},
		{"data-testid", a.testID},
		{"name", a.name},
		{"aria-label", a.ariaLabel},
		{"href", a.href},
	} {
		if attr.val != "" {
			hints = append(hints, "Inspector text: "+attr.name+`="`+attr.val+`"`)
		}
	}
	if text != "" {
		hints = append(hints, "Inspector text: "+text)
	}
	if term := SearchTerm(evidence); term != "" {
		hints = append(hints, "Search term (markup): "+term)
	}
	if len(hints) == 0 {
		hints = append(hints, "Search term (markup): "+strings.Join(strings.Fields(evidence), " "))
	}

	return Result{
		BestSelector:  sel,
		Hints:         hints,
		RevealSnippet: revealSnippet(sel, a, text),
	}
}

// SearchTerm returns the most distinctive string to search the markup for
func SearchTerm(evidence string) string {
	a := readIdentity(evidence)
	switch {
	case a.testID != "":
		return `data-testid="` + a.testID + `"`
	case a.href != "":
		return `href="` + a.href + `"`
	case a.src != "":
		return `src="` + a.src + `"`
	case a.action != "":
		return `action="` + a.action + `"`
	}
	return truncate(strings.Join(strings.Fields(evidence), " "), maxInnerText)
}

// InnerText returns the whitespace-collapsed text content of evidence markup
func InnerText(evidence string) string {
	if strings.TrimSpace(evidence) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(evidence))
	if err != nil {
		return ""
	}
	return truncate(strings.Join(strings.Fields(doc.Text()), " "), maxInnerText)
}

// Verify counts the elements of page that selector resolves to
func Verify(page, selector string) (int, error) {
	if strings.TrimSpace(selector) == "" {
		return 0, fmt.Errorf("empty selector")
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return 0, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return 0, fmt.Errorf("parse page: %w", err)
	}
	return doc.FindMatcher(sel).Length(), nil
}

func revealSnippet(sel string, a identity, text string) string {
	fallbackText := jsSingleQuoteEscape(text)
	fallbackType := jsSingleQuoteEscape(a.typ)
	fallbackTestID := jsSingleQuoteEscape(a.testID)

	var b strings.Builder
	if sel != "" {
		b.WriteString("let el = document.querySelector(" + jsString(sel) + ");\n")
	} else {
		b.WriteString("let el = null;\n")
	}
	b.WriteString("if (!el && '" + fallbackTestID + "') el = document.querySelector('[data-testid=\"" + jsSingleQuoteEscape(cssEscape(a.testID)) + "\"]');\n")
	b.WriteString("if (!el && '" + fallbackText + "') {\n")
	b.WriteString("  const want = '" + fallbackText + "'.toLowerCase();\n")
	b.WriteString("  el = [...document.querySelectorAll('button,a,input,[role=\"button\"]')].find(n => ((n.innerText||n.textContent||n.value||'').trim().toLowerCase() === want));\n")
	b.WriteString("}\n")
	b.WriteString("if (!el && '" + fallbackType + "') {\n")
	t := jsSingleQuoteEscape(cssEscape(a.typ))
	b.WriteString("  el = document.querySelector('input[type=\"" + t + "\"],button[type=\"" + t + "\"]');\n")
	b.WriteString("}\n")
	b.WriteString(`if (el) {
  el.hidden = false;
  el.removeAttribute('hidden');
  el.removeAttribute('aria-hidden');
  el.removeAttribute('aria-disabled');
  if ('disabled' in el) el.disabled = false;
  el.removeAttribute('disabled');
  if (el.classList) {
    el.classList.remove('pf-m-disabled','is-disabled','btn-disabled','disabled','hidden','d-none');
  }
  el.style.display = '';
  el.style.visibility = 'visible';
  el.style.opacity = '1';
  el.style.pointerEvents = 'auto';
  el.style.filter = '';
  el.scrollIntoView({block:'center'});
  console.log('[sideeye] reveal target:', el);
} else {
  console.log('[sideeye] reveal target not found. Try Elements search with data-testid/text hints.');
}
`)
	return b.String()
}

// cssEscape escapes a value for a double-quoted CSS attribute selector
func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// jsString quotes s as a double-quoted JavaScript string literal
func jsString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`).Replace(s) + `"`
}

func jsSingleQuoteEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`).Replace(s)
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
