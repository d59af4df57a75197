package analyzer

// maxControlFindings bounds hidden/disabled findings per page
const maxControlFindings = 500

// interactiveInputTypes are the <input> subtypes treated as controls
var interactiveInputTypes = map[string]bool{
	"":         true,
	"submit":   true,
	"button":   true,
	"image":    true,
	"password": true,
	"reset":    true,
}

// controlCandidate is a hidden and/or disabled control with its scores
type controlCandidate struct {
	tag     tag
	vis     visibility
	signals ControlSignals
}

// ControlDetector finds client-side hidden or disabled controls that look actionable
type ControlDetector struct{}

// NewControlDetector creates a new hidden/disabled control detector
func NewControlDetector() *ControlDetector {
	return &ControlDetector{}
}

// Detect walks the tags collected outside script/style bodies
func (d *ControlDetector) Detect(p *page) []controlCandidate {
	var out []controlCandidate
	for _, t := range p.tags {
		if len(out) >= maxControlFindings {
			break
		}

		vis := classifyVisibility(t.attrs)
		if !vis.hidden && !vis.disabled {
			continue
		}
		if t.name == "input" && !interactiveInputTypes[t.attrs.lower("type")] {
			continue
		}

		sig := scoreControl(t, vis)
		if !sig.Actionable && (t.name == "div" || t.name == "span") {
			continue
		}
		out = append(out, controlCandidate{tag: t, vis: vis, signals: sig})
	}
	return out
}
