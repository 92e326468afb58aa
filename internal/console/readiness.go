package console

import "regexp"

// genericPromptMinLen guards the bare ">>" signature against short transient output.
const genericPromptMinLen = 10

var (
	numberedPromptRe = regexp.MustCompile(`[\w.-]+\([^)\n]*\):\d+(?::\d+)?[*"'?]?>`)
	genericPromptRe  = regexp.MustCompile(`>>`)
)

// DefaultReadinessMatchers returns the built-in "session is ready" signatures.
func DefaultReadinessMatchers() []PatternMatcher {
	return []PatternMatcher{
		SubstringMatcher{Label: "environment-banner", Words: []string{"Loading", "environment"}},
		RegexMatcher{Label: "numbered-prompt", Re: numberedPromptRe},
		RegexMatcher{Label: "generic-prompt", Re: genericPromptRe, MinLen: genericPromptMinLen},
	}
}

// ReadinessDetector reports whether the buffered boot output shows a ready shell.
type ReadinessDetector struct {
	matchers []PatternMatcher
}

// NewReadinessDetector creates a detector with the built-in signatures
// followed by any extra matchers.
func NewReadinessDetector(extra ...PatternMatcher) *ReadinessDetector {
	return &ReadinessDetector{
		matchers: append(DefaultReadinessMatchers(), extra...),
	}
}

// Ready returns the name of the first matching signature.
func (d *ReadinessDetector) Ready(text string) (string, bool) {
	for _, m := range d.matchers {
		if m.Match(text) {
			return m.Name(), true
		}
	}
	return "", false
}
