package console

import (
	"regexp"
	"strings"
)

var (
	// CSI (incl. private modes), OSC, charset selection and single-character escapes.
	ansiRe = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)|\x1b[()*+][0-9A-Za-z]|\x1b[=>78DEHMNOZc]`)

	multiBlankRe = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

	contextPromptRe  = regexp.MustCompile(`^\s*[\w.-]+\([\w.:/-]*\)\s?[*"'?]?>\s*$`)
	numberedLinePrRe = regexp.MustCompile(`^\s*[\w.-]+\([^)]*\):\d+(?::\d+)?\s?[*"'?]?>?\s*$`)
	barePromptRe     = regexp.MustCompile(`^\s*[?*"']?>{1,2}\s*$`)
	namedPromptRe    = regexp.MustCompile(`^\s*[\w.-]+>\s*$`)
)

// DefaultPromptMatchers returns the prompt shapes dropped from output.
func DefaultPromptMatchers() []PatternMatcher {
	return []PatternMatcher{
		RegexMatcher{Label: "context-prompt", Re: contextPromptRe},
		RegexMatcher{Label: "numbered-prompt", Re: numberedLinePrRe},
		RegexMatcher{Label: "bare-prompt", Re: barePromptRe},
		RegexMatcher{Label: "named-prompt", Re: namedPromptRe},
		controlOnlyMatcher{},
	}
}

// Normalizer cleans captured terminal text.
type Normalizer struct {
	prompts []PatternMatcher
}

// NewNormalizer creates a normalizer with the built-in prompt shapes plus extra.
func NewNormalizer(extra ...PatternMatcher) *Normalizer {
	return &Normalizer{prompts: append(DefaultPromptMatchers(), extra...)}
}

var defaultNormalizer = NewNormalizer()

// Normalize cleans text with the built-in prompt shapes.
func Normalize(text string) string {
	return defaultNormalizer.Normalize(text)
}

// StripANSI removes terminal escape sequences. Removing one sequence can
// splice its neighbours into another, so it repeats until nothing changes
// and then drops any stray ESC bytes left over.
func StripANSI(s string) string {
	for {
		next := ansiRe.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	return strings.ReplaceAll(s, "\x1b", "")
}

func stripCarriageReturns(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "")
}

// Normalize strips escape sequences, drops prompt lines, collapses blank
// runs and trims the result. The steps are applied in that order.
// Normalizing already normalized text is a no-op.
func (n *Normalizer) Normalize(text string) string {
	s := stripCarriageReturns(StripANSI(text))

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if n.IsPrompt(line) {
			continue
		}
		kept = append(kept, line)
	}
	s = strings.Join(kept, "\n")

	s = multiBlankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// IsPrompt reports whether line is a pure prompt.
func (n *Normalizer) IsPrompt(line string) bool {
	for _, m := range n.prompts {
		if m.Match(line) {
			return true
		}
	}
	return false
}

// StripEcho removes the terminal's echo of command from text and any
// trailing prompt lines. Matching is by trimmed line content rather than
// exact bytes since wrapping and control codes can alter the echo.
func (n *Normalizer) StripEcho(text, command string) string {
	pending := make(map[string]int)
	for _, line := range strings.Split(command, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			pending[t]++
		}
	}

	lines := strings.Split(stripCarriageReturns(text), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		key := strings.TrimSpace(StripANSI(line))
		if pending[key] > 0 {
			pending[key]--
			continue
		}
		kept = append(kept, line)
	}

	for len(kept) > 0 {
		last := strings.TrimSpace(StripANSI(kept[len(kept)-1]))
		if last != "" && !n.IsPrompt(last) {
			break
		}
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, "\n")
}
