package console

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// PatternMatcher is a single try-match capability. Readiness signatures and
// prompt shapes are kept as ordered lists of matchers so new shell flavors
// can be added without touching control flow.
type PatternMatcher interface {
	Name() string
	Match(text string) bool
}

// RegexMatcher matches text against a compiled expression once the text is
// longer than MinLen characters.
type RegexMatcher struct {
	Label  string
	Re     *regexp.Regexp
	MinLen int
}

func (m RegexMatcher) Name() string { return m.Label }

func (m RegexMatcher) Match(text string) bool {
	if m.MinLen > 0 && len([]rune(text)) <= m.MinLen {
		return false
	}
	return m.Re.MatchString(text)
}

// SubstringMatcher matches when every word appears in the text.
type SubstringMatcher struct {
	Label string
	Words []string
}

func (m SubstringMatcher) Name() string { return m.Label }

func (m SubstringMatcher) Match(text string) bool {
	for _, w := range m.Words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return len(m.Words) > 0
}

// controlOnlyMatcher matches a non-empty line made only of control characters.
type controlOnlyMatcher struct{}

func (controlOnlyMatcher) Name() string { return "control-only" }

func (controlOnlyMatcher) Match(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if !unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// CompileMatchers builds regex matchers from user supplied expressions.
func CompileMatchers(prefix string, exprs []string) ([]PatternMatcher, error) {
	matchers := make([]PatternMatcher, 0, len(exprs))
	for i, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", prefix, expr, err)
		}
		matchers = append(matchers, RegexMatcher{
			Label: fmt.Sprintf("%s-%d", prefix, i),
			Re:    re,
		})
	}
	return matchers, nil
}
