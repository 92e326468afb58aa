package console

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// KnownErrorClasses lists the interpreter error classes recognized by name
// when no structured location line is present.
var KnownErrorClasses = []string{
	"NameError",
	"NoMethodError",
	"ArgumentError",
	"TypeError",
	"ZeroDivisionError",
	"RuntimeError",
	"StandardError",
	"SyntaxError",
	"LoadError",
	"KeyError",
	"IndexError",
	"FrozenError",
	"RangeError",
	"NotImplementedError",
	"ActiveRecord::RecordNotFound",
	"ActiveRecord::RecordInvalid",
	"ActiveRecord::StatementInvalid",
	"ActiveModel::UnknownAttributeError",
	"PG::Error",
	"Mysql2::Error",
	"SQLite3::Exception",
}

var (
	// (<Class>):<line>:in '<method>': <message> (<ErrorKind>)
	structuredErrRe = regexp.MustCompile("\\(([^()\\n]+)\\):(\\d+):in [`'‘]([^'’\\n]+)['’]: (.+?)(?: \\(([\\w:]+)\\))?\\s*$")

	fromPrefixRe = regexp.MustCompile(`^\s+from\s`)
	fromWordRe   = regexp.MustCompile(`\bfrom\b`)

	errorSignals = []*regexp.Regexp{
		regexp.MustCompile(`(?m)\b[A-Z]\w*(?:::[A-Z]\w*)*(?:Error|Exception)\b:\s`),
		regexp.MustCompile(`(?m)\([A-Z]\w*(?:::[A-Z]\w*)*(?:Error|Exception)\)\s*$`),
		regexp.MustCompile(`\(irb\):\d+:in\b`),
		regexp.MustCompile(`(?m)^\s*Traceback \(most recent call last\)`),
	}
)

// Location is the source position reported by the interpreter.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// ParsedError is an interpreter error report recovered from output text.
type ParsedError struct {
	Category string    `json:"category"`
	Message  string    `json:"message"`
	Location *Location `json:"location,omitempty"`
	Method   string    `json:"method,omitempty"`
	Stack    []string  `json:"stack,omitempty"`
}

// ErrorExtractor recognizes interpreter error reports in normalized output.
type ErrorExtractor struct {
	knownRe *regexp.Regexp
}

// NewErrorExtractor creates an extractor for KnownErrorClasses plus extra.
func NewErrorExtractor(extra ...string) *ErrorExtractor {
	classes := append(append([]string{}, KnownErrorClasses...), extra...)
	// Longest first so namespaced classes win over their suffixes.
	sort.SliceStable(classes, func(i, j int) bool { return len(classes[i]) > len(classes[j]) })

	quoted := make([]string, 0, len(classes))
	for _, c := range classes {
		quoted = append(quoted, regexp.QuoteMeta(c))
	}
	return &ErrorExtractor{
		knownRe: regexp.MustCompile(`(?:^|[^\w:])(` + strings.Join(quoted, "|") + `):\s*(.+)$`),
	}
}

// HasErrorPattern reports whether text looks like an interpreter failure.
// It decides the success flag and is independent of Extract, which only
// drives formatting.
func (x *ErrorExtractor) HasErrorPattern(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if structuredErrRe.MatchString(line) || x.knownRe.MatchString(line) {
			return true
		}
	}
	for _, re := range errorSignals {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Extract finds the first structured or known-class error report in text.
func (x *ErrorExtractor) Extract(text string) (*ParsedError, bool) {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		m := structuredErrRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		pe := &ParsedError{
			Category: firstNonEmpty(m[5], m[1], "Error"),
			Message:  strings.TrimSpace(m[4]),
			Location: &Location{File: m[1], Line: lineNo},
			Method:   m[3],
			Stack:    collectStack(lines[i+1:]),
		}
		return pe, true
	}

	for i, line := range lines {
		m := x.knownRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return &ParsedError{
			Category: firstNonEmpty(m[1], "Error"),
			Message:  strings.TrimSpace(m[2]),
			Stack:    collectStack(lines[i+1:]),
		}, true
	}

	return nil, false
}

// collectStack gathers the "from ..." frames following an error line. The
// block ends at the first line that is neither a from line nor an indented,
// non-parenthesized continuation of one.
func collectStack(lines []string) []string {
	var frames []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case fromPrefixRe.MatchString(line), strings.HasPrefix(trimmed, "from "):
			frames = append(frames, strings.TrimSpace(strings.TrimPrefix(trimmed, "from")))
		case len(frames) > 0 && fromWordRe.MatchString(trimmed):
			frames = append(frames, trimmed)
		case len(frames) > 0 && trimmed != "" && isIndented(line) && !strings.HasPrefix(trimmed, "("):
			frames = append(frames, trimmed)
		default:
			return frames
		}
	}
	return frames
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Format renders a human-readable summary of pe.
func Format(pe *ParsedError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", errorIcon(pe.Category), pe.Category)
	fmt.Fprintf(&b, "Message: %s", pe.Message)
	if pe.Location != nil {
		fmt.Fprintf(&b, "\nLocation: %s:%d", pe.Location.File, pe.Location.Line)
		if pe.Method != "" {
			fmt.Fprintf(&b, " in '%s'", pe.Method)
		}
	}
	if len(pe.Stack) > 0 {
		b.WriteString("\nStack Trace:")
		for _, frame := range pe.Stack {
			b.WriteString("\n  ")
			b.WriteString(frame)
		}
	}
	return b.String()
}

func errorIcon(category string) string {
	switch {
	case strings.HasPrefix(category, "ActiveRecord::"),
		strings.HasPrefix(category, "PG::"),
		strings.HasPrefix(category, "Mysql2::"),
		strings.HasPrefix(category, "SQLite3::"):
		return "🗄️"
	case category == "SyntaxError":
		return "📝"
	default:
		return "❌"
	}
}
