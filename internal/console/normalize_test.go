package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"color", "\x1b[31mred\x1b[0m", "red"},
		{"private mode", "\x1b[?2004hready\x1b[?2004l", "ready"},
		{"cursor", "\x1b[2K\x1b[1Gline", "line"},
		{"osc title", "\x1b]0;title\x07text", "text"},
		{"osc st", "\x1b]2;t\x1b\\text", "text"},
		{"charset", "\x1b(Bplain", "plain"},
		{"single char", "\x1b=keypad\x1b>", "keypad"},
		{"untouched", "no escapes", "no escapes"},
		{"nested", "\x1b\x1b[31m[0mhello", "hello"},
		{"stray esc", "a\x1bb", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips prompt lines",
			input: "=> 2\r\nirb(main):002:0> ",
			want:  "=> 2",
		},
		{
			name:  "context prompt",
			input: "app(dev)> \n=> nil\nmyapp(prod):003:0> ",
			want:  "=> nil",
		},
		{
			name:  "bare prompts",
			input: ">> \n=> 1\n?> \n>",
			want:  "=> 1",
		},
		{
			name:  "colored prompt",
			input: "\x1b[1m\x1b[32mirb(main):001:0>\x1b[0m \r\n=> [1, 2]",
			want:  "=> [1, 2]",
		},
		{
			name:  "collapses blank runs",
			input: "a\n\n\n\n\nb",
			want:  "a\n\nb",
		},
		{
			name:  "keeps single blank line",
			input: "a\n\nb",
			want:  "a\n\nb",
		},
		{
			name:  "control only line",
			input: "out\n\x07\x08\nmore",
			want:  "out\nmore",
		},
		{
			name:  "carriage returns",
			input: "line one\r\nline two\r",
			want:  "line one\nline two",
		},
		{
			name:  "comparison output survives",
			input: "=> 3 > 2",
			want:  "=> 3 > 2",
		},
		{
			name:  "empty",
			input: "   \r\n  ",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"\x1b[32m=> 2\x1b[0m\r\nirb(main):002:0> ",
		"a\n\n\n\nb\n\n\n",
		"  leading\n>>\n\ntrailing  \n",
		"NameError: undefined local variable\n\tfrom (irb):1\n",
		"\x1b\x1b[31m[0mhello",
		"\x1b\r[0mhello",
		"\x1b\x1b\x1b[1m[2m[0m=> 2",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizerExtraPrompt(t *testing.T) {
	matchers, err := CompileMatchers("prompt", []string{`^\[\d+\] pry\(\w+\)> ?$`})
	assert.NoError(t, err)

	n := NewNormalizer(matchers...)
	assert.Equal(t, "=> 1", n.Normalize("=> 1\n[1] pry(main)> "))
	assert.Equal(t, "=> 1\n[1] pry(main)>", Normalize("=> 1\n[1] pry(main)>"))
}

func TestStripEcho(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, "=> 2", n.StripEcho("1 + 1\r\n=> 2\r\nirb(main):002:0> ", "1 + 1"))

	// Only the first matching line is dropped per command line.
	assert.Equal(t, "x\n=> \"x\"", n.StripEcho("puts 'x'\nx\n=> \"x\"\n", "puts 'x'"))
	assert.Equal(t, "1\n=> nil", n.StripEcho("p 1\n1\n=> nil", "p 1"))
	assert.Equal(t, "p 1\n=> nil", n.StripEcho("p 1\np 1\n=> nil", "p 1"))

	script := "a = 1\nb = 2\na + b"
	out := "a = 1\r\n=> 1\r\nb = 2\r\n=> 2\r\na + b\r\n=> 3\r\n>> "
	assert.Equal(t, "=> 1\n=> 2\n=> 3", n.StripEcho(out, script))

	// Echo wrapped in escapes still matches.
	assert.Equal(t, "=> 2", n.StripEcho("\x1b[1m1 + 1\x1b[0m\n=> 2", "1 + 1"))
}

func TestIsPrompt(t *testing.T) {
	n := NewNormalizer()
	for _, p := range []string{"irb(main):001:0>", "irb(main):001:0* ", "app(dev)>", "myapp(production):012:0> ", ">>", ">", "?>", "pry>"} {
		assert.True(t, n.IsPrompt(p), p)
	}
	for _, p := range []string{"=> 1", "NameError: x", "", "a > b"} {
		assert.False(t, n.IsPrompt(p), p)
	}
}
