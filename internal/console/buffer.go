package console

import (
	"sync"
	"unicode/utf8"
)

const (
	DefaultMaxBuffer    = 1_000_000
	DefaultRetainBuffer = 500_000
)

// Buffer is a bounded append-only text accumulator.
// Sizes are counted in characters; truncation keeps the most recent suffix.
type Buffer struct {
	mu      sync.RWMutex
	data    []rune
	dropped int // characters discarded by truncation since the last Reset
	maxSize int
	retain  int
}

// NewBuffer creates a buffer that truncates to retainSize once it grows past maxSize.
func NewBuffer(maxSize, retainSize int) *Buffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxBuffer
	}
	if retainSize <= 0 || retainSize > maxSize {
		retainSize = min(DefaultRetainBuffer, maxSize)
	}
	return &Buffer{
		maxSize: maxSize,
		retain:  retainSize,
	}
}

// Append adds s to the buffer, applying the truncation policy.
func (b *Buffer) Append(s string) {
	if s == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, []rune(s)...)
	if len(b.data) > b.maxSize {
		cut := len(b.data) - b.retain
		b.data = append(make([]rune, 0, b.retain), b.data[cut:]...)
		b.dropped += cut
	}
}

// Len returns the number of characters currently held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Total returns the number of characters appended since the last Reset,
// including any that were truncated away. It only grows between resets,
// which makes it a stable offset for Since.
func (b *Buffer) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped + len(b.data)
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.data)
}

// Since returns the text appended after offset, where offset is a value
// previously returned by Total. If truncation already discarded part of that
// text, the retained remainder is returned.
func (b *Buffer) Since(offset int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := offset - b.dropped
	if start < 0 {
		start = 0
	}
	if start >= len(b.data) {
		return ""
	}
	return string(b.data[start:])
}

// Tail returns at most the last n characters.
func (b *Buffer) Tail(n int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n >= len(b.data) {
		return string(b.data)
	}
	return string(b.data[len(b.data)-n:])
}

// Reset discards all contents.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	b.dropped = 0
}

// splitUTF8 separates p into a prefix of complete UTF-8 sequences and a
// trailing incomplete sequence that should wait for the next read.
func splitUTF8(p []byte) (complete, rest []byte) {
	// An incomplete sequence is at most UTFMax-1 bytes long.
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if !utf8.FullRune(p[i:]) {
				return p[:i], p[i:]
			}
			break
		}
	}
	return p, nil
}
