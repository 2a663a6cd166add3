package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultPattern is the GPT-4 pretokenizer. regexp2 has no possessive
// quantifiers so they are written as atomic groups.
//
// Alternatives, first match wins:
//   - '(?i:[sdmt]|ll|ve|re): contraction suffixes, case-insensitive
//   - (?>[^\r\n\p{L}\p{N}]?)\p{L}+: letters, optionally led by one non-letter, non-digit, non-newline
//   - \p{N}{1,3}: up to three digits
//   - ' ?(?>[^\s\p{L}\p{N}]+)[\r\n]*': punctuation and symbols with trailing newlines
//   - \s*[\r\n]: a newline with any whitespace before it
//   - \s+(?!\S): whitespace not followed by a non-space
//   - \s+: any other whitespace
const DefaultPattern = `'(?i:[sdmt]|ll|ve|re)|(?>[^\r\n\p{L}\p{N}]?)\p{L}+|\p{N}{1,3}| ?(?>[^\s\p{L}\p{N}]+)[\r\n]*|\s*[\r\n]|\s+(?!\S)|\s+`

// Splitter chops text into chunks before byte-level processing.
type Splitter struct {
	pattern string
	re      *regexp2.Regexp
}

// NewSplitter compiles pattern. An empty pattern selects DefaultPattern.
func NewSplitter(pattern string) (*Splitter, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile split pattern: %w", err)
	}

	return &Splitter{pattern: pattern, re: re}, nil
}

func (s *Splitter) Pattern() string {
	return s.pattern
}

// Split returns the chunks of text in order. Matching runs over runes so a
// multi-byte character always lands in exactly one chunk. Any text the
// pattern does not match is kept as a chunk of its own, which makes the
// concatenation of the result equal to text.
func (s *Splitter) Split(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}

	r := []rune(text)
	var chunks []string
	var offset int
	m, err := s.re.FindRunesMatch(r)
	for ; m != nil; m, err = s.re.FindNextMatch(m) {
		if m.Length == 0 {
			continue
		}

		if m.Index > offset {
			chunks = append(chunks, string(r[offset:m.Index]))
		}

		chunks = append(chunks, m.String())
		offset = m.Index + m.Length
	}

	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	if offset < len(r) {
		chunks = append(chunks, string(r[offset:]))
	}

	return chunks, nil
}
