// Package modelfile persists trained tokenizers.
//
// The text format is line oriented:
//
//	nana v1
//	<split pattern>
//	<number of special tokens>
//	<id> <quoted literal>     one line per special token
//	<left> <right>            one line per merge, in id order
//
// Merge ids are implied by line order, starting at 256.
package modelfile

import (
	"bufio"
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nana-tokenizers/nana/tokenizer"
)

const header = "nana v1"

var ErrFormat = errors.New("malformed model file")

// Write encodes tok in the text format.
func Write(w io.Writer, tok *tokenizer.Tokenizer) error {
	pattern := tok.Pattern()
	if strings.ContainsAny(pattern, "\r\n") {
		return fmt.Errorf("%w: pattern contains a raw line break", ErrFormat)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, header)
	fmt.Fprintln(bw, pattern)

	special := tok.SpecialTokens()
	fmt.Fprintln(bw, len(special))
	for _, s := range sortedSpecial(special) {
		fmt.Fprintf(bw, "%d %s\n", special[s], strconv.Quote(s))
	}

	for _, m := range tok.Merges() {
		fmt.Fprintf(bw, "%d %d\n", m.Pair.A, m.Pair.B)
	}

	return bw.Flush()
}

// Read decodes a tokenizer written by Write.
func Read(r io.Reader) (*tokenizer.Tokenizer, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var line int
	next := func() (string, bool) {
		if !s.Scan() {
			return "", false
		}
		line++
		return s.Text(), true
	}

	if h, ok := next(); !ok || h != header {
		return nil, fmt.Errorf("%w: missing %q header", ErrFormat, header)
	}

	pattern, ok := next()
	if !ok {
		return nil, fmt.Errorf("%w: missing pattern", ErrFormat)
	}

	text, ok := next()
	if !ok {
		return nil, fmt.Errorf("%w: missing special token count", ErrFormat)
	}

	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: line %d: invalid special token count %q", ErrFormat, line, text)
	}

	special := make(map[string]int, n)
	for range n {
		text, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: expected %d special tokens", ErrFormat, n)
		}

		idText, literal, found := strings.Cut(text, " ")
		if !found {
			return nil, fmt.Errorf("%w: line %d: expected \"id literal\"", ErrFormat, line)
		}

		id, err := strconv.Atoi(idText)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrFormat, line, err)
		}

		s, err := strconv.Unquote(literal)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrFormat, line, err)
		}

		special[s] = id
	}

	var merges []tokenizer.Merge
	for text, ok := next(); ok; text, ok = next() {
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected two token ids", ErrFormat, line)
		}

		a, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrFormat, line, err)
		}

		b, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrFormat, line, err)
		}

		merges = append(merges, tokenizer.Merge{Pair: tokenizer.Pair{A: a, B: b}, ID: 256 + len(merges)})
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return tokenizer.Load(pattern, merges, special)
}

// Save writes tok to path, as CBOR when path ends in .cbor and in the
// text format otherwise.
func Save(path string, tok *tokenizer.Tokenizer) error {
	var data []byte
	if isCBOR(path) {
		b, err := MarshalCBOR(tok)
		if err != nil {
			return err
		}
		data = b
	} else {
		var buf bytes.Buffer
		if err := Write(&buf, tok); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	return os.WriteFile(path, data, 0o644)
}

// Open loads a tokenizer saved by Save.
func Open(path string) (*tokenizer.Tokenizer, error) {
	if isCBOR(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return UnmarshalCBOR(data)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tok, nil
}

func isCBOR(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cbor")
}

func sortedSpecial(special map[string]int) []string {
	return slices.SortedFunc(maps.Keys(special), func(a, b string) int {
		return cmp.Compare(special[a], special[b])
	})
}
