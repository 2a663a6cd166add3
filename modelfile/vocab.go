package modelfile

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nana-tokenizers/nana/tokenizer"
)

// WriteVocab writes a human readable listing of every token, one per line
// in id order. Merged tokens show the two tokens they were built from.
// The listing is lossy and cannot be read back.
func WriteVocab(w io.Writer, tok *tokenizer.Tokenizer) error {
	vocab := tok.Vocabulary()

	parents := make(map[int]tokenizer.Pair)
	for _, m := range tok.Merges() {
		parents[m.ID] = m.Pair
	}

	ids := make([]int, 0, len(vocab))
	for id := range vocab {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	bw := bufio.NewWriter(w)
	for _, id := range ids {
		s := RenderToken(vocab[id])
		if p, ok := parents[id]; ok {
			fmt.Fprintf(bw, "[%s][%s] -> [%s] %d\n", RenderToken(vocab[p.A]), RenderToken(vocab[p.B]), s, id)
			continue
		}

		fmt.Fprintf(bw, "[%s] %d\n", s, id)
	}

	return bw.Flush()
}

// RenderToken makes token bytes printable: invalid UTF-8 becomes U+FFFD
// and control or format characters are escaped as \uXXXX.
func RenderToken(b []byte) string {
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]

		if unicode.In(r, unicode.C) {
			fmt.Fprintf(&sb, "\\u%04x", r)
			continue
		}

		sb.WriteRune(r)
	}
	return sb.String()
}
