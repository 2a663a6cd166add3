package tokenizer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const corpus = `The tokenizer reads raw bytes and learns which neighbouring pairs show up
most often. Each round it merges the winning pair into a brand new token,
rewrites the text, and counts again. After enough rounds common words become
single tokens while rare words stay split into smaller pieces. Numbers like
2024 or 31415 are chopped into groups of at most three digits first.
`

func newTokenizer(t testing.TB, pattern string) *Tokenizer {
	t.Helper()
	tok, err := New(pattern)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestTrainToyExample(t *testing.T) {
	tok := newTokenizer(t, `.+`)

	ambiguous, err := tok.Train("aaabdaaabac", 259)
	if err != nil {
		t.Fatal(err)
	}

	// (256, 97) and (97, 98) are both seen twice in the second round
	if !ambiguous {
		t.Error("expected ambiguous training")
	}

	want := []Merge{
		{Pair{97, 97}, 256},
		{Pair{256, 97}, 257},
		{Pair{257, 98}, 258},
	}
	if diff := cmp.Diff(want, tok.Merges()); diff != "" {
		t.Errorf("Merges() mismatch (-want +got):\n%s", diff)
	}

	ids, err := tok.EncodeOrdinary("aaabdaaabac")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]int{258, 100, 258, 97, 99}, ids); diff != "" {
		t.Errorf("EncodeOrdinary() mismatch (-want +got):\n%s", diff)
	}

	vocab := tok.Vocabulary()
	if got := string(vocab[258]); got != "aaab" {
		t.Errorf("vocab[258] = %q, want %q", got, "aaab")
	}
}

func TestTrainAmbiguity(t *testing.T) {
	cases := []struct {
		name      string
		pattern   string
		text      string
		vocabSize int
		want      bool
	}{
		{"single candidate", `.+`, "aaaa", 258, false},
		{"distinct words", "", "ab cd", 257, true},
		{"no merges", "", "anything at all", 256, false},
		{"clear winner", `.+`, "ababab", 257, false},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tok := newTokenizer(t, tt.pattern)
			got, err := tok.Train(tt.text, tt.vocabSize)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("Train() ambiguous = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrainPrefersFirstSeenPair(t *testing.T) {
	tok := newTokenizer(t, `.+`)
	if _, err := tok.Train("cd ab", 257); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]Merge{{Pair{'c', 'd'}, 256}}, tok.Merges()); diff != "" {
		t.Errorf("Merges() mismatch (-want +got):\n%s", diff)
	}
}

func TestTrainKeepsMergingSingletons(t *testing.T) {
	tok := newTokenizer(t, `.+`)
	ambiguous, err := tok.Train("abcdef", 261)
	if err != nil {
		t.Fatal(err)
	}

	if !ambiguous {
		t.Error("expected ambiguous training")
	}

	ids, err := tok.EncodeOrdinary("abcdef")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]int{260}, ids); diff != "" {
		t.Errorf("EncodeOrdinary() mismatch (-want +got):\n%s", diff)
	}
}

func TestTrainMergeTable(t *testing.T) {
	tok := newTokenizer(t, "")
	const vocabSize = 256 + 40
	if _, err := tok.Train(corpus, vocabSize); err != nil {
		t.Fatal(err)
	}

	merges := tok.Merges()
	if len(merges) != vocabSize-256 {
		t.Fatalf("len(Merges()) = %d, want %d", len(merges), vocabSize-256)
	}

	vocab := tok.Vocabulary()
	if len(vocab) != vocabSize {
		t.Errorf("len(Vocabulary()) = %d, want %d", len(vocab), vocabSize)
	}

	for i := range 256 {
		if !bytes.Equal(vocab[i], []byte{byte(i)}) {
			t.Errorf("vocab[%d] = %v, want single byte", i, vocab[i])
		}
	}

	seen := make(map[Pair]bool)
	for i, m := range merges {
		if m.ID != 256+i {
			t.Errorf("merge %d has id %d, want %d", i, m.ID, 256+i)
		}

		if m.Pair.A >= m.ID || m.Pair.B >= m.ID {
			t.Errorf("merge %v refers to a later id", m)
		}

		if seen[m.Pair] {
			t.Errorf("pair %v merged twice", m.Pair)
		}
		seen[m.Pair] = true

		if want := append(bytes.Clone(vocab[m.Pair.A]), vocab[m.Pair.B]...); !bytes.Equal(vocab[m.ID], want) {
			t.Errorf("vocab[%d] = %q, want %q", m.ID, vocab[m.ID], want)
		}
	}
}

func TestTrainNoMerges(t *testing.T) {
	tok := newTokenizer(t, "")
	ambiguous, err := tok.Train("", 256)
	if err != nil {
		t.Fatal(err)
	}

	if ambiguous {
		t.Error("expected unambiguous training")
	}

	if n := len(tok.Merges()); n != 0 {
		t.Errorf("len(Merges()) = %d, want 0", n)
	}

	if n := tok.VocabSize(); n != 256 {
		t.Errorf("VocabSize() = %d, want 256", n)
	}
}

func TestTrainErrors(t *testing.T) {
	cases := []struct {
		name      string
		pattern   string
		special   map[string]int
		text      string
		vocabSize int
		want      error
	}{
		{"vocabulary too small", "", nil, "hello", 255, ErrInvalidVocabularySize},
		{"negative vocabulary", "", nil, "hello", -1, ErrInvalidVocabularySize},
		{"invalid utf-8", "", nil, "hel\xc0lo", 260, ErrInvalidUTF8},
		{"runs out of pairs", `.+`, nil, "ab", 258, ErrInsufficientPairs},
		{"every chunk a single byte", `.`, nil, "hello", 257, ErrInsufficientPairs},
		{"special token inside vocabulary", "", map[string]int{"<|endoftext|>": 300}, corpus, 301, ErrSpecialTokenConflict},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			tok := newTokenizer(t, tt.pattern)
			if err := tok.RegisterSpecialTokens(tt.special); err != nil {
				t.Fatal(err)
			}

			if _, err := tok.Train(tt.text, tt.vocabSize); !errors.Is(err, tt.want) {
				t.Errorf("Train() error = %v, want %v", err, tt.want)
			}

			if n := len(tok.Merges()); n != 0 {
				t.Errorf("failed Train left %d merges", n)
			}
		})
	}
}

func TestTrainFailureKeepsPreviousState(t *testing.T) {
	tok := newTokenizer(t, `.+`)
	if _, err := tok.Train("aaabdaaabac", 259); err != nil {
		t.Fatal(err)
	}

	before := tok.Merges()

	if _, err := tok.Train("aaabdaaabac", 100); !errors.Is(err, ErrInvalidVocabularySize) {
		t.Fatalf("Train() error = %v, want %v", err, ErrInvalidVocabularySize)
	}

	if _, err := tok.Train("ab", 300); !errors.Is(err, ErrInsufficientPairs) {
		t.Fatalf("Train() error = %v, want %v", err, ErrInsufficientPairs)
	}

	if diff := cmp.Diff(before, tok.Merges()); diff != "" {
		t.Errorf("Merges() changed after failed Train (-want +got):\n%s", diff)
	}
}

func TestTrainSpecialTokenAboveVocabulary(t *testing.T) {
	tok := newTokenizer(t, "")
	if err := tok.RegisterSpecialTokens(map[string]int{"<|endoftext|>": 300}); err != nil {
		t.Fatal(err)
	}

	if _, err := tok.Train(corpus, 300); err != nil {
		t.Fatal(err)
	}

	vocab := tok.Vocabulary()
	if got := string(vocab[300]); got != "<|endoftext|>" {
		t.Errorf("vocab[300] = %q, want %q", got, "<|endoftext|>")
	}

	if n := tok.VocabSize(); n != 301 {
		t.Errorf("VocabSize() = %d, want 301", n)
	}
}

func TestTrainCanceled(t *testing.T) {
	tok := newTokenizer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tok.TrainContext(ctx, corpus, 300); !errors.Is(err, context.Canceled) {
		t.Errorf("TrainContext() error = %v, want %v", err, context.Canceled)
	}

	if n := len(tok.Merges()); n != 0 {
		t.Errorf("canceled Train left %d merges", n)
	}
}

func TestTrainCanceledMidway(t *testing.T) {
	tok := newTokenizer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := tok.TrainContext(ctx, corpus, 300, WithObserver(func(e MergeEvent) {
		if e.Index == 5 {
			cancel()
		}
	}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("TrainContext() error = %v, want %v", err, context.Canceled)
	}

	if n := len(tok.Merges()); n != 0 {
		t.Errorf("canceled Train left %d merges", n)
	}
}

func TestTrainObserver(t *testing.T) {
	tok := newTokenizer(t, `.+`)

	var events []MergeEvent
	if _, err := tok.Train("aaabdaaabac", 259, WithObserver(func(e MergeEvent) {
		events = append(events, e)
	})); err != nil {
		t.Fatal(err)
	}

	want := []MergeEvent{
		{Index: 1, Total: 3, Pair: Pair{97, 97}, ID: 256, Count: 4},
		{Index: 2, Total: 3, Pair: Pair{256, 97}, ID: 257, Count: 2, Ambiguous: true},
		{Index: 3, Total: 3, Pair: Pair{257, 98}, ID: 258, Count: 2},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestTrainVerbose(t *testing.T) {
	var buf bytes.Buffer
	defer slog.SetDefault(slog.Default())
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	tok := newTokenizer(t, `.+`)
	if _, err := tok.Train("aaabdaaabac", 259, WithVerbose(true)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if n := strings.Count(out, "msg=merge"); n != 3 {
		t.Errorf("logged %d merges, want 3:\n%s", n, out)
	}

	// ambiguity is reported through the return value only
	if strings.Contains(out, "level=WARN") {
		t.Errorf("unexpected warning:\n%s", out)
	}
}

func BenchmarkTrain(b *testing.B) {
	text := strings.Repeat(corpus, 20)
	for range b.N {
		tok := newTokenizer(b, "")
		if _, err := tok.Train(text, 256+64); err != nil {
			b.Fatal(err)
		}
	}
}
