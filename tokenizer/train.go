package tokenizer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"

	"github.com/nana-tokenizers/nana/logutil"
)

// MergeEvent describes one completed training iteration.
type MergeEvent struct {
	// Index counts merges from 1 to Total.
	Index, Total int

	Pair  Pair
	ID    int
	Count int

	// Ambiguous is set when another pair shared Count this iteration.
	Ambiguous bool
}

type trainOptions struct {
	verbose  bool
	observer func(MergeEvent)
}

type TrainOption func(*trainOptions)

// WithVerbose logs every merge at info level.
func WithVerbose(verbose bool) TrainOption {
	return func(o *trainOptions) {
		o.verbose = verbose
	}
}

// WithObserver calls fn after every merge. fn runs while the tokenizer is
// locked and must not call back into it.
func WithObserver(fn func(MergeEvent)) TrainOption {
	return func(o *trainOptions) {
		o.observer = fn
	}
}

// Train learns vocabSize-256 merges from text and replaces the tokenizer's
// merge table and vocabulary. The returned flag reports whether any
// iteration had more than one pair at the maximum count; in that case the
// pair seen first in the text was merged, and another implementation
// choosing differently would learn a different table.
func (t *Tokenizer) Train(text string, vocabSize int, opts ...TrainOption) (bool, error) {
	return t.TrainContext(context.Background(), text, vocabSize, opts...)
}

// TrainContext is Train with cancellation checked between merges. The
// tokenizer is left unchanged when an error is returned.
func (t *Tokenizer) TrainContext(ctx context.Context, text string, vocabSize int, opts ...TrainOption) (bool, error) {
	if vocabSize < numBase {
		return false, fmt.Errorf("%w: got %d", ErrInvalidVocabularySize, vocabSize)
	}

	var o trainOptions
	for _, opt := range opts {
		opt(&o)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for s, id := range t.special {
		if id < vocabSize {
			return false, fmt.Errorf("%w: %q has id %d inside the requested vocabulary of %d", ErrSpecialTokenConflict, s, id, vocabSize)
		}
	}

	chunks, err := t.splitter.Split(text)
	if err != nil {
		return false, err
	}

	ids := make([][]int, len(chunks))
	for i, chunk := range chunks {
		ids[i] = bytesToIDs([]byte(chunk))
	}

	logutil.Trace("training", "chunks", len(chunks), "bytes", len(text), "vocab_size", vocabSize)

	numMerges := vocabSize - numBase
	merges := NewMergeTable()
	vocab := BuildVocabulary(nil, nil)
	var ambiguous bool
	for i := range numMerges {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		stats := NewStats()
		for _, chunk := range ids {
			CountPairs(chunk, stats)
		}

		pair, count, tie, ok := selectPair(stats)
		if !ok {
			return false, fmt.Errorf("%w: ran out of pairs after %d of %d merges", ErrInsufficientPairs, i, numMerges)
		}

		ambiguous = ambiguous || tie

		id := merges.NextID()
		for j, chunk := range ids {
			ids[j] = replacePair(chunk, pair, id)
		}

		if err := merges.Put(pair, id); err != nil {
			return false, err
		}
		vocab[id] = concat(vocab[pair.A], vocab[pair.B])

		if o.verbose {
			slog.Info("merge", "index", i+1, "total", numMerges, "pair", pair, "id", id, "token", fmt.Sprintf("%q", vocab[id]), "count", count, "tie", tie)
		}

		if o.observer != nil {
			o.observer(MergeEvent{
				Index:     i + 1,
				Total:     numMerges,
				Pair:      pair,
				ID:        id,
				Count:     count,
				Ambiguous: tie,
			})
		}
	}

	t.merges = merges
	t.vocab = BuildVocabulary(merges.Merges(), t.special)
	return ambiguous, nil
}

type rankedPair struct {
	pair  Pair
	count int
	seen  int
}

// selectPair returns the most frequent pair in stats, preferring the one
// seen first on equal counts, and whether that choice broke a tie.
func selectPair(stats *Stats) (pair Pair, count int, tie, ok bool) {
	pairs := heap.NewWith(func(a, b rankedPair) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.seen, b.seen)
	})

	var seen int
	for p, n := range stats.All() {
		pairs.Push(rankedPair{pair: p, count: n, seen: seen})
		seen++
	}

	best, ok := pairs.Pop()
	if !ok {
		return Pair{}, 0, false, false
	}

	next, more := pairs.Peek()
	return best.pair, best.count, more && next.count == best.count, true
}
