package tokenizer

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Tokenizer is a byte-level BPE tokenizer with a configurable pretokenizer.
//
// The merge table is the only learned state; the vocabulary is recomputed
// from it whenever merges or special tokens change. Train holds the write
// lock for its whole run, so it never overlaps with encoding or another
// Train on the same instance.
type Tokenizer struct {
	mu sync.RWMutex

	splitter *Splitter
	merges   *MergeTable
	vocab    Vocabulary

	special map[string]int
}

// New returns an untrained tokenizer that splits text with pattern, or
// with DefaultPattern when pattern is empty.
func New(pattern string) (*Tokenizer, error) {
	splitter, err := NewSplitter(pattern)
	if err != nil {
		return nil, err
	}

	return &Tokenizer{
		splitter: splitter,
		merges:   NewMergeTable(),
		vocab:    BuildVocabulary(nil, nil),
		special:  map[string]int{},
	}, nil
}

// Load rebuilds a trained tokenizer from a persisted merge table. merges
// may be given in any order but their ids must be dense from 256 and
// each pair may only refer to ids created before it.
func Load(pattern string, merges []Merge, special map[string]int) (*Tokenizer, error) {
	t, err := New(pattern)
	if err != nil {
		return nil, err
	}

	merges = slices.SortedFunc(slices.Values(merges), func(a, b Merge) int {
		return cmp.Compare(a.ID, b.ID)
	})

	for _, m := range merges {
		if err := t.merges.Put(m.Pair, m.ID); err != nil {
			return nil, err
		}
	}

	if err := t.RegisterSpecialTokens(special); err != nil {
		return nil, err
	}

	return t, nil
}

// RegisterSpecialTokens replaces the special tokens. Their ids must not
// collide with byte or merge ids, or with each other.
func (t *Tokenizer) RegisterSpecialTokens(special map[string]int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[int]string, len(special))
	for s, id := range special {
		if s == "" {
			return fmt.Errorf("%w: empty literal", ErrSpecialTokenConflict)
		}

		if id < t.merges.NextID() {
			return fmt.Errorf("%w: %q has id %d, below the first free id %d", ErrSpecialTokenConflict, s, id, t.merges.NextID())
		}

		if other, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q and %q share id %d", ErrSpecialTokenConflict, s, other, id)
		}

		seen[id] = s
	}

	t.special = maps.Clone(special)
	if t.special == nil {
		t.special = map[string]int{}
	}
	t.vocab = BuildVocabulary(t.merges.Merges(), t.special)
	return nil
}

func (t *Tokenizer) Pattern() string {
	return t.splitter.Pattern()
}

// Merges returns the learned merges in id order.
func (t *Tokenizer) Merges() []Merge {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.merges.Merges()
}

// Vocabulary returns a copy of the current vocabulary.
func (t *Tokenizer) Vocabulary() Vocabulary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.vocab.clone()
}

func (t *Tokenizer) SpecialTokens() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.special)
}

// VocabSize is the number of ids in the vocabulary, special tokens included.
func (t *Tokenizer) VocabSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vocab)
}
