package tokenizer

import (
	"fmt"
	"iter"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
)

// Pair is two adjacent token ids, left then right.
type Pair struct {
	A, B int
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.A, p.B)
}

// Stats counts adjacent pairs and remembers the order in which each pair
// was first seen.
type Stats struct {
	counts *linkedhashmap.Map[Pair, int]
}

func NewStats() *Stats {
	return &Stats{counts: linkedhashmap.New[Pair, int]()}
}

// CountPairs adds every adjacent pair of ids to stats, allocating a new
// counter when stats is nil. Overlapping occurrences count once per
// position, so [1 1 1] contributes 2 to (1, 1).
func CountPairs(ids []int, stats *Stats) *Stats {
	if stats == nil {
		stats = NewStats()
	}

	for i := 0; i+1 < len(ids); i++ {
		p := Pair{ids[i], ids[i+1]}
		n, _ := stats.counts.Get(p)
		stats.counts.Put(p, n+1)
	}

	return stats
}

func (s *Stats) Count(p Pair) int {
	n, _ := s.counts.Get(p)
	return n
}

func (s *Stats) Len() int {
	return s.counts.Size()
}

// All yields pairs and their counts in first-seen order.
func (s *Stats) All() iter.Seq2[Pair, int] {
	return func(yield func(Pair, int) bool) {
		it := s.counts.Iterator()
		for it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// replacePair replaces every occurrence of pair in ids with id, scanning left to
// right without overlap: [1 1 1] merged on (1, 1) becomes [id 1].
func replacePair(ids []int, pair Pair, id int) []int {
	out := make([]int, 0, len(ids))
	for i := 0; i < len(ids); {
		if i+1 < len(ids) && ids[i] == pair.A && ids[i+1] == pair.B {
			out = append(out, id)
			i += 2
			continue
		}

		out = append(out, ids[i])
		i++
	}

	return out
}

func bytesToIDs(b []byte) []int {
	ids := make([]int, len(b))
	for i, c := range b {
		ids[i] = int(c)
	}
	return ids
}
