package tokenizer

import (
	"fmt"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
)

// numBase is the number of single-byte tokens every vocabulary starts with.
const numBase = 256

// Merge is one learned substitution: Pair becomes ID.
type Merge struct {
	Pair Pair
	ID   int
}

// MergeTable is the ordered record of learned merges. IDs start at 256 and
// grow by one per entry; a pair is never inserted twice.
type MergeTable struct {
	table *linkedhashmap.Map[Pair, int]
}

func NewMergeTable() *MergeTable {
	return &MergeTable{table: linkedhashmap.New[Pair, int]()}
}

func (m *MergeTable) Len() int {
	return m.table.Size()
}

// NextID is the id the next merge will be assigned.
func (m *MergeTable) NextID() int {
	return numBase + m.table.Size()
}

// Put records pair as id. id must equal NextID and both halves of pair
// must already be known tokens.
func (m *MergeTable) Put(pair Pair, id int) error {
	if next := m.NextID(); id != next {
		return fmt.Errorf("%w: merge %v assigned id %d, expected %d", ErrInvalidMergeTable, pair, id, next)
	}

	if pair.A < 0 || pair.A >= id || pair.B < 0 || pair.B >= id {
		return fmt.Errorf("%w: merge %v references an unknown token", ErrInvalidMergeTable, pair)
	}

	if prev, ok := m.table.Get(pair); ok {
		return fmt.Errorf("%w: merge %v already assigned id %d", ErrInvalidMergeTable, pair, prev)
	}

	m.table.Put(pair, id)
	return nil
}

// Rank returns the id assigned to pair. Lower ids were learned earlier.
func (m *MergeTable) Rank(pair Pair) (int, bool) {
	return m.table.Get(pair)
}

// Merges returns the table in insertion order.
func (m *MergeTable) Merges() []Merge {
	merges := make([]Merge, 0, m.table.Size())
	it := m.table.Iterator()
	for it.Next() {
		merges = append(merges, Merge{Pair: it.Key(), ID: it.Value()})
	}
	return merges
}
