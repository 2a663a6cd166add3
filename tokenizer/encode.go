package tokenizer

import "github.com/nana-tokenizers/nana/logutil"

// EncodeOrdinary encodes text with the learned merges. Special token
// literals in text are encoded like any other text.
func (t *Tokenizer) EncodeOrdinary(text string) ([]int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chunks, err := t.splitter.Split(text)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(text))
	for _, chunk := range chunks {
		ids = append(ids, t.encodeChunk([]byte(chunk))...)
	}

	logutil.Trace("encoded", "chunks", len(chunks), "ids", logutil.IDs(ids))
	return ids, nil
}

// encodeChunk repeatedly applies the earliest learned merge present in the
// chunk. Replaying merges in learning order reproduces training, since a
// later merge may consume the output of an earlier one.
func (t *Tokenizer) encodeChunk(b []byte) []int {
	ids := bytesToIDs(b)
	for len(ids) >= 2 {
		var best Pair
		rank := -1
		for p := range CountPairs(ids, nil).All() {
			if id, ok := t.merges.Rank(p); ok && (rank < 0 || id < rank) {
				best, rank = p, id
			}
		}

		if rank < 0 {
			break
		}

		ids = replacePair(ids, best, rank)
	}

	return ids
}
