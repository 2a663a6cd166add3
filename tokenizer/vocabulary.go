package tokenizer

// Vocabulary maps a token id to the bytes it stands for. It is always
// derived from a merge table and special tokens, never edited directly.
type Vocabulary map[int][]byte

// BuildVocabulary derives the vocabulary: ids 0-255 are single bytes,
// each merge concatenates its halves in merge order, and special tokens map
// to their UTF-8 bytes.
func BuildVocabulary(merges []Merge, special map[string]int) Vocabulary {
	v := make(Vocabulary, numBase+len(merges)+len(special))
	for i := range numBase {
		v[i] = []byte{byte(i)}
	}

	for _, m := range merges {
		v[m.ID] = concat(v[m.Pair.A], v[m.Pair.B])
	}

	for s, id := range special {
		v[id] = []byte(s)
	}

	return v
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func (v Vocabulary) clone() Vocabulary {
	c := make(Vocabulary, len(v))
	for id, b := range v {
		c[id] = append([]byte(nil), b...)
	}
	return c
}
