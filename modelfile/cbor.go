package modelfile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/nana-tokenizers/nana/tokenizer"
)

const cborVersion = 1

type blob struct {
	Version int            `cbor:"1,keyasint"`
	Pattern string         `cbor:"2,keyasint"`
	Special map[string]int `cbor:"3,keyasint,omitempty"`
	// Merges holds left, right, id triples in id order
	Merges [][3]int `cbor:"4,keyasint"`
}

func MarshalCBOR(tok *tokenizer.Tokenizer) ([]byte, error) {
	merges := tok.Merges()
	b := blob{
		Version: cborVersion,
		Pattern: tok.Pattern(),
		Special: tok.SpecialTokens(),
		Merges:  make([][3]int, len(merges)),
	}

	for i, m := range merges {
		b.Merges[i] = [3]int{m.Pair.A, m.Pair.B, m.ID}
	}

	return cbor.Marshal(b)
}

func UnmarshalCBOR(data []byte) (*tokenizer.Tokenizer, error) {
	var b blob
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if b.Version != cborVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, b.Version)
	}

	merges := make([]tokenizer.Merge, len(b.Merges))
	for i, m := range b.Merges {
		merges[i] = tokenizer.Merge{Pair: tokenizer.Pair{A: m[0], B: m[1]}, ID: m[2]}
	}

	return tokenizer.Load(b.Pattern, merges, b.Special)
}
