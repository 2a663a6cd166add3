package tokenizer

import "errors"

var (
	ErrInvalidVocabularySize = errors.New("vocabulary size must be at least 256")
	ErrInvalidUTF8           = errors.New("text is not valid UTF-8")
	ErrInsufficientPairs     = errors.New("not enough pairs to perform the requested merges")
	ErrSpecialTokenConflict  = errors.New("special token conflicts with an existing token")
	ErrInvalidMergeTable     = errors.New("invalid merge table")
)
