package intent

import "errors"

var (
	// ErrInvalidVocabulary indicates a Vocabulary failed validation.
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
)
