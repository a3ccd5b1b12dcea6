package taxonomy

import "errors"

var (
	// ErrInvalidDictionary indicates a Dictionary failed validation.
	ErrInvalidDictionary = errors.New("invalid dictionary")

	// ErrUnknownLabel indicates a dictionary entry names a label outside the label set.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrInvalidPattern indicates a scientific-name pattern failed to compile.
	ErrInvalidPattern = errors.New("invalid scientific-name pattern")
)
