package index

import "errors"

var (
	// ErrClientRequired is returned when an indexer or searcher is created without a client.
	ErrClientRequired = errors.New("index client required")

	// ErrIndexRequest is returned when OpenSearch rejects a request.
	ErrIndexRequest = errors.New("index request failed")

	// ErrInvalidResponse is returned when a response body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid index response")
)
