package rag

import "errors"

// Error taxonomy shared by ingestion, retrieval and answering. Components wrap
// these with fmt.Errorf("%w: ...") so callers can branch with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCapacityExceeded  = errors.New("vector index capacity exceeded")
	ErrEmptyInput        = errors.New("empty message")
	ErrRetrieval         = errors.New("retrieval failed")
	// ErrRouting is never returned by the intent router, which falls back to
	// the default destination instead. It is used for logging only.
	ErrRouting   = errors.New("routing failed")
	ErrSynthesis = errors.New("answer synthesis failed")
	ErrIngestion = errors.New("document ingestion failed")
)
