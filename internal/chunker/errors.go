package chunker

import "errors"

var (
	// ErrEmptyInput is returned when the extracted text is empty or
	// whitespace-only and no chunks can be produced.
	ErrEmptyInput = errors.New("chunker: empty input text")
)
