package chat

import "errors"

// ErrEmptyQuery indicates a request without a question.
var ErrEmptyQuery = errors.New("chat: empty query")
