package pipeline

import "errors"

// ErrDraftFailed indicates the drafting stage produced no answer. There is
// nothing to degrade to, so the request fails.
var ErrDraftFailed = errors.New("pipeline: draft generation failed")
