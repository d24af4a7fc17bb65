package store

import "errors"

var (
	// ErrDocumentNotFound indicates the document ID has no catalog row.
	ErrDocumentNotFound = errors.New("store: document not found")

	// ErrConversationNotFound indicates the conversation ID does not exist,
	// or a document has no conversations yet.
	ErrConversationNotFound = errors.New("store: conversation not found")
)
