// Package mcp exposes the document chat system over the Model Context
// Protocol.
package mcp

import "time"

// AskInput defines the input parameters for the ask_document tool.
type AskInput struct {
	// Query is the question to answer from the ingested documents.
	Query string `json:"query" jsonschema:"required,description=The question to answer from the ingested documents"`
	// DocumentID restricts retrieval to one document and enables
	// conversation history.
	DocumentID string `json:"document_id,omitempty" jsonschema:"description=Restrict the answer to one document and record the exchange in its conversation"`
	// ConversationID continues a specific conversation.
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"description=Continue a specific conversation instead of the document's latest"`
	// TopK is the number of context chunks to retrieve.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Number of context chunks to retrieve"`
}

// AskOutput contains the generated answer.
type AskOutput struct {
	// Answer is the final answer text.
	Answer string `json:"answer"`
	// Sources lists the citation labels the answer relies on.
	Sources []string `json:"sources"`
	// ConversationID identifies the conversation the exchange was recorded
	// in, empty for document-less questions.
	ConversationID string `json:"conversation_id,omitempty"`
	// Refined reports whether the refinement stage completed. False means
	// the answer is the unedited draft.
	Refined bool `json:"refined"`
	// Saved reports whether the exchange was persisted.
	Saved bool `json:"saved"`
}

// IngestInput defines the input parameters for the ingest_document tool.
type IngestInput struct {
	// Filename names the document; re-using a filename replaces the
	// previous version.
	Filename string `json:"filename" jsonschema:"required,description=Document filename; re-ingesting the same filename replaces the previous version"`
	// Content is the full document text.
	Content string `json:"content" jsonschema:"required,description=The full document text"`
}

// IngestOutput reports the ingestion result.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// ListDocumentsInput takes no parameters.
type ListDocumentsInput struct{}

// DocumentInfo is one catalog entry.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadDate time.Time `json:"upload_date"`
	FileSize   int64     `json:"file_size"`
	ChunkCount int       `json:"chunk_count"`
}

// ListDocumentsOutput contains all ingested documents, newest first.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

// DeleteDocumentInput defines the input parameters for the delete_document
// tool.
type DeleteDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"required,description=The document ID to delete"`
}

// DeleteDocumentOutput reports the deletion.
type DeleteDocumentOutput struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}

// ListConversationsInput defines the input parameters for the
// list_conversations tool.
type ListConversationsInput struct {
	DocumentID string `json:"document_id" jsonschema:"required,description=The document whose conversations to list"`
}

// ConversationInfo is one conversation entry.
type ConversationInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListConversationsOutput contains a document's conversations, newest first.
type ListConversationsOutput struct {
	Conversations []ConversationInfo `json:"conversations"`
	Count         int                `json:"count"`
}

// CreateConversationInput defines the input parameters for the
// create_conversation tool.
type CreateConversationInput struct {
	DocumentID string `json:"document_id" jsonschema:"required,description=The document the new conversation is about"`
}

// CreateConversationOutput identifies the new conversation.
type CreateConversationOutput struct {
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// AppendMessageInput defines the input parameters for the append_message
// tool.
type AppendMessageInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"required,description=The conversation to append to"`
	// Role is the speaker, user or assistant.
	Role    string   `json:"role" jsonschema:"required,enum=user,enum=assistant,description=Who the message is from"`
	Content string   `json:"content" jsonschema:"required,description=The message text"`
	Sources []string `json:"sources,omitempty" jsonschema:"description=Citation labels for assistant messages"`
}

// AppendMessageOutput reports the stored message.
type AppendMessageOutput struct {
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DeleteConversationInput defines the input parameters for the
// delete_conversation tool.
type DeleteConversationInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"required,description=The conversation to delete along with its messages"`
}

// DeleteConversationOutput reports the deletion.
type DeleteConversationOutput struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message,omitempty"`
}

// GetHistoryInput defines the input parameters for the get_history tool.
type GetHistoryInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"required,description=The conversation whose messages to return"`
}

// HistoryMessage is one stored message.
type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GetHistoryOutput contains a conversation's messages in order.
type GetHistoryOutput struct {
	Messages []HistoryMessage `json:"messages"`
	Count    int              `json:"count"`
}

// GetStatsInput takes no parameters.
type GetStatsInput struct{}

// GetStatsOutput summarizes the stored corpus and chat activity.
type GetStatsOutput struct {
	DocumentCount     int `json:"document_count"`
	TotalChunks       int `json:"total_chunks"`
	IndexedVectors    int `json:"indexed_vectors"`
	ConversationCount int `json:"conversation_count"`
	MessageCount      int `json:"message_count"`
}
