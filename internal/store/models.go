package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Document is the catalog row for one ingested document.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID         string    `bun:"id,pk"`
	Filename   string    `bun:"filename,notnull"`
	UploadDate time.Time `bun:"upload_date,notnull"`
	FileSize   int64     `bun:"file_size,notnull"`
	ChunkCount int       `bun:"chunk_count,notnull"`
	SourceSHA  string    `bun:"source_sha,nullzero"`
}

// Conversation groups the messages exchanged about one document.
type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID         string    `bun:"id,pk"`
	DocumentID string    `bun:"document_id,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

// Message is one turn in a conversation. Sources holds the citation labels
// for assistant messages; it is empty for user messages. Seq is the
// insertion order within the conversation and breaks ties between messages
// written in the same clock instant.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID             string    `bun:"id,pk"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Seq            int64     `bun:"seq,notnull"`
	Role           string    `bun:"role,notnull"`
	Content        string    `bun:"content,notnull"`
	Sources        []string  `bun:"sources,type:jsonb"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// Stats summarizes the stored corpus and chat activity.
type Stats struct {
	DocumentCount     int
	TotalChunks       int
	ConversationCount int
	MessageCount      int
}
