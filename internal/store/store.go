// Package store persists the document catalog and conversation history in
// Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Store wraps the bun connection and serializes appends per conversation.
type Store struct {
	db     *bun.DB
	logger *slog.Logger

	// one mutex per conversation ID, so concurrent appends to the same
	// conversation are ordered while different conversations proceed in
	// parallel
	appendLocks sync.Map
}

// Open connects to Postgres using the given DSN and prepares the schema.
// Set verbose to log every query.
func Open(ctx context.Context, dsn string, verbose bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(verbose)))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	for _, model := range []any{(*Document)(nil), (*Conversation)(nil), (*Message)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertDocument inserts the catalog row for a document, replacing any
// previous row with the same ID.
func (s *Store) UpsertDocument(ctx context.Context, doc *Document) error {
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}
	_, err := s.db.NewInsert().
		Model(doc).
		On("CONFLICT (id) DO UPDATE").
		Set("filename = EXCLUDED.filename").
		Set("upload_date = EXCLUDED.upload_date").
		Set("file_size = EXCLUDED.file_size").
		Set("chunk_count = EXCLUDED.chunk_count").
		Set("source_sha = EXCLUDED.source_sha").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// GetDocument fetches one catalog row.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	doc := new(Document)
	err := s.db.NewSelect().Model(doc).Where("d.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all catalog rows, most recently uploaded first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Order("upload_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document's catalog row. Conversations about the
// document are kept so their history stays readable.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*Document)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return nil
}

// CreateConversation starts a new conversation about a document.
func (s *Store) CreateConversation(ctx context.Context, documentID string) (*Conversation, error) {
	conv := &Conversation{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(conv).Exec(ctx); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation fetches one conversation, or ErrConversationNotFound.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	conv := new(Conversation)
	err := s.db.NewSelect().Model(conv).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns a document's conversations, newest first.
func (s *Store) ListConversations(ctx context.Context, documentID string) ([]Conversation, error) {
	var convs []Conversation
	err := s.db.NewSelect().
		Model(&convs).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// LatestConversation returns the most recent conversation about a document,
// or ErrConversationNotFound when none exists.
func (s *Store) LatestConversation(ctx context.Context, documentID string) (*Conversation, error) {
	conv := new(Conversation)
	err := s.db.NewSelect().
		Model(conv).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s", ErrConversationNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("latest conversation: %w", err)
	}
	return conv, nil
}

// GetMessages returns a conversation's messages in insertion order.
func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var msgs []Message
	err := s.db.NewSelect().
		Model(&msgs).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return msgs, nil
}

// AppendMessage adds a message to a conversation. Appends within one
// conversation are serialized; each message gets the next sequence number,
// and its timestamp is clamped to be no earlier than the previous one so
// replay order matches insertion order.
func (s *Store) AppendMessage(ctx context.Context, msg *Message) error {
	lock, _ := s.appendLocks.LoadOrStore(msg.ConversationID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Sources == nil {
		msg.Sources = []string{}
	}

	var last Message
	err := s.db.NewSelect().
		Model(&last).
		Column("seq", "created_at").
		Where("conversation_id = ?", msg.ConversationID).
		Order("seq DESC").
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("append message: %w", err)
	}
	msg.Seq = last.Seq + 1
	if err == nil && msg.CreatedAt.Before(last.CreatedAt) {
		msg.CreatedAt = last.CreatedAt
	}

	if _, err := s.db.NewInsert().Model(msg).Exec(ctx); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// DeleteConversation removes a conversation and all its messages.
func (s *Store) DeleteConversation(ctx context.Context, conversationID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Message)(nil)).
			Where("conversation_id = ?", conversationID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		res, err := tx.NewDelete().
			Model((*Conversation)(nil)).
			Where("id = ?", conversationID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
		}
		return nil
	})
}

// GetStats aggregates corpus and chat counts.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := new(Stats)

	docCount, err := s.db.NewSelect().Model((*Document)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	stats.DocumentCount = docCount

	var totalChunks sql.NullInt64
	err = s.db.NewSelect().
		Model((*Document)(nil)).
		ColumnExpr("SUM(chunk_count)").
		Scan(ctx, &totalChunks)
	if err != nil {
		return nil, fmt.Errorf("sum chunks: %w", err)
	}
	stats.TotalChunks = int(totalChunks.Int64)

	convCount, err := s.db.NewSelect().Model((*Conversation)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}
	stats.ConversationCount = convCount

	msgCount, err := s.db.NewSelect().Model((*Message)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	stats.MessageCount = msgCount

	return stats, nil
}

// Health verifies the database connection.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
