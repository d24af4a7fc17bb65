// Package chat answers questions over ingested documents: it retrieves
// context, runs the two-stage generation pipeline, and records the exchange
// in the conversation history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/docchat-server/internal/pipeline"
	"github.com/bull/docchat-server/internal/prompt"
	"github.com/bull/docchat-server/internal/retriever"
	"github.com/bull/docchat-server/internal/store"
)

// Retriever finds context chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, documentID string) ([]retriever.Result, error)
}

// Answerer runs the generation pipeline over assembled context.
type Answerer interface {
	Run(ctx context.Context, query string, retrieved prompt.Context, history []prompt.Turn) (pipeline.Answer, error)
}

// ConversationStore persists conversations and messages.
type ConversationStore interface {
	CreateConversation(ctx context.Context, documentID string) (*store.Conversation, error)
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	LatestConversation(ctx context.Context, documentID string) (*store.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) ([]store.Message, error)
	AppendMessage(ctx context.Context, msg *store.Message) error
}

// Request is one question from a user.
type Request struct {
	Query string
	// DocumentID restricts retrieval to one document. Empty means search
	// across everything; such exchanges are not persisted because a
	// conversation belongs to a document.
	DocumentID string
	// TopK overrides the retrieval depth when positive.
	TopK int
	// ConversationID continues an existing conversation. Empty picks the
	// document's latest conversation, creating one if none exists.
	ConversationID string
}

// Response is the answer plus conversation bookkeeping.
type Response struct {
	Text           string
	Sources        []string
	ConversationID string
	Timestamp      time.Time
	Refined        bool
	// Saved reports whether the exchange made it into the history. A
	// persistence failure degrades to an unsaved answer rather than an
	// error.
	Saved bool
}

// Service wires retrieval, generation, and history together.
type Service struct {
	retriever Retriever
	answerer  Answerer
	convs     ConversationStore
	logger    *slog.Logger
}

// New creates a Service. A nil logger falls back to slog.Default().
func New(retriever Retriever, answerer Answerer, convs ConversationStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		retriever: retriever,
		answerer:  answerer,
		convs:     convs,
		logger:    logger,
	}
}

// Ask answers one question. History is replayed into the prompt when the
// request targets a document; the exchange is appended to that document's
// conversation afterward.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	conv, history, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	results, err := s.retriever.Retrieve(ctx, req.Query, req.TopK, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	answer, err := s.answerer.Run(ctx, req.Query, prompt.Assemble(results), history)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	resp := &Response{
		Text:      answer.Text,
		Sources:   answer.Sources,
		Timestamp: answer.Timestamp,
		Refined:   answer.Refined,
	}
	if conv != nil {
		resp.ConversationID = conv.ID
		resp.Saved = s.persistExchange(ctx, conv.ID, req.Query, answer)
	}
	return resp, nil
}

// resolveConversation finds the conversation to continue and its history.
// Returns a nil conversation for document-less requests.
func (s *Service) resolveConversation(ctx context.Context, req Request) (*store.Conversation, []prompt.Turn, error) {
	if req.ConversationID != "" {
		// an explicit ID has to name a real conversation: appending to an
		// unknown one would write orphaned messages
		conv, err := s.convs.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve conversation: %w", err)
		}
		msgs, err := s.convs.GetMessages(ctx, conv.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("load history: %w", err)
		}
		return conv, store.Replay(msgs), nil
	}

	if req.DocumentID == "" {
		return nil, nil, nil
	}

	conv, err := s.convs.LatestConversation(ctx, req.DocumentID)
	if errors.Is(err, store.ErrConversationNotFound) {
		conv, err = s.convs.CreateConversation(ctx, req.DocumentID)
		if err != nil {
			return nil, nil, fmt.Errorf("create conversation: %w", err)
		}
		return conv, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve conversation: %w", err)
	}

	msgs, err := s.convs.GetMessages(ctx, conv.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load history: %w", err)
	}
	return conv, store.Replay(msgs), nil
}

// persistExchange appends the question and answer to the conversation. A
// failure is logged, not propagated: the user already has their answer.
func (s *Service) persistExchange(ctx context.Context, conversationID, query string, answer pipeline.Answer) bool {
	if err := s.convs.AppendMessage(ctx, &store.Message{
		ConversationID: conversationID,
		Role:           prompt.RoleUser,
		Content:        query,
	}); err != nil {
		s.logger.Warn("Failed to save user message", "conversation", conversationID, "error", err)
		return false
	}
	if err := s.convs.AppendMessage(ctx, &store.Message{
		ConversationID: conversationID,
		Role:           prompt.RoleAssistant,
		Content:        answer.Text,
		Sources:        answer.Sources,
	}); err != nil {
		s.logger.Warn("Failed to save assistant message", "conversation", conversationID, "error", err)
		return false
	}
	return true
}
