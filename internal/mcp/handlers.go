package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docchat-server/internal/chat"
	"github.com/bull/docchat-server/internal/ingest"
	"github.com/bull/docchat-server/internal/prompt"
	"github.com/bull/docchat-server/internal/store"
	"github.com/bull/docchat-server/internal/vectorstore"
)

// makeAskHandler creates the ask_document tool handler.
func makeAskHandler(svc *chat.Service) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		resp, err := svc.Ask(ctx, chat.Request{
			Query:          input.Query,
			DocumentID:     input.DocumentID,
			ConversationID: input.ConversationID,
			TopK:           input.TopK,
		})
		if err != nil {
			if errors.Is(err, chat.ErrEmptyQuery) {
				return nil, AskOutput{}, fmt.Errorf("query is required")
			}
			return nil, AskOutput{}, fmt.Errorf("ask failed: %w", err)
		}

		sources := resp.Sources
		if sources == nil {
			sources = []string{}
		}
		return nil, AskOutput{
			Answer:         resp.Text,
			Sources:        sources,
			ConversationID: resp.ConversationID,
			Refined:        resp.Refined,
			Saved:          resp.Saved,
		}, nil
	}
}

// makeIngestHandler creates the ingest_document tool handler.
func makeIngestHandler(ing *ingest.Ingester) func(
	context.Context, *mcp.CallToolRequest, IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (
		*mcp.CallToolResult, IngestOutput, error,
	) {
		if input.Filename == "" {
			return nil, IngestOutput{}, fmt.Errorf("filename is required")
		}
		res, err := ing.Ingest(ctx, input.Filename, input.Content)
		if err != nil {
			return nil, IngestOutput{}, fmt.Errorf("ingest failed: %w", err)
		}
		return nil, IngestOutput{
			DocumentID: res.DocumentID,
			ChunkCount: res.ChunkCount,
		}, nil
	}
}

// makeListDocumentsHandler creates the list_documents tool handler.
func makeListDocumentsHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		docs, err := st.ListDocuments(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		infos := make([]DocumentInfo, len(docs))
		for i, d := range docs {
			infos[i] = DocumentInfo{
				ID:         d.ID,
				Filename:   d.Filename,
				UploadDate: d.UploadDate,
				FileSize:   d.FileSize,
				ChunkCount: d.ChunkCount,
			}
		}
		return nil, ListDocumentsOutput{Documents: infos, Count: len(infos)}, nil
	}
}

// makeDeleteDocumentHandler creates the delete_document tool handler.
func makeDeleteDocumentHandler(ing *ingest.Ingester) func(
	context.Context, *mcp.CallToolRequest, DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteDocumentInput) (
		*mcp.CallToolResult, DeleteDocumentOutput, error,
	) {
		if err := ing.Delete(ctx, input.DocumentID); err != nil {
			if errors.Is(err, store.ErrDocumentNotFound) {
				return nil, DeleteDocumentOutput{
					Deleted: false,
					Message: fmt.Sprintf("document %s not found", input.DocumentID),
				}, nil
			}
			return nil, DeleteDocumentOutput{}, fmt.Errorf("delete failed: %w", err)
		}
		return nil, DeleteDocumentOutput{Deleted: true}, nil
	}
}

// makeListConversationsHandler creates the list_conversations tool handler.
func makeListConversationsHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, ListConversationsInput,
) (*mcp.CallToolResult, ListConversationsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListConversationsInput) (
		*mcp.CallToolResult, ListConversationsOutput, error,
	) {
		convs, err := st.ListConversations(ctx, input.DocumentID)
		if err != nil {
			return nil, ListConversationsOutput{}, fmt.Errorf("failed to list conversations: %w", err)
		}

		infos := make([]ConversationInfo, len(convs))
		for i, c := range convs {
			infos[i] = ConversationInfo{ID: c.ID, CreatedAt: c.CreatedAt}
		}
		return nil, ListConversationsOutput{Conversations: infos, Count: len(infos)}, nil
	}
}

// makeCreateConversationHandler creates the create_conversation tool handler.
func makeCreateConversationHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, CreateConversationInput,
) (*mcp.CallToolResult, CreateConversationOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateConversationInput) (
		*mcp.CallToolResult, CreateConversationOutput, error,
	) {
		if input.DocumentID == "" {
			return nil, CreateConversationOutput{}, fmt.Errorf("document_id is required")
		}
		if _, err := st.GetDocument(ctx, input.DocumentID); err != nil {
			if errors.Is(err, store.ErrDocumentNotFound) {
				return nil, CreateConversationOutput{}, fmt.Errorf("document %s not found", input.DocumentID)
			}
			return nil, CreateConversationOutput{}, fmt.Errorf("create conversation failed: %w", err)
		}
		conv, err := st.CreateConversation(ctx, input.DocumentID)
		if err != nil {
			return nil, CreateConversationOutput{}, fmt.Errorf("create conversation failed: %w", err)
		}
		return nil, CreateConversationOutput{
			ConversationID: conv.ID,
			CreatedAt:      conv.CreatedAt,
		}, nil
	}
}

// makeAppendMessageHandler creates the append_message tool handler.
func makeAppendMessageHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, AppendMessageInput,
) (*mcp.CallToolResult, AppendMessageOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AppendMessageInput) (
		*mcp.CallToolResult, AppendMessageOutput, error,
	) {
		if input.Role != prompt.RoleUser && input.Role != prompt.RoleAssistant {
			return nil, AppendMessageOutput{}, fmt.Errorf("role must be %q or %q", prompt.RoleUser, prompt.RoleAssistant)
		}
		if input.Content == "" {
			return nil, AppendMessageOutput{}, fmt.Errorf("content is required")
		}
		if _, err := st.GetConversation(ctx, input.ConversationID); err != nil {
			if errors.Is(err, store.ErrConversationNotFound) {
				return nil, AppendMessageOutput{}, fmt.Errorf("conversation %s not found", input.ConversationID)
			}
			return nil, AppendMessageOutput{}, fmt.Errorf("append message failed: %w", err)
		}

		msg := &store.Message{
			ConversationID: input.ConversationID,
			Role:           input.Role,
			Content:        input.Content,
			Sources:        input.Sources,
		}
		if err := st.AppendMessage(ctx, msg); err != nil {
			return nil, AppendMessageOutput{}, fmt.Errorf("append message failed: %w", err)
		}
		return nil, AppendMessageOutput{
			MessageID: msg.ID,
			CreatedAt: msg.CreatedAt,
		}, nil
	}
}

// makeDeleteConversationHandler creates the delete_conversation tool handler.
func makeDeleteConversationHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, DeleteConversationInput,
) (*mcp.CallToolResult, DeleteConversationOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteConversationInput) (
		*mcp.CallToolResult, DeleteConversationOutput, error,
	) {
		if err := st.DeleteConversation(ctx, input.ConversationID); err != nil {
			if errors.Is(err, store.ErrConversationNotFound) {
				return nil, DeleteConversationOutput{
					Deleted: false,
					Message: fmt.Sprintf("conversation %s not found", input.ConversationID),
				}, nil
			}
			return nil, DeleteConversationOutput{}, fmt.Errorf("delete failed: %w", err)
		}
		return nil, DeleteConversationOutput{Deleted: true}, nil
	}
}

// makeGetHistoryHandler creates the get_history tool handler.
func makeGetHistoryHandler(st *store.Store) func(
	context.Context, *mcp.CallToolRequest, GetHistoryInput,
) (*mcp.CallToolResult, GetHistoryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetHistoryInput) (
		*mcp.CallToolResult, GetHistoryOutput, error,
	) {
		msgs, err := st.GetMessages(ctx, input.ConversationID)
		if err != nil {
			return nil, GetHistoryOutput{}, fmt.Errorf("failed to get history: %w", err)
		}

		out := make([]HistoryMessage, len(msgs))
		for i, m := range msgs {
			out[i] = HistoryMessage{
				Role:      m.Role,
				Content:   m.Content,
				Sources:   m.Sources,
				CreatedAt: m.CreatedAt,
			}
		}
		return nil, GetHistoryOutput{Messages: out, Count: len(out)}, nil
	}
}

// makeGetStatsHandler creates the get_stats tool handler. The vector count
// comes from Qdrant; everything else from the catalog.
func makeGetStatsHandler(st *store.Store, vectors *vectorstore.Store) func(
	context.Context, *mcp.CallToolRequest, GetStatsInput,
) (*mcp.CallToolResult, GetStatsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetStatsInput) (
		*mcp.CallToolResult, GetStatsOutput, error,
	) {
		stats, err := st.GetStats(ctx)
		if err != nil {
			return nil, GetStatsOutput{}, fmt.Errorf("failed to get stats: %w", err)
		}

		indexed, err := vectors.Count(ctx, "")
		if err != nil {
			return nil, GetStatsOutput{}, fmt.Errorf("failed to count vectors: %w", err)
		}

		return nil, GetStatsOutput{
			DocumentCount:     stats.DocumentCount,
			TotalChunks:       stats.TotalChunks,
			IndexedVectors:    int(indexed),
			ConversationCount: stats.ConversationCount,
			MessageCount:      stats.MessageCount,
		}, nil
	}
}
