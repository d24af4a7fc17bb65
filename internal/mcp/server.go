package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docchat-server/internal/chat"
	"github.com/bull/docchat-server/internal/ingest"
	"github.com/bull/docchat-server/internal/store"
	"github.com/bull/docchat-server/internal/vectorstore"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server  *mcp.Server
	chat    *chat.Service
	store   *store.Store
	vectors *vectorstore.Store
}

// Config holds server dependencies.
type Config struct {
	Chat     *chat.Service
	Ingester *ingest.Ingester
	Store    *store.Store
	Vectors  *vectorstore.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "docchat-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Ask a question about the ingested documents. Answers are grounded in retrieved document chunks and cite their sources. Pass document_id to scope the question to one document and continue its conversation.",
	}, makeAskHandler(cfg.Chat))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a document for question answering. Re-ingesting the same filename replaces the previous version.",
	}, makeIngestHandler(cfg.Ingester))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all ingested documents with their sizes and chunk counts, newest first.",
	}, makeListDocumentsHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete an ingested document from the index and catalog. Its conversations are kept.",
	}, makeDeleteDocumentHandler(cfg.Ingester))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_conversation",
		Description: "Start a new conversation about a document. ask_document records follow-up exchanges in it when given the returned conversation_id.",
	}, makeCreateConversationHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "append_message",
		Description: "Append a message to a conversation without generating an answer. Useful for importing an existing exchange into the history.",
	}, makeAppendMessageHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_conversations",
		Description: "List a document's conversations, newest first.",
	}, makeListConversationsHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_conversation",
		Description: "Delete a conversation and all its messages.",
	}, makeDeleteConversationHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "Get a conversation's messages in order, including the sources each answer cited.",
	}, makeGetHistoryHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Get corpus statistics: document, chunk, vector, conversation, and message counts.",
	}, makeGetStatsHandler(cfg.Store, cfg.Vectors))

	return &Server{
		server:  server,
		chat:    cfg.Chat,
		store:   cfg.Store,
		vectors: cfg.Vectors,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
