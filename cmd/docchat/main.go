// Package main provides the docchat CLI for managing the document index and
// asking questions from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docchat-server/internal/chat"
	"github.com/bull/docchat-server/internal/chunker"
	"github.com/bull/docchat-server/internal/config"
	"github.com/bull/docchat-server/internal/embedding"
	ghclient "github.com/bull/docchat-server/internal/github"
	"github.com/bull/docchat-server/internal/ingest"
	"github.com/bull/docchat-server/internal/llm"
	"github.com/bull/docchat-server/internal/pipeline"
	"github.com/bull/docchat-server/internal/retriever"
	"github.com/bull/docchat-server/internal/store"
	"github.com/bull/docchat-server/internal/vectorstore"
)

var (
	flagConfig   string
	flagDocument string
	flagTopK     int
	flagRepo     string
	flagRepoPath string
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Document question answering over a semantic index",
	Long:  "CLI tool for ingesting documents into Qdrant and asking questions answered from their content",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents into the index",
	Long: `Chunks, embeds, and indexes the given files. Markdown files are split
along their header structure. Re-ingesting a filename replaces its
previous version.

With --repo, ingests all markdown and text files from a GitHub
repository directory instead of local files.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  POSTGRES_DSN   Postgres connection string
  OPENAI_API_KEY OpenAI API key for embeddings (required)
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the ingested documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document from the index and catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var historyCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Show a conversation's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE:  runStats,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all documents from the index and catalog",
	Long:  "Clears the vector collection and deletes every document catalog row. Conversations are kept.",
	RunE:  runReset,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to config file")
	ingestCmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository to ingest (owner/repo)")
	ingestCmd.Flags().StringVar(&flagRepoPath, "repo-path", "", "directory within the repository")
	askCmd.Flags().StringVar(&flagDocument, "document", "", "restrict the question to one document ID")
	askCmd.Flags().IntVar(&flagTopK, "top-k", 0, "number of context chunks to retrieve")
	rootCmd.AddCommand(ingestCmd, askCmd, listCmd, deleteCmd, historyCmd, statsCmd, resetCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components the commands need.
type app struct {
	vectors  *vectorstore.Store
	catalog  *store.Store
	ingester *ingest.Ingester
	chat     *chat.Service
}

func (a *app) close() {
	a.vectors.Close()
	a.catalog.Close()
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	vectors, err := vectorstore.New(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		return nil, fmt.Errorf("connect to Qdrant: %w", err)
	}
	if err := vectors.EnsureCollection(ctx); err != nil {
		vectors.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	catalog, err := store.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Verbose, nil)
	if err != nil {
		vectors.Close()
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}

	openaiClient, err := embedding.NewClient()
	if err != nil {
		vectors.Close()
		catalog.Close()
		return nil, fmt.Errorf("create OpenAI client: %w", err)
	}
	embedder := embedding.NewEmbedder(openaiClient, 0)
	generator := llm.NewGenerator(openaiClient.Client(), cfg.Pipeline.Model, cfg.Pipeline.CallTimeout())

	ret := retriever.New(embedder, vectors, nil)
	answerer := pipeline.New(generator, pipeline.Config{
		DraftTemperature:  cfg.Pipeline.DraftTemperature,
		RefineTemperature: cfg.Pipeline.RefineTemperature,
		RefineWithQuery:   cfg.Pipeline.RefineWithQueryEnabled(),
	}, nil)

	return &app{
		vectors:  vectors,
		catalog:  catalog,
		ingester: ingest.New(
			chunker.New(chunker.WithChunkSize(cfg.Chunker.Size), chunker.WithOverlap(cfg.Chunker.OverlapChars())),
			embedder, vectors, catalog, nil,
		),
		chat: chat.New(ret, answerer, catalog, nil),
	}, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if flagRepo == "" && len(args) == 0 {
		return fmt.Errorf("nothing to ingest: pass files or --repo")
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if flagRepo != "" {
		return ingestRepo(ctx, a)
	}

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		res, err := a.ingester.Ingest(ctx, filepath.Base(path), string(content))
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		fmt.Printf("Ingested %s: %d chunks (id %s)\n", res.Filename, res.ChunkCount, res.DocumentID)
	}
	return nil
}

func ingestRepo(ctx context.Context, a *app) error {
	parts := strings.SplitN(flagRepo, "/", 2)
	if len(parts) != 2 {
		return fmt.Errorf("--repo must be owner/repo, got %q", flagRepo)
	}

	client, err := ghclient.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}
	fetcher := ghclient.NewFetcher(client, parts[0], parts[1], flagRepoPath)

	fmt.Printf("Ingesting from %s...\n", flagRepo)
	result, err := a.ingester.IngestRepo(ctx, fetcher)
	if err != nil {
		return fmt.Errorf("repository ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	if result.SkippedDocs > 0 {
		fmt.Printf("  Skipped (unchanged): %d\n", result.SkippedDocs)
	}
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	if result.CommitSHA != "" {
		fmt.Printf("  Commit: %s\n", result.CommitSHA)
	}
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.chat.Ask(ctx, chat.Request{
		Query:      args[0],
		DocumentID: flagDocument,
		TopK:       flagTopK,
	})
	if err != nil {
		return err
	}

	fmt.Println(resp.Text)
	if len(resp.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range resp.Sources {
			fmt.Printf("  - %s\n", src)
		}
	}
	if !resp.Refined {
		fmt.Println()
		fmt.Println("(refinement unavailable, draft answer shown)")
	}
	if resp.ConversationID != "" {
		fmt.Printf("\nConversation: %s\n", resp.ConversationID)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	docs, err := a.catalog.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%s  %s  %d chunks  %d bytes  %s\n",
			d.ID, d.Filename, d.ChunkCount, d.FileSize, d.UploadDate.Format(time.RFC3339))
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.ingester.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	msgs, err := a.catalog.GetMessages(ctx, args[0])
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Println("No messages.")
		return nil
	}
	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format(time.RFC3339), m.Role, m.Content)
		if len(m.Sources) > 0 {
			fmt.Printf("    sources: %s\n", strings.Join(m.Sources, ", "))
		}
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.catalog.GetStats(ctx)
	if err != nil {
		return err
	}
	indexed, err := a.vectors.Count(ctx, "")
	if err != nil {
		return err
	}

	fmt.Printf("Documents:     %d\n", stats.DocumentCount)
	fmt.Printf("Chunks:        %d\n", stats.TotalChunks)
	fmt.Printf("Vectors:       %d\n", indexed)
	fmt.Printf("Conversations: %d\n", stats.ConversationCount)
	fmt.Printf("Messages:      %d\n", stats.MessageCount)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println("Clearing vector collection...")
	if err := a.vectors.ClearCollection(ctx); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	docs, err := a.catalog.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := a.catalog.DeleteDocument(ctx, d.ID); err != nil {
			return fmt.Errorf("delete %s: %w", d.ID, err)
		}
	}
	fmt.Printf("Removed %d documents\n", len(docs))
	return nil
}
