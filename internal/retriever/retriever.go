// Package retriever embeds queries and finds the most similar chunks in the
// vector index.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/docchat-server/internal/vectorstore"
)

// DefaultTopK is the number of chunks retrieved when the caller does not
// specify one.
const DefaultTopK = 5

// Embedder generates query embeddings. The same implementation must serve
// ingestion, so query and chunk vectors share one embedding space.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Index serves k-nearest-neighbor queries over chunk vectors.
type Index interface {
	Query(ctx context.Context, vector []float32, k int, documentID string) ([]vectorstore.ScoredChunk, error)
}

// Result is a retrieved chunk with its similarity score and a human-readable
// source label for citation.
type Result struct {
	Chunk vectorstore.ChunkRecord
	Score float64
	Label string
}

// Retriever embeds a query and asks the vector index for the top-k most
// similar chunks, optionally restricted to one document.
type Retriever struct {
	embedder Embedder
	index    Index
	logger   *slog.Logger
}

// New creates a Retriever. A nil logger falls back to slog.Default().
func New(embedder Embedder, index Index, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Retrieve returns the ranked chunks most similar to the query. Zero hits is
// not an error: an empty result is the valid "no context" state and callers
// must handle it explicitly.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, documentID string) ([]Result, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	embeddings, err := r.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.index.Query(ctx, embeddings[0], k, documentID)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	if len(scored) == 0 {
		r.logger.Debug("Retrieval returned no chunks", "query_len", len(query), "document", documentID)
		return []Result{}, nil
	}

	results := make([]Result, len(scored))
	for i, sc := range scored {
		results[i] = Result{
			Chunk: sc.Chunk,
			Score: sc.Score,
			Label: SourceLabel(sc.Chunk),
		}
	}
	return results, nil
}

// SourceLabel builds the citation label for a chunk: originating filename
// plus chunk position.
func SourceLabel(chunk vectorstore.ChunkRecord) string {
	name := chunk.Filename
	if name == "" {
		name = chunk.DocumentID
	}
	return fmt.Sprintf("%s#chunk-%d", name, chunk.Position)
}
