// Package embedding maps text to fixed-dimension vectors using OpenAI's
// embedding API. The same embedder serves ingestion and query paths so both
// share one embedding space.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// EmbeddingModel is the OpenAI model used for generating embeddings.
	EmbeddingModel = "text-embedding-3-small"

	// Dimension is the vector dimension for text-embedding-3-small.
	// This matches vectorstore.VectorDimension (1536).
	Dimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate limits.
	// OpenAI supports up to 2048 texts per batch, but smaller batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// ErrEmbedding wraps failures of the embedding provider so callers can
// report a typed category instead of a raw provider message.
var ErrEmbedding = errors.New("embedding failed")

// Embedder generates embeddings with the text-embedding-3-small model.
// It batches requests for efficiency; transient provider errors are retried
// once, then the call fails.
type Embedder struct {
	client    *Client
	batchSize int
}

// NewEmbedder creates a new Embedder with the given client and optional batch size.
// If batchSize is 0, DefaultBatchSize (500) is used.
func NewEmbedder(client *Client, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		batchSize: batchSize,
	}
}

// GenerateEmbeddings generates embeddings for the given texts, batched.
// Returns [][]float32 to match vectorstore.ChunkRecord.Embedding. Embedding
// is deterministic per input text: the same text always maps to the same
// vector.
func (e *Embedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	var allEmbeddings [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", ErrEmbedding, i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

// embedBatchWithRetry generates embeddings for a single batch.
// Rate limit errors (HTTP 429) and server errors are retried at most once;
// other errors are treated as permanent and fail immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: EmbeddingModel,
		})
		if err != nil {
			if isTransientError(err) {
				return err // Will retry once
			}
			return backoff.Permanent(err)
		}

		// Convert float64 to float32 for storage compatibility
		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vec := toFloat32(data.Embedding)
			if err := checkDimension(vec); err != nil {
				return backoff.Permanent(err)
			}
			embeddings[i] = vec
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, 1), ctx))
	return embeddings, err
}

// isTransientError reports whether the error is worth a single retry:
// rate limiting (HTTP 429) or a server-side failure (5xx).
func isTransientError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// checkDimension rejects vectors whose size does not match the model's
// output. A mismatched vector cannot be stored in the index, so catching it
// here gives a clear error instead of an upsert failure later.
func checkDimension(vec []float32) error {
	if len(vec) != Dimension {
		return fmt.Errorf("unexpected embedding dimension %d, want %d", len(vec), Dimension)
	}
	return nil
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
