// Package vectorstore stores chunk embeddings in Qdrant and serves
// k-nearest-neighbor queries over them.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Store wraps the Qdrant client with connection management and health checks.
// Multiple instances are safely constructible; each owns its own connection.
type Store struct {
	client *qdrant.Client
	host   string
	port   int
}

// New creates a new Qdrant-backed store with health validation.
// It performs a health check with retry on startup and fails fast if Qdrant
// is unreachable.
func New(host string, port int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &Store{
		client: client,
		host:   host,
		port:   port,
	}

	// Startup gets a longer retry budget than per-operation calls: the
	// index may still be coming up.
	ctx := context.Background()
	if err := s.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return s, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return s.Health(ctx)
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection ensures the chunks collection exists with proper
// configuration: 1536-dimension vectors with cosine distance and a payload
// index on document_id for filtered queries and deletes.
// Idempotent - safe to call multiple times.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to list collections: %v", ErrUnreachable, err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Without this index, document-filtered queries and deletes scan the
	// whole collection.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: CollectionName,
		FieldName:      "document_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create document_id index: %w", err)
	}

	return nil
}

// ClearCollection deletes all points in the collection.
// Useful for re-indexing scenarios and tests.
func (s *Store) ClearCollection(ctx context.Context) error {
	err := s.client.DeleteCollection(ctx, CollectionName)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs an upsert, retrying once on transient failure.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, 1), ctx))
}

// Upsert stores the chunks of one document. Replaces entries with the same
// chunk ID, so repeating an upsert with identical input is idempotent.
// Chunks are batched in groups of 100 for performance. Callers must not
// assume partial success on error: a failed upsert is cleaned up with
// DeleteByDocument.
func (s *Store) Upsert(ctx context.Context, documentID string, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"document_id": documentID,
					"position":    chunk.Position,
					"text":        chunk.Text,
					"filename":    chunk.Filename,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("%w: failed to upsert batch %d-%d: %v", ErrUnreachable, i, end, err)
		}
	}

	return nil
}

// DeleteByDocument removes every chunk owned by the document. The delete is
// a single filtered operation with wait semantics, so no query observes a
// partially-deleted chunk set. Succeeds when the document has zero chunks.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete chunks for document %s: %v", ErrUnreachable, documentID, err)
	}
	return nil
}

// Query performs cosine similarity search over chunk vectors. Results are
// ordered by descending score; ties break by ascending chunk position so
// rankings are deterministic. An empty documentID searches all documents.
func (s *Store) Query(ctx context.Context, vector []float32, k int, documentID string) ([]ScoredChunk, error) {
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), VectorDimension)
	}
	if k <= 0 {
		k = 5
	}

	var filter *qdrant.Filter
	if documentID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", ErrUnreachable, err)
	}

	scored := make([]ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload

		scored = append(scored, ScoredChunk{
			Chunk: ChunkRecord{
				ID:         result.Id.GetUuid(),
				DocumentID: payload["document_id"].GetStringValue(),
				Position:   int(payload["position"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
				Filename:   payload["filename"].GetStringValue(),
				// Embedding not returned in search results (not needed)
			},
			Score: float64(result.Score),
		})
	}

	sortScored(scored)
	return scored, nil
}

// Count returns the number of chunks owned by the document, or all chunks
// when documentID is empty.
func (s *Store) Count(ctx context.Context, documentID string) (uint64, error) {
	var filter *qdrant.Filter
	if documentID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: CollectionName,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count failed: %v", ErrUnreachable, err)
	}
	return count, nil
}

// sortScored orders results by descending score, ties broken by ascending
// chunk position.
func sortScored(chunks []ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		return chunks[i].Chunk.Position < chunks[j].Chunk.Position
	})
}
