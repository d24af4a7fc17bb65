// Package ingest orchestrates document ingestion: chunk, embed, index, and
// record in the catalog. Re-ingesting a filename replaces its previous
// version atomically from the reader's point of view.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bull/docchat-server/internal/chunker"
	"github.com/bull/docchat-server/internal/store"
	"github.com/bull/docchat-server/internal/vectorstore"
)

// Embedder turns chunk texts into vectors.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores and deletes chunk vectors.
type Index interface {
	Upsert(ctx context.Context, documentID string, chunks []vectorstore.ChunkRecord) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Catalog records document rows.
type Catalog interface {
	UpsertDocument(ctx context.Context, doc *store.Document) error
	GetDocument(ctx context.Context, id string) (*store.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Result summarizes one ingestion. Skipped is set when the source content
// was already ingested at the same version.
type Result struct {
	DocumentID string
	Filename   string
	ChunkCount int
	Skipped    bool
	Duration   time.Duration
}

// Ingester runs the chunk-embed-index flow for documents.
type Ingester struct {
	chunker  *chunker.Chunker
	embedder Embedder
	index    Index
	catalog  Catalog
	logger   *slog.Logger

	// one mutex per document ID, so concurrent ingestions of the same
	// document never interleave their index writes
	docLocks sync.Map
}

// New creates an Ingester. A nil logger falls back to slog.Default().
func New(ch *chunker.Chunker, embedder Embedder, index Index, catalog Catalog, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		chunker:  ch,
		embedder: embedder,
		index:    index,
		catalog:  catalog,
		logger:   logger,
	}
}

// DocumentID derives the stable document ID for a filename. The same file
// always maps to the same ID, which is what makes re-ingestion a
// replacement.
func DocumentID(filename string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filename)).String()
}

// Ingest processes one document. Markdown files are split along their header
// structure, everything else by the plain character windows. On a partial
// failure both the document's vectors and its catalog row are removed, so
// the catalog never claims chunks the index does not hold.
func (in *Ingester) Ingest(ctx context.Context, filename, content string) (*Result, error) {
	return in.ingestVersion(ctx, filename, content, "")
}

func (in *Ingester) ingestVersion(ctx context.Context, filename, content, sourceSHA string) (*Result, error) {
	docID := DocumentID(filename)

	lock, _ := in.docLocks.LoadOrStore(docID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if sourceSHA != "" {
		if existing, err := in.catalog.GetDocument(ctx, docID); err == nil && existing.SourceSHA == sourceSHA {
			in.logger.Info("Document unchanged, skipping", "filename", filename, "sha", sourceSHA)
			return &Result{DocumentID: docID, Filename: filename, ChunkCount: existing.ChunkCount, Skipped: true}, nil
		}
	}

	start := time.Now()
	in.logger.Info("Ingesting document", "filename", filename, "id", docID)

	// drop the previous version's vectors first so replaced chunks never
	// linger next to new ones
	if err := in.index.DeleteByDocument(ctx, docID); err != nil {
		return nil, fmt.Errorf("clear previous version: %w", err)
	}

	chunks, err := in.splitContent(filename, content)
	if err != nil {
		in.cleanup(ctx, docID)
		return nil, fmt.Errorf("chunk %s: %w", filename, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := in.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		in.cleanup(ctx, docID)
		return nil, fmt.Errorf("embed %s: %w", filename, err)
	}

	records := make([]vectorstore.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.ChunkRecord{
			ID:         uuid.NewString(),
			DocumentID: docID,
			Position:   c.Position,
			Text:       c.Text,
			Filename:   filename,
			Embedding:  embeddings[i],
		}
	}

	if err := in.index.Upsert(ctx, docID, records); err != nil {
		in.cleanup(ctx, docID)
		return nil, fmt.Errorf("index %s: %w", filename, err)
	}

	// the catalog row goes in last: a document is only visible once its
	// vectors are fully queryable
	doc := &store.Document{
		ID:         docID,
		Filename:   filename,
		UploadDate: time.Now().UTC(),
		FileSize:   int64(len(content)),
		ChunkCount: len(chunks),
		SourceSHA:  sourceSHA,
	}
	if err := in.catalog.UpsertDocument(ctx, doc); err != nil {
		in.cleanup(ctx, docID)
		return nil, fmt.Errorf("record %s: %w", filename, err)
	}

	result := &Result{
		DocumentID: docID,
		Filename:   filename,
		ChunkCount: len(chunks),
		Duration:   time.Since(start),
	}
	in.logger.Info("Ingested document", "filename", filename, "chunks", result.ChunkCount, "duration", result.Duration)
	return result, nil
}

// Delete removes a document from the index and the catalog.
func (in *Ingester) Delete(ctx context.Context, documentID string) error {
	lock, _ := in.docLocks.LoadOrStore(documentID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if err := in.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := in.catalog.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete catalog row: %w", err)
	}
	in.logger.Info("Deleted document", "id", documentID)
	return nil
}

func (in *Ingester) splitContent(filename, content string) ([]chunker.Chunk, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".md") {
		return in.chunker.SplitMarkdown([]byte(content))
	}
	return in.chunker.Split(content)
}

// cleanup removes whatever a failed ingestion left behind. The previous
// version's vectors are already gone by then, so a surviving catalog row
// would claim chunks the index does not hold; it has to go too.
func (in *Ingester) cleanup(ctx context.Context, docID string) {
	if err := in.index.DeleteByDocument(ctx, docID); err != nil {
		in.logger.Warn("Cleanup after failed ingestion failed", "id", docID, "error", err)
	}
	if err := in.catalog.DeleteDocument(ctx, docID); err != nil && !errors.Is(err, store.ErrDocumentNotFound) {
		in.logger.Warn("Removing catalog row after failed ingestion failed", "id", docID, "error", err)
	}
}
