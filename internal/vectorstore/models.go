package vectorstore

// ChunkRecord is a chunk entry in the vector index: embedding plus the
// metadata needed for citation and ordering.
type ChunkRecord struct {
	ID         string    // UUID
	DocumentID string    // Owning document
	Position   int       // Position in document (0, 1, 2...)
	Text       string    // Chunk text content
	Filename   string    // Owning document's filename (for source labels)
	Embedding  []float32 // 1536-dim vector (text-embedding-3-small)
}

// ScoredChunk pairs a chunk with its cosine similarity score for a query.
type ScoredChunk struct {
	Chunk ChunkRecord
	Score float64
}

// CollectionName is the single Qdrant collection for all chunks.
const CollectionName = "chunks"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
