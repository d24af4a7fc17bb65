// Package chunker splits extracted document text into overlapping windows
// suitable for embedding and retrieval.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default target chunk size in characters.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters between
// adjacent chunks.
const DefaultOverlap = 200

// minBoundaryFraction limits how far back boundary snapping may move a cut.
// A boundary is only used if it leaves at least half the target window,
// otherwise chunks could collapse to near-empty slices.
const minBoundaryFraction = 2

// Chunk is a bounded slice of a document's text. Position defines
// reconstruction order; Start is the byte offset into the source text.
type Chunk struct {
	Position int
	Start    int
	Text     string
}

// Chunker splits text along a priority of boundary types: paragraph breaks,
// then sentence breaks, then a hard character cut. Identical input and
// parameters always yield identical chunk boundaries.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Overlap must leave room for forward progress.
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Split divides text into overlapping chunks. Input shorter than the chunk
// size yields exactly one chunk with no overlap. Empty or whitespace-only
// input is a chunking error: no partial output is ever returned.
func (c *Chunker) Split(text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	if len(text) <= c.size {
		return []Chunk{{Position: 0, Start: 0, Text: text}}, nil
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.snapBoundary(text, start, end)
			end = snapRuneStart(text, end)
		}

		chunks = append(chunks, Chunk{
			Position: len(chunks),
			Start:    start,
			Text:     text[start:end],
		})

		if end == len(text) {
			break
		}

		next := snapRuneStart(text, end-c.overlap)
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// snapBoundary moves the cut point at end back to the nearest natural
// boundary inside the window, preferring paragraph breaks over sentence
// breaks. The cut never moves past the midpoint of the window; with no
// boundary there, the hard character cut stands.
func (c *Chunker) snapBoundary(text string, start, end int) int {
	window := text[start:end]
	min := len(window) / minBoundaryFraction

	if i := strings.LastIndex(window, "\n\n"); i > min {
		return start + i + len("\n\n")
	}
	if i := lastSentenceEnd(window); i > min {
		return start + i
	}
	return end
}

// snapRuneStart moves i back to the start of the rune it falls inside,
// so a hard character cut never splits a multi-byte rune.
func snapRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// lastSentenceEnd returns the byte offset just past the last sentence
// terminator in s, or -1 when none exists.
func lastSentenceEnd(s string) int {
	best := -1
	for _, sep := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n", "\n"} {
		if i := strings.LastIndex(s, sep); i >= 0 && i+len(sep) > best {
			best = i + len(sep)
		}
	}
	return best
}
