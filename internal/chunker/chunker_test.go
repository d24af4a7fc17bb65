package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

// TestSplit_ShortInput tests that input below the chunk size yields exactly
// one chunk with no overlap.
func TestSplit_ShortInput(t *testing.T) {
	c := New()
	chunks, err := c.Split("a short document")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Position != 0 || chunks[0].Start != 0 {
		t.Errorf("Chunk 0: expected position 0 at offset 0, got position %d at offset %d",
			chunks[0].Position, chunks[0].Start)
	}
	if chunks[0].Text != "a short document" {
		t.Errorf("Chunk 0 text mismatch: %q", chunks[0].Text)
	}
}

// TestSplit_EmptyInput tests that empty and whitespace-only input is rejected.
func TestSplit_EmptyInput(t *testing.T) {
	c := New()
	for _, input := range []string{"", "   ", "\n\n\t"} {
		_, err := c.Split(input)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Split(%q): expected ErrEmptyInput, got %v", input, err)
		}
	}
}

// TestSplit_HardCut tests boundary-free text: 2500 characters with chunk
// size 1000 and overlap 200 must produce chunks at offsets 0, 800, 1600.
func TestSplit_HardCut(t *testing.T) {
	text := strings.Repeat("x", 2500)
	c := New(WithChunkSize(1000), WithOverlap(200))

	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	wantStarts := []int{0, 800, 1600}
	for i, chunk := range chunks {
		if chunk.Position != i {
			t.Errorf("Chunk %d: position %d", i, chunk.Position)
		}
		if chunk.Start != wantStarts[i] {
			t.Errorf("Chunk %d: expected offset %d, got %d", i, wantStarts[i], chunk.Start)
		}
	}
	if len(chunks[2].Text) != 900 {
		t.Errorf("Final chunk length: expected 900, got %d", len(chunks[2].Text))
	}
}

// TestSplit_ParagraphBoundary tests that a paragraph break inside the window
// takes priority over a hard character cut.
func TestSplit_ParagraphBoundary(t *testing.T) {
	text := strings.Repeat("a", 900) + "\n\n" + strings.Repeat("b", 1100)
	c := New(WithChunkSize(1000), WithOverlap(200))

	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if !strings.HasSuffix(chunks[0].Text, "\n\n") {
		t.Errorf("Chunk 0 should end at the paragraph break, got suffix %q",
			chunks[0].Text[len(chunks[0].Text)-5:])
	}
	if len(chunks[0].Text) != 902 {
		t.Errorf("Chunk 0 length: expected 902, got %d", len(chunks[0].Text))
	}
}

// TestSplit_SentenceBoundary tests that sentence ends are used when no
// paragraph break exists in the window.
func TestSplit_SentenceBoundary(t *testing.T) {
	text := strings.Repeat("Here is one more sentence written for the splitter. ", 40)
	c := New(WithChunkSize(1000), WithOverlap(200))

	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk.Text, ". ") {
			t.Errorf("Chunk %d does not end on a sentence boundary: %q",
				i, chunk.Text[len(chunk.Text)-10:])
		}
	}
}

// TestSplit_Coverage tests that every character of the input appears in at
// least one chunk and that adjacent chunks overlap.
func TestSplit_Coverage(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 120)
	c := New(WithChunkSize(1000), WithOverlap(200))

	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	covered := 0
	for i, chunk := range chunks {
		if chunk.Start > covered {
			t.Fatalf("Gap before chunk %d: covered to %d, chunk starts at %d",
				i, covered, chunk.Start)
		}
		if end := chunk.Start + len(chunk.Text); end > covered {
			covered = end
		}
		if text[chunk.Start:chunk.Start+len(chunk.Text)] != chunk.Text {
			t.Fatalf("Chunk %d text does not match source at offset %d", i, chunk.Start)
		}
	}
	if covered != len(text) {
		t.Errorf("Coverage ends at %d, input has %d characters", covered, len(text))
	}

	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].Start + len(chunks[i-1].Text)
		if chunks[i].Start >= prevEnd {
			t.Errorf("Chunks %d and %d do not overlap", i-1, i)
		}
	}
}

// TestSplit_Deterministic tests that identical input and parameters yield
// identical boundaries across runs.
func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Some prose with occasional breaks.\n\nAnother paragraph follows here. ", 60)
	c := New(WithChunkSize(1000), WithOverlap(200))

	first, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Chunk %d differs between runs", i)
		}
	}
}

// TestSplit_MultibyteHardCut tests that a hard cut through boundary-free
// multi-byte text lands on rune boundaries, so every chunk stays valid UTF-8.
func TestSplit_MultibyteHardCut(t *testing.T) {
	text := strings.Repeat("世", 1200)
	c := New(WithChunkSize(1000), WithOverlap(200))

	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	covered := 0
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk.Text) {
			t.Errorf("Chunk %d is not valid UTF-8", i)
		}
		if chunk.Start > covered {
			t.Fatalf("Gap before chunk %d: covered to %d, chunk starts at %d",
				i, covered, chunk.Start)
		}
		if end := chunk.Start + len(chunk.Text); end > covered {
			covered = end
		}
	}
	if covered != len(text) {
		t.Errorf("Coverage ends at %d, input has %d bytes", covered, len(text))
	}
}

// TestSplit_OverlapClamped tests that an overlap at or above the chunk size
// is reduced rather than causing the splitter to stall.
func TestSplit_OverlapClamped(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(100))
	chunks, err := c.Split(strings.Repeat("y", 500))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("Expected multiple chunks, got %d", len(chunks))
	}
}
