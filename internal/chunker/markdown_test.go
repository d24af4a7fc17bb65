package chunker

import (
	"strings"
	"testing"
)

// TestSplitMarkdown_SectionBoundaries tests that H1/H2 headers pre-segment
// the text before windowing.
func TestSplitMarkdown_SectionBoundaries(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

## Configuration

Config details here.
`

	c := New()
	chunks, err := c.SplitMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("SplitMarkdown failed: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "Introduction text here") {
		t.Errorf("Chunk 0 missing intro content: %q", chunks[0].Text)
	}
	if !strings.Contains(chunks[1].Text, "Install steps here") {
		t.Errorf("Chunk 1 missing install content: %q", chunks[1].Text)
	}
	if !strings.Contains(chunks[2].Text, "Config details here") {
		t.Errorf("Chunk 2 missing config content: %q", chunks[2].Text)
	}
	for i, chunk := range chunks {
		if chunk.Position != i {
			t.Errorf("Chunk %d: position %d", i, chunk.Position)
		}
	}
}

// TestSplitMarkdown_NoHeaders tests fallback to plain splitting when the
// document has no headers.
func TestSplitMarkdown_NoHeaders(t *testing.T) {
	input := "Just plain prose without any markdown headers at all."

	c := New()
	chunks, err := c.SplitMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("SplitMarkdown failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != input {
		t.Errorf("Chunk text mismatch: %q", chunks[0].Text)
	}
}

// TestSplitMarkdown_OversizedSection tests that a section larger than the
// chunk size is windowed within the section.
func TestSplitMarkdown_OversizedSection(t *testing.T) {
	input := "# Big Section\n\n" + strings.Repeat("Sentence padding for the oversized body. ", 60)

	c := New(WithChunkSize(1000), WithOverlap(200))
	chunks, err := c.SplitMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("SplitMarkdown failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected the section to be windowed into multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Errorf("Chunk offsets not increasing at %d", i)
		}
	}
}

// TestSplitMarkdown_Preamble tests that content before the first header is
// kept as its own section.
func TestSplitMarkdown_Preamble(t *testing.T) {
	input := "Preamble before any header.\n\n# First Section\n\nBody text.\n"

	c := New()
	chunks, err := c.SplitMarkdown([]byte(input))
	if err != nil {
		t.Fatalf("SplitMarkdown failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "Preamble") {
		t.Errorf("Chunk 0 should carry the preamble, got %q", chunks[0].Text)
	}
	if chunks[0].Start != 0 {
		t.Errorf("Preamble chunk offset: expected 0, got %d", chunks[0].Start)
	}
}
