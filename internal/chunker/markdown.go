package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// markdownParser is shared by all SplitMarkdown calls. Parsing is stateless.
var markdownParser = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// SplitMarkdown divides markdown text into overlapping chunks, treating H1
// and H2 section boundaries as the highest-priority break points. Each
// section is windowed independently, so overlap never crosses a section
// boundary. Documents without headers degrade to the plain Split behavior.
func (c *Chunker) SplitMarkdown(source []byte) ([]Chunk, error) {
	reader := text.NewReader(source)
	doc := markdownParser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	if len(tree.Items) == 0 {
		return c.Split(string(source))
	}

	// Section boundaries are the start offsets of each H1/H2 heading, in
	// document order, plus any preamble before the first heading.
	starts := headingStarts(doc, source, tree.Items)
	if len(starts) == 0 {
		return c.Split(string(source))
	}
	sort.Ints(starts)

	var sections []int
	if starts[0] > 0 && strings.TrimSpace(string(source[:starts[0]])) != "" {
		sections = append(sections, 0)
	}
	sections = append(sections, starts...)

	var chunks []Chunk
	for i, secStart := range sections {
		secEnd := len(source)
		if i+1 < len(sections) {
			secEnd = sections[i+1]
		}

		secChunks, err := c.Split(string(source[secStart:secEnd]))
		if err != nil {
			// Whitespace-only section, nothing to index.
			continue
		}
		for _, sc := range secChunks {
			chunks = append(chunks, Chunk{
				Position: len(chunks),
				Start:    secStart + sc.Start,
				Text:     sc.Text,
			})
		}
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}
	return chunks, nil
}

// headingStarts resolves TOC items to their byte offsets in document order.
// Offsets point at the start of the heading line, so the "#" markers stay
// with their section.
func headingStarts(doc ast.Node, source []byte, items toc.Items) []int {
	var starts []int
	collectHeadingStarts(doc, source, items, &starts)
	return starts
}

func collectHeadingStarts(doc ast.Node, source []byte, items toc.Items, starts *[]int) {
	for _, item := range items {
		if node := findHeaderByID(doc, string(item.ID)); node != nil && node.Lines().Len() > 0 {
			start := node.Lines().At(0).Start
			for start > 0 && source[start-1] != '\n' {
				start--
			}
			*starts = append(*starts, start)
		}
		if len(item.Items) > 0 {
			collectHeadingStarts(doc, source, item.Items, starts)
		}
	}
}

// findHeaderByID locates a heading node by its auto-generated ID.
func findHeaderByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}
