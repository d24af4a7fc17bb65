package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bull/docchat-server/internal/retriever"
	"github.com/bull/docchat-server/internal/vectorstore"
)

func TestAssemble_NumbersAndSources(t *testing.T) {
	results := []retriever.Result{
		{Chunk: vectorstore.ChunkRecord{Text: "first chunk"}, Label: "a.md#chunk-0"},
		{Chunk: vectorstore.ChunkRecord{Text: "second chunk"}, Label: "a.md#chunk-3"},
	}

	ctx := Assemble(results)

	if !strings.Contains(ctx.Text, "[1] a.md#chunk-0\nfirst chunk") {
		t.Errorf("missing first block:\n%s", ctx.Text)
	}
	if !strings.Contains(ctx.Text, "[2] a.md#chunk-3\nsecond chunk") {
		t.Errorf("missing second block:\n%s", ctx.Text)
	}
	if len(ctx.Sources) != 2 || ctx.Sources[0] != "a.md#chunk-0" {
		t.Errorf("unexpected sources: %v", ctx.Sources)
	}
}

func TestAssemble_Empty(t *testing.T) {
	ctx := Assemble(nil)
	if ctx.Text != NoContextMarker {
		t.Errorf("expected no-context marker, got %q", ctx.Text)
	}
	if len(ctx.Sources) != 0 {
		t.Errorf("expected no sources, got %v", ctx.Sources)
	}
}

func TestFormatHistory_BoundsTurns(t *testing.T) {
	var turns []Turn
	for i := 0; i < MaxHistoryTurns+4; i++ {
		turns = append(turns, Turn{Role: RoleUser, Content: fmt.Sprintf("message %d", i)})
	}

	out := FormatHistory(turns)

	if strings.Contains(out, "message 3") {
		t.Error("expected oldest turns to be dropped")
	}
	if !strings.Contains(out, fmt.Sprintf("message %d", MaxHistoryTurns+3)) {
		t.Error("expected newest turn to be kept")
	}
	if got := strings.Count(out, "User: "); got != MaxHistoryTurns {
		t.Errorf("expected %d turns, got %d", MaxHistoryTurns, got)
	}
}

func TestFormatHistory_Roles(t *testing.T) {
	out := FormatHistory([]Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	})
	want := "User: hi\nAssistant: hello"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestDraft_IncludesAllParts(t *testing.T) {
	ctx := Context{Text: "CONTEXT BLOCK", Sources: []string{"a.md#chunk-0"}}
	history := []Turn{{Role: RoleUser, Content: "earlier question"}}

	p := Draft(ctx, history, "what now?")

	for _, part := range []string{DraftSystem, "CONTEXT BLOCK", "earlier question", "Question: what now?"} {
		if !strings.Contains(p, part) {
			t.Errorf("draft prompt missing %q", part)
		}
	}
}

func TestDraft_NoHistorySection(t *testing.T) {
	p := Draft(Context{Text: NoContextMarker}, nil, "q")
	if strings.Contains(p, "Conversation so far") {
		t.Error("empty history should not produce a history section")
	}
}

func TestRefine_QueryToggle(t *testing.T) {
	ctx := Context{Text: "CONTEXT"}

	with := Refine(ctx, "the draft", nil, "the question", true)
	if !strings.Contains(with, "Original question: the question") {
		t.Error("expected question included when withQuery is set")
	}

	without := Refine(ctx, "the draft", nil, "the question", false)
	if strings.Contains(without, "Original question") {
		t.Error("expected question omitted when withQuery is unset")
	}
	if !strings.Contains(without, "Draft answer:\nthe draft") {
		t.Error("expected draft included")
	}
}

func TestRefine_IncludesHistory(t *testing.T) {
	history := []Turn{{Role: RoleAssistant, Content: "earlier answer"}}

	p := Refine(Context{Text: "CONTEXT"}, "draft", history, "q", true)
	if !strings.Contains(p, "Assistant: earlier answer") {
		t.Error("expected history in refine prompt")
	}
}
