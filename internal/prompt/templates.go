package prompt

import (
	"fmt"
	"strings"
)

// DraftSystem instructs the first generation stage: answer strictly from the
// supplied context and cite the numbered sources used.
const DraftSystem = `You are a document question answering assistant.
Answer the user's question using only the provided document context.
If the context does not contain the answer, say so plainly; do not invent facts.
When you use information from a context block, mention its source label.`

// RefineSystem instructs the second stage: tighten the draft without adding
// material beyond what the context supports, and report which sources the
// final answer actually relies on.
const RefineSystem = `You are an editor reviewing a draft answer about a document.
Improve the draft: fix errors, remove unsupported claims, and make it concise.
Do not introduce any information that is not in the draft or the context.
Respond with a JSON object of the form {"answer": "...", "sources": ["..."]}
where sources lists only the source labels the final answer relies on.`

// Draft builds the complete first-stage prompt from retrieval context,
// optional history, and the user's question.
func Draft(ctx Context, history []Turn, query string) string {
	var b strings.Builder
	b.WriteString(DraftSystem)
	b.WriteString("\n\nDocument context:\n")
	b.WriteString(ctx.Text)
	if h := FormatHistory(history); h != "" {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(h)
	}
	fmt.Fprintf(&b, "\n\nQuestion: %s", strings.TrimSpace(query))
	return b.String()
}

// Refine builds the second-stage prompt around a draft answer. The editor
// sees the same context and history the draft stage saw; the original
// question is included when withQuery is set, which keeps the editor anchored
// to what was actually asked.
func Refine(ctx Context, draft string, history []Turn, query string, withQuery bool) string {
	var b strings.Builder
	b.WriteString(RefineSystem)
	b.WriteString("\n\nDocument context:\n")
	b.WriteString(ctx.Text)
	if h := FormatHistory(history); h != "" {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(h)
	}
	if withQuery {
		fmt.Fprintf(&b, "\n\nOriginal question: %s", strings.TrimSpace(query))
	}
	b.WriteString("\n\nDraft answer:\n")
	b.WriteString(strings.TrimSpace(draft))
	return b.String()
}
