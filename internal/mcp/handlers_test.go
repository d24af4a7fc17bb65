package mcp

import (
	"context"
	"testing"
)

func TestCreateConversationHandler_RequiresDocumentID(t *testing.T) {
	h := makeCreateConversationHandler(nil)

	_, _, err := h(context.Background(), nil, CreateConversationInput{})
	if err == nil {
		t.Fatal("expected error for missing document_id")
	}
}

func TestAppendMessageHandler_RejectsUnsupportedRole(t *testing.T) {
	h := makeAppendMessageHandler(nil)

	for _, role := range []string{"", "system", "tool"} {
		_, _, err := h(context.Background(), nil, AppendMessageInput{
			ConversationID: "conv-1",
			Role:           role,
			Content:        "hello",
		})
		if err == nil {
			t.Errorf("role %q should be rejected", role)
		}
	}
}

func TestAppendMessageHandler_RequiresContent(t *testing.T) {
	h := makeAppendMessageHandler(nil)

	_, _, err := h(context.Background(), nil, AppendMessageInput{
		ConversationID: "conv-1",
		Role:           "user",
	})
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}
