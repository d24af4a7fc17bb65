package embedding

import (
	"errors"
	"testing"

	"github.com/openai/openai-go"
)

// TestToFloat32 verifies the float64 to float32 conversion keeps order and length.
func TestToFloat32(t *testing.T) {
	in := []float64{0.5, -1.25, 0, 3.0}
	out := toFloat32(in)

	if len(out) != len(in) {
		t.Fatalf("Expected length %d, got %d", len(in), len(out))
	}
	for i := range in {
		if float64(out[i]) != in[i] {
			t.Errorf("Index %d: expected %v, got %v", i, in[i], out[i])
		}
	}
}

// TestIsTransientError verifies retry classification of provider errors.
func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &openai.Error{StatusCode: 429}, true},
		{"server error", &openai.Error{StatusCode: 503}, true},
		{"bad request", &openai.Error{StatusCode: 400}, false},
		{"unauthorized", &openai.Error{StatusCode: 401}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientError(tt.err); got != tt.want {
				t.Errorf("isTransientError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCheckDimension verifies that only full-size vectors pass validation.
func TestCheckDimension(t *testing.T) {
	if err := checkDimension(make([]float32, Dimension)); err != nil {
		t.Errorf("Full-size vector rejected: %v", err)
	}
	if err := checkDimension(make([]float32, 12)); err == nil {
		t.Error("Truncated vector should be rejected")
	}
	if err := checkDimension(nil); err == nil {
		t.Error("Empty vector should be rejected")
	}
}

// TestNewEmbedder_DefaultBatchSize verifies the batch size fallback.
func TestNewEmbedder_DefaultBatchSize(t *testing.T) {
	e := NewEmbedder(nil, 0)
	if e.batchSize != DefaultBatchSize {
		t.Errorf("Expected default batch size %d, got %d", DefaultBatchSize, e.batchSize)
	}

	e = NewEmbedder(nil, 42)
	if e.batchSize != 42 {
		t.Errorf("Expected batch size 42, got %d", e.batchSize)
	}
}
