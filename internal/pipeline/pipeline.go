// Package pipeline runs the two-stage answer generation flow: a drafting
// call against retrieved context, then a refinement call that edits the
// draft. Refinement failures degrade to the draft instead of failing the
// request.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bull/docchat-server/internal/prompt"
)

// State identifies where a request is in the pipeline.
type State string

const (
	StateDrafting  State = "DRAFTING"
	StateRefining  State = "REFINING"
	StateDone      State = "DONE"
	StateDraftOnly State = "DRAFT_ONLY"
)

// Defaults for the two generation stages.
const (
	DefaultDraftTemperature  = 0.7
	DefaultRefineTemperature = 0.5
)

// Generator produces text from a prompt. Implemented by internal/llm; tests
// substitute stubs.
type Generator interface {
	Generate(ctx context.Context, promptText string, temperature float64) (string, error)
}

// Config tunes the pipeline stages. Nil temperatures take the stage
// defaults; an explicit zero is honored.
type Config struct {
	DraftTemperature  *float64
	RefineTemperature *float64
	// RefineWithQuery includes the original question in the refinement
	// prompt so the editor stays anchored to what was asked.
	RefineWithQuery bool
}

// DefaultConfig returns the standard stage settings.
func DefaultConfig() Config {
	return Config{RefineWithQuery: true}
}

// Answer is the pipeline's final product.
type Answer struct {
	Text      string
	Sources   []string
	Refined   bool
	State     State
	Timestamp time.Time
}

// Pipeline orchestrates the draft and refine stages against one Generator.
type Pipeline struct {
	generator       Generator
	draftTemp       float64
	refineTemp      float64
	refineWithQuery bool
	logger          *slog.Logger
	now             func() time.Time
}

// New creates a Pipeline. A nil logger falls back to slog.Default().
func New(generator Generator, cfg Config, logger *slog.Logger) *Pipeline {
	draftTemp := DefaultDraftTemperature
	if cfg.DraftTemperature != nil {
		draftTemp = *cfg.DraftTemperature
	}
	refineTemp := DefaultRefineTemperature
	if cfg.RefineTemperature != nil {
		refineTemp = *cfg.RefineTemperature
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		generator:       generator,
		draftTemp:       draftTemp,
		refineTemp:      refineTemp,
		refineWithQuery: cfg.RefineWithQuery,
		logger:          logger,
		now:             time.Now,
	}
}

// Run executes the full flow for one query. A drafting failure aborts with
// ErrDraftFailed; a refinement failure returns the draft answer marked
// unrefined. The refined answer may only cite sources the draft stage cited.
func (p *Pipeline) Run(ctx context.Context, query string, retrieved prompt.Context, history []prompt.Turn) (Answer, error) {
	draft, err := p.generator.Generate(ctx, prompt.Draft(retrieved, history, query), p.draftTemp)
	if err != nil {
		return Answer{State: StateDrafting}, fmt.Errorf("%w: %v", ErrDraftFailed, err)
	}

	draftSources := retrieved.Sources
	if retrieved.Text == prompt.NoContextMarker {
		draftSources = []string{}
	}

	refined, err := p.generator.Generate(ctx, prompt.Refine(retrieved, draft, history, query, p.refineWithQuery), p.refineTemp)
	if err != nil {
		p.logger.Warn("Refinement failed, returning draft", "error", err)
		return Answer{
			Text:      draft,
			Sources:   draftSources,
			Refined:   false,
			State:     StateDraftOnly,
			Timestamp: p.now().UTC(),
		}, nil
	}

	text, sources := parseRefined(refined, draftSources)
	return Answer{
		Text:      text,
		Sources:   sources,
		Refined:   true,
		State:     StateDone,
		Timestamp: p.now().UTC(),
	}, nil
}

type refineResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// parseRefined decodes the refinement stage's JSON reply. The cited sources
// are intersected with the draft's: refinement can drop citations but never
// add ones the draft did not have. Unparseable output falls back to the raw
// refined text with the draft's full source list.
func parseRefined(raw string, draftSources []string) (string, []string) {
	var resp refineResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil || strings.TrimSpace(resp.Answer) == "" {
		return strings.TrimSpace(raw), draftSources
	}

	allowed := make(map[string]bool, len(draftSources))
	for _, s := range draftSources {
		allowed[s] = true
	}
	kept := make([]string, 0, len(resp.Sources))
	seen := make(map[string]bool, len(resp.Sources))
	for _, s := range resp.Sources {
		if allowed[s] && !seen[s] {
			kept = append(kept, s)
			seen[s] = true
		}
	}
	return strings.TrimSpace(resp.Answer), kept
}

// extractJSON strips markdown code fences and surrounding prose so a reply
// like "```json\n{...}\n```" still decodes.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}
