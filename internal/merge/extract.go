package merge

import (
	"context"
	"fmt"
	"log/slog"

	"storymem/internal/llm"
	"storymem/internal/model"
)

// Generator is the slice of the generation service the extractor needs.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

const extractSystemPrompt = `You are a story analysis expert. Extract factual state changes from narrative text.
Focus on concrete, verifiable changes: new named characters, injuries, captures or status changes, locations discovered or destroyed, plot threads introduced, advanced, or resolved.
Only include characters with names or significant roles, not unnamed townspeople or guards.
Be conservative: only report changes explicitly stated or strongly implied in the text.`

const extractPromptFormat = `Analyze this chapter and extract state changes.

CHAPTER: %s
CONTENT:
%s

Return ONLY valid JSON in this format:
{
  "new_characters": [{"name": "...", "role": "protagonist/antagonist/ally/supporting/neutral", "personality": "...", "first_description": "..."}],
  "character_updates": [{"character_name": "...", "updates": {"status": "...", "location": "...", "items_gained": ["..."], "items_lost": ["..."]}}],
  "location_updates": [{"location_name": "...", "change": "...", "status": "active/destroyed"}],
  "thread_updates": [{"action": "introduce/progress/resolve", "thread_name": "...", "description": "..."}],
  "relationships": [{"character_a": "...", "character_b": "...", "type": "ally/friend/rival/enemy/mentor/family", "description": "..."}],
  "major_events": [{"description": "...", "type": "battle/discovery/death/alliance/betrayal/revelation", "impact": "minor/moderate/major/critical"}]
}

If no changes in a category, use an empty array [].`

// Extractor derives a fact batch from finished chapter text via the
// generation service.
type Extractor struct {
	client Generator
	logger *slog.Logger
}

// NewExtractor creates an extractor on top of a generation client.
func NewExtractor(client Generator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract asks the generation service for state changes in the chapter.
// Unparseable extraction output degrades to zero facts, never an error;
// a failed generation call is returned as-is so the caller can decide
// whether to retry the whole operation.
func (e *Extractor) Extract(ctx context.Context, chapter *model.Chapter, content string) (FactBatch, error) {
	response, err := e.client.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf(extractPromptFormat, chapter.Title, content),
		System:      extractSystemPrompt,
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return FactBatch{}, fmt.Errorf("extract facts: %w", err)
	}

	batch, err := ParseFactBatch(response)
	if err != nil {
		e.logger.Warn("unparseable extraction output; using zero facts", "chapter", chapter.ID, "err", err)
		return FactBatch{}, nil
	}
	return batch, nil
}
