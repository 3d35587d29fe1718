package merge

import (
	"encoding/json"
	"fmt"
	"strings"

	"storymem/internal/model"
)

// Thread actions.
const (
	ActionIntroduce = "introduce"
	ActionProgress  = "progress"
	ActionResolve   = "resolve"
)

// NewCharacter is a first-mention character fact.
type NewCharacter struct {
	Name             string `json:"name"`
	Role             string `json:"role,omitempty"`
	Personality      string `json:"personality,omitempty"`
	FirstDescription string `json:"first_description,omitempty"`
}

// CharacterDelta carries optional attribute changes. Nil pointer fields
// were absent from the extraction and leave the stored value alone.
type CharacterDelta struct {
	Status      *string  `json:"status,omitempty"`
	Location    *string  `json:"location,omitempty"`
	ItemsGained []string `json:"items_gained,omitempty"`
	ItemsLost   []string `json:"items_lost,omitempty"`
}

// CharacterUpdate targets an existing character by its canonical name.
type CharacterUpdate struct {
	CharacterName string         `json:"character_name"`
	Updates       CharacterDelta `json:"updates"`
}

// LocationUpdate notes a change to a known location. Unknown locations are
// logged as mentioned, never auto-created.
type LocationUpdate struct {
	LocationName string `json:"location_name"`
	Change       string `json:"change,omitempty"`
	Status       string `json:"status,omitempty"`
}

// ThreadAction introduces, progresses, or resolves a plot thread.
type ThreadAction struct {
	Action      string `json:"action"`
	ThreadName  string `json:"thread_name"`
	Description string `json:"description,omitempty"`
}

// RelationshipMention records two characters relating within the chapter.
type RelationshipMention struct {
	CharacterA  string `json:"character_a"`
	CharacterB  string `json:"character_b"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// TimelineEvent is a major event worth a timeline entry.
type TimelineEvent struct {
	Description string `json:"description"`
	Type        string `json:"type,omitempty"`
	Impact      string `json:"impact,omitempty"`
}

// FactBatch is the structured set of extracted deltas derived from one
// finished chapter. Field names follow the extraction output schema.
type FactBatch struct {
	NewCharacters    []NewCharacter        `json:"new_characters"`
	CharacterUpdates []CharacterUpdate     `json:"character_updates"`
	LocationUpdates  []LocationUpdate      `json:"location_updates"`
	ThreadActions    []ThreadAction        `json:"thread_updates"`
	Relationships    []RelationshipMention `json:"relationships"`
	MajorEvents      []TimelineEvent       `json:"major_events"`
}

// Empty reports whether the batch carries no facts at all.
func (b *FactBatch) Empty() bool {
	return len(b.NewCharacters) == 0 && len(b.CharacterUpdates) == 0 &&
		len(b.LocationUpdates) == 0 && len(b.ThreadActions) == 0 &&
		len(b.Relationships) == 0 && len(b.MajorEvents) == 0
}

// applyDefaults fills category defaults at the boundary so merge logic
// never sees missing enum values.
func (b *FactBatch) applyDefaults() {
	for i := range b.NewCharacters {
		if b.NewCharacters[i].Role == "" {
			b.NewCharacters[i].Role = model.RoleNeutral
		}
	}
	for i := range b.Relationships {
		if b.Relationships[i].Type == "" {
			b.Relationships[i].Type = "neutral"
		}
	}
	for i := range b.MajorEvents {
		if b.MajorEvents[i].Type == "" {
			b.MajorEvents[i].Type = "discovery"
		}
		if b.MajorEvents[i].Impact == "" {
			b.MajorEvents[i].Impact = model.ImpactMinor
		}
	}
}

// ParseFactBatch decodes extraction output into a fact batch, tolerating a
// surrounding markdown code fence. Callers on the extraction path treat a
// decode error as "zero facts"; callers reading explicit files surface it.
func ParseFactBatch(raw string) (FactBatch, error) {
	var batch FactBatch
	cleaned := stripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return FactBatch{}, fmt.Errorf("decode fact batch: %w", err)
	}
	batch.applyDefaults()
	return batch, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	start, end := 1, len(lines)
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			end = i
			break
		}
	}
	return strings.Join(lines[start:end], "\n")
}
