package merge

import (
	"testing"

	"storymem/internal/model"
)

func TestParseFactBatchPlain(t *testing.T) {
	raw := `{"new_characters": [{"name": "Zephyr"}], "thread_updates": [{"action": "introduce", "thread_name": "Missing traders"}]}`

	batch, err := ParseFactBatch(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(batch.NewCharacters) != 1 || batch.NewCharacters[0].Name != "Zephyr" {
		t.Errorf("unexpected characters: %+v", batch.NewCharacters)
	}
	if len(batch.ThreadActions) != 1 || batch.ThreadActions[0].Action != ActionIntroduce {
		t.Errorf("unexpected thread actions: %+v", batch.ThreadActions)
	}
}

func TestParseFactBatchCodeFence(t *testing.T) {
	raw := "```json\n{\"major_events\": [{\"description\": \"The port burns\"}]}\n```"

	batch, err := ParseFactBatch(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(batch.MajorEvents) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch.MajorEvents))
	}
}

func TestParseFactBatchMalformed(t *testing.T) {
	batch, err := ParseFactBatch("not json at all")
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !batch.Empty() {
		t.Error("expected empty batch on parse failure")
	}
}

func TestParseFactBatchDefaults(t *testing.T) {
	raw := `{
		"new_characters": [{"name": "Zephyr"}],
		"relationships": [{"character_a": "A", "character_b": "B"}],
		"major_events": [{"description": "something happened"}]
	}`

	batch, err := ParseFactBatch(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if batch.NewCharacters[0].Role != model.RoleNeutral {
		t.Errorf("expected default role neutral, got %q", batch.NewCharacters[0].Role)
	}
	if batch.Relationships[0].Type != "neutral" {
		t.Errorf("expected default relationship type neutral, got %q", batch.Relationships[0].Type)
	}
	if batch.MajorEvents[0].Type != "discovery" || batch.MajorEvents[0].Impact != model.ImpactMinor {
		t.Errorf("expected event defaults, got %+v", batch.MajorEvents[0])
	}
}

func TestCharacterDeltaOptionalFields(t *testing.T) {
	raw := `{"character_updates": [{"character_name": "Kael", "updates": {"items_gained": ["rope"]}}]}`

	batch, err := ParseFactBatch(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	delta := batch.CharacterUpdates[0].Updates
	if delta.Status != nil || delta.Location != nil {
		t.Error("absent fields should decode to nil pointers")
	}
	if len(delta.ItemsGained) != 1 {
		t.Errorf("expected 1 item gained, got %d", len(delta.ItemsGained))
	}
}
