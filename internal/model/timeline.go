package model

import (
	"fmt"
	"time"
)

// Event impact levels.
const (
	ImpactMinor    = "minor"
	ImpactModerate = "moderate"
	ImpactMajor    = "major"
	ImpactCritical = "critical"
)

// Relationship is a structured link between two characters. A single record
// exists per unordered pair; the pair is canonicalized by sorting the IDs.
type Relationship struct {
	CharacterA string `json:"character_a"`
	CharacterB string `json:"character_b"`

	// Type is ally, friend, rival, enemy, mentor, family, romantic or neutral.
	Type string `json:"relationship_type"`

	// Strength is the relationship depth on a 0-100 scale.
	Strength int `json:"strength"`

	EstablishedChapter string `json:"established_chapter"`
	LastUpdated        string `json:"last_updated"`

	Notes string `json:"notes,omitempty"`
}

// RelationshipKey returns the canonical map key for an unordered character
// pair, so (B, A) resolves to the record created for (A, B).
func RelationshipKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("rel_%s_%s", a, b)
}

// WorldEvent is an immutable timeline entry tied to the chapter where it
// happened.
type WorldEvent struct {
	ID            string `json:"event_id"`
	ChapterID     string `json:"chapter_id"`
	ChapterNumber int    `json:"chapter_number"`

	Description string `json:"description"`

	// Type is battle, discovery, death, alliance, betrayal, revelation, etc.
	Type string `json:"event_type"`

	Impact string `json:"impact"`

	CharactersInvolved []string `json:"characters_involved,omitempty"`
	LocationsInvolved  []string `json:"locations_involved,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
