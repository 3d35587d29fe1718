package model

import "time"

// Chapter is a completed chapter with the metadata kept in memory. The full
// text lives in a separate file keyed by chapter ID. Chapters are immutable
// once merged; corrections happen by appending new facts, never by editing
// history.
type Chapter struct {
	ID     string `json:"chapter_id"`
	Number int    `json:"chapter_number"`
	ArcID  string `json:"arc_id"`

	Title     string `json:"title"`
	Summary   string `json:"summary"`
	WordCount int    `json:"word_count,omitempty"`

	KeyEvents []string `json:"key_events,omitempty"`

	CharactersPresent []string `json:"characters_present,omitempty"`
	Locations         []string `json:"locations,omitempty"`

	Cliffhanger string `json:"cliffhanger,omitempty"`

	// CliffhangerType is one of: revelation, danger, mystery,
	// character_arrival, emotional_peak, twist.
	CliffhangerType string `json:"cliffhanger_type,omitempty"`

	Themes []string `json:"themes,omitempty"`
	Tone   string   `json:"tone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
