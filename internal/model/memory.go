// Package model defines the narrative state data types.
package model

import (
	"fmt"
	"sort"
	"time"
)

// HistoryEntry is one line of the coarse world history log.
type HistoryEntry struct {
	ChapterID string `json:"chapter_id"`
	Event     string `json:"event"`
}

// StoryMemory is the aggregate root owning all story state. Entities are
// created only through the merge pipeline or story bootstrap; derived views
// are computed on demand and never cached.
type StoryMemory struct {
	StoryTitle string `json:"story_title"`
	WorldName  string `json:"world_name"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`

	CurrentChapterNumber int    `json:"current_chapter_number"`
	CurrentArcID         string `json:"current_arc_id,omitempty"`

	Characters map[string]*Character     `json:"characters"`
	Locations  map[string]*WorldLocation `json:"locations"`
	Factions   map[string]*Faction       `json:"factions"`
	Artifacts  map[string]*Artifact      `json:"artifacts"`

	Arcs        map[string]*Arc        `json:"arcs"`
	Chapters    map[string]*Chapter    `json:"chapters"`
	PlotThreads map[string]*PlotThread `json:"plot_threads"`

	Relationships map[string]*Relationship `json:"relationships"`
	WorldTimeline []WorldEvent             `json:"world_timeline"`

	SagaGoal       string   `json:"saga_goal,omitempty"`
	SagaMilestones []string `json:"saga_milestones,omitempty"`

	ArcTypeHistory  []string       `json:"arc_type_history,omitempty"`
	ThemeCounts     map[string]int `json:"theme_counts,omitempty"`
	WorldHistoryLog []HistoryEntry `json:"world_history_log,omitempty"`
}

// NewStoryMemory creates an empty story state.
func NewStoryMemory(title, world, sagaGoal string) *StoryMemory {
	now := time.Now().UTC()
	m := &StoryMemory{
		StoryTitle:  title,
		WorldName:   world,
		SagaGoal:    sagaGoal,
		CreatedAt:   now,
		LastUpdated: now,
	}
	m.EnsureCollections()
	return m
}

// EnsureCollections initializes any nil collection maps, so state decoded
// from older persisted documents is safe to mutate.
func (m *StoryMemory) EnsureCollections() {
	if m.Characters == nil {
		m.Characters = map[string]*Character{}
	}
	if m.Locations == nil {
		m.Locations = map[string]*WorldLocation{}
	}
	if m.Factions == nil {
		m.Factions = map[string]*Faction{}
	}
	if m.Artifacts == nil {
		m.Artifacts = map[string]*Artifact{}
	}
	if m.Arcs == nil {
		m.Arcs = map[string]*Arc{}
	}
	if m.Chapters == nil {
		m.Chapters = map[string]*Chapter{}
	}
	if m.PlotThreads == nil {
		m.PlotThreads = map[string]*PlotThread{}
	}
	if m.Relationships == nil {
		m.Relationships = map[string]*Relationship{}
	}
	if m.ThemeCounts == nil {
		m.ThemeCounts = map[string]int{}
	}
}

// CurrentArc returns the active arc, or nil when none is set.
func (m *StoryMemory) CurrentArc() *Arc {
	if m.CurrentArcID == "" {
		return nil
	}
	return m.Arcs[m.CurrentArcID]
}

// CharacterByName returns the character with the exact given name.
func (m *StoryMemory) CharacterByName(name string) *Character {
	for _, id := range sortedKeys(m.Characters) {
		if m.Characters[id].Name == name {
			return m.Characters[id]
		}
	}
	return nil
}

// LocationByName returns the location with the exact given name.
func (m *StoryMemory) LocationByName(name string) *WorldLocation {
	for _, id := range sortedKeys(m.Locations) {
		if m.Locations[id].Name == name {
			return m.Locations[id]
		}
	}
	return nil
}

// ThreadByName returns the plot thread with the exact given name.
func (m *StoryMemory) ThreadByName(name string) *PlotThread {
	for _, id := range sortedKeys(m.PlotThreads) {
		if m.PlotThreads[id].Name == name {
			return m.PlotThreads[id]
		}
	}
	return nil
}

// RecentChapters returns the n most recent chapters, newest first.
func (m *StoryMemory) RecentChapters(n int) []*Chapter {
	chapters := make([]*Chapter, 0, len(m.Chapters))
	for _, ch := range m.Chapters {
		chapters = append(chapters, ch)
	}
	sort.Slice(chapters, func(i, j int) bool {
		return chapters[i].Number > chapters[j].Number
	})
	if n >= 0 && len(chapters) > n {
		chapters = chapters[:n]
	}
	return chapters
}

// OpenThreads returns all threads still needing attention, in ID order.
func (m *StoryMemory) OpenThreads() []*PlotThread {
	var open []*PlotThread
	for _, id := range sortedKeys(m.PlotThreads) {
		if t := m.PlotThreads[id]; t.Active() {
			open = append(open, t)
		}
	}
	return open
}

// MajorOpenThreads returns open threads with major importance.
func (m *StoryMemory) MajorOpenThreads() []*PlotThread {
	var major []*PlotThread
	for _, t := range m.OpenThreads() {
		if t.Importance == ImportanceMajor {
			major = append(major, t)
		}
	}
	return major
}

// NextCharacterID returns the next sequential character ID (char_001, ...).
func (m *StoryMemory) NextCharacterID() string {
	return fmt.Sprintf("char_%03d", len(m.Characters)+1)
}

// NextThreadID returns the next sequential thread ID.
func (m *StoryMemory) NextThreadID() string {
	return fmt.Sprintf("thread_%03d", len(m.PlotThreads)+1)
}

// ChapterID returns the canonical chapter ID for a chapter number.
func ChapterID(number int) string {
	return fmt.Sprintf("ch_%03d", number)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
