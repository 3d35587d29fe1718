package model

// Plot thread statuses.
const (
	ThreadOpen        = "open"
	ThreadProgressing = "progressing"
	ThreadResolved    = "resolved"
	ThreadAbandoned   = "abandoned"
)

// Thread importance levels.
const (
	ImportanceMajor  = "major"
	ImportanceMedium = "medium"
	ImportanceMinor  = "minor"
)

// Development is one step of progress on a plot thread, keyed to the
// chapter that produced it.
type Development struct {
	ChapterID   string `json:"chapter_id"`
	Description string `json:"description"`
}

// PlotThread is an ongoing narrative thread: a mystery, prophecy, promise,
// quest, danger, rivalry, and so on.
type PlotThread struct {
	ID   string `json:"thread_id"`
	Name string `json:"name"`

	Type string `json:"thread_type"`

	SetupChapter     string `json:"setup_chapter"`
	SetupDescription string `json:"setup_description,omitempty"`

	Status     string `json:"status"`
	Importance string `json:"importance"`

	// ExpectedResolution is short_term (1-3 chapters), medium_term (4-10)
	// or long_term (10+).
	ExpectedResolution string `json:"expected_resolution,omitempty"`

	// Developments is append-only, in merge order.
	Developments []Development `json:"developments,omitempty"`

	// Resolution fields are set once; the first resolution wins.
	ResolutionChapter     string `json:"resolution_chapter,omitempty"`
	ResolutionDescription string `json:"resolution_description,omitempty"`

	CharactersInvolved []string `json:"characters_involved,omitempty"`
	LocationsInvolved  []string `json:"locations_involved,omitempty"`
	Themes             []string `json:"themes,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// Active reports whether the thread still needs narrative attention.
func (t *PlotThread) Active() bool {
	return t.Status == ThreadOpen || t.Status == ThreadProgressing
}

// ImportanceRank maps importance to a sortable rank, highest first.
func (t *PlotThread) ImportanceRank() int {
	switch t.Importance {
	case ImportanceMajor:
		return 2
	case ImportanceMedium:
		return 1
	default:
		return 0
	}
}

// HasDevelopment reports whether an identical development was already
// recorded for the chapter. Used to keep merge replays from double-appending.
func (t *PlotThread) HasDevelopment(chapterID, description string) bool {
	for _, d := range t.Developments {
		if d.ChapterID == chapterID && d.Description == description {
			return true
		}
	}
	return false
}
