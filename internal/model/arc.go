package model

// Arc phases in narrative order.
const (
	PhaseArrival    = "arrival"
	PhaseDiscovery  = "discovery"
	PhaseEscalation = "escalation"
	PhaseClimax     = "climax"
	PhaseResolution = "resolution"
	PhaseDeparture  = "departure"
)

// ArcPhases lists the phases every arc moves through, in order.
var ArcPhases = []string{
	PhaseArrival,
	PhaseDiscovery,
	PhaseEscalation,
	PhaseClimax,
	PhaseResolution,
	PhaseDeparture,
}

// Arc is a story arc spanning multiple chapters.
type Arc struct {
	ID     string `json:"arc_id"`
	Number int    `json:"arc_number"`
	Name   string `json:"name"`

	// Type is free text: heist, rebellion, tournament, rescue, mystery, etc.
	Type string `json:"arc_type"`

	// Status is planned, active, or completed.
	Status string `json:"status"`

	PrimaryLocation string `json:"primary_location,omitempty"`

	Summary         string   `json:"summary,omitempty"`
	CentralConflict string   `json:"central_conflict,omitempty"`
	Themes          []string `json:"themes,omitempty"`

	ExpectedChapters int `json:"expected_chapters"`
	CurrentChapter   int `json:"current_chapter"`

	CurrentPhase string `json:"current_phase"`

	// MainCharacters and Antagonists hold character IDs.
	MainCharacters []string `json:"main_characters,omitempty"`
	Antagonists    []string `json:"antagonists,omitempty"`

	ThreadsIntroduced []string `json:"threads_introduced,omitempty"`
	ThreadsAdvanced   []string `json:"threads_advanced,omitempty"`
	ThreadsResolved   []string `json:"threads_resolved,omitempty"`

	MajorRevelations []string `json:"major_revelations,omitempty"`
	WorldChanges     []string `json:"world_changes,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// NextPhase returns the phase following the arc's current one, or the
// current phase when the arc is already in its final phase.
func (a *Arc) NextPhase() string {
	for i, phase := range ArcPhases {
		if phase == a.CurrentPhase && i+1 < len(ArcPhases) {
			return ArcPhases[i+1]
		}
	}
	return a.CurrentPhase
}
