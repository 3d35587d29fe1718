package model

// WorldLocation is a place in the story world.
type WorldLocation struct {
	ID   string `json:"location_id"`
	Name string `json:"name"`

	Description string `json:"description"`
	Culture     string `json:"culture,omitempty"`
	History     string `json:"history,omitempty"`

	// Status is free text: active, destroyed, inaccessible, etc.
	Status string `json:"status"`

	ConnectedTo []string `json:"connected_to,omitempty"`
	Factions    []string `json:"factions,omitempty"`

	FirstAppearance string `json:"first_appearance,omitempty"`
	Importance      string `json:"importance,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Faction is an organization or group in the world.
type Faction struct {
	ID   string `json:"faction_id"`
	Name string `json:"name"`

	Description string `json:"description"`
	Alignment   string `json:"alignment,omitempty"`

	// Leader and Members hold character IDs.
	Leader  string   `json:"leader,omitempty"`
	Members []string `json:"members,omitempty"`

	Goals    []string `json:"goals,omitempty"`
	Ideology string   `json:"ideology,omitempty"`

	// Territory holds location IDs the faction controls.
	Territory []string `json:"territory,omitempty"`

	Allies  []string `json:"allies,omitempty"`
	Enemies []string `json:"enemies,omitempty"`

	Status          string `json:"status"`
	FirstAppearance string `json:"first_appearance,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Artifact is a significant item in the world.
type Artifact struct {
	ID   string `json:"artifact_id"`
	Name string `json:"name"`

	Description string   `json:"description"`
	Powers      []string `json:"powers,omitempty"`
	Limitations []string `json:"limitations,omitempty"`
	Origin      string   `json:"origin,omitempty"`

	// CurrentOwner is a character ID; Location is a location ID or "unknown".
	CurrentOwner string `json:"current_owner,omitempty"`
	Location     string `json:"location,omitempty"`

	Status         string `json:"status"`
	FirstMentioned string `json:"first_mentioned,omitempty"`
	Importance     string `json:"importance,omitempty"`
	Notes          string `json:"notes,omitempty"`
}
