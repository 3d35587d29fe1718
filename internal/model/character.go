package model

// Character roles.
const (
	RoleProtagonist = "protagonist"
	RoleAntagonist  = "antagonist"
	RoleAlly        = "ally"
	RoleSupporting  = "supporting"
	RoleNeutral     = "neutral"
)

// Common character statuses. Status is free text; these are the values the
// merge pipeline and checkers care about.
const (
	StatusActive   = "active"
	StatusInjured  = "injured"
	StatusCaptured = "captured"
	StatusDead     = "dead"
)

// Character is a canonical character profile. Characters are never deleted;
// a status flag substitutes for deletion so past chapters keep valid
// references.
type Character struct {
	ID   string `json:"character_id"`
	Name string `json:"name"`

	Appearance  string `json:"appearance,omitempty"`
	Personality string `json:"personality,omitempty"`
	Background  string `json:"background,omitempty"`

	Abilities []string `json:"abilities,omitempty"`

	// Relationships maps character ID to a short free-text description.
	// Structured relationship records live on StoryMemory.
	Relationships map[string]string `json:"relationships,omitempty"`

	Status          string `json:"status"`
	CurrentLocation string `json:"current_location,omitempty"`

	Items []string `json:"items,omitempty"`

	FirstAppearance string `json:"first_appearance,omitempty"`
	LastAppearance  string `json:"last_appearance,omitempty"`

	Role    string `json:"role"`
	Faction string `json:"faction,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// GainItem adds an item with set semantics. Returns false if already held.
func (c *Character) GainItem(item string) bool {
	for _, held := range c.Items {
		if held == item {
			return false
		}
	}
	c.Items = append(c.Items, item)
	return true
}

// LoseItem removes an item if held. Removing an absent item is a no-op.
func (c *Character) LoseItem(item string) bool {
	for i, held := range c.Items {
		if held == item {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// HasItem reports whether the character currently holds the item.
func (c *Character) HasItem(item string) bool {
	for _, held := range c.Items {
		if held == item {
			return true
		}
	}
	return false
}
