// Package config loads runtime settings from the environment and story
// seeds from YAML files.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"storymem/internal/model"
)

// Settings is the process configuration, read from STORYMEM_* variables.
// API keys keep their conventional unprefixed names.
type Settings struct {
	DataDir   string `env:"STORYMEM_DATA_DIR" envDefault:"data"`
	IndexPath string `env:"STORYMEM_INDEX_PATH" envDefault:"data/index.db"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"STORYMEM_OPENAI_BASE_URL"`

	Model      string `env:"STORYMEM_MODEL" envDefault:"gpt-4o-mini"`
	MaxRetries int    `env:"STORYMEM_MAX_RETRIES" envDefault:"3"`

	// Embedding provider: "openai" or "ollama".
	EmbeddingProvider string `env:"STORYMEM_EMBEDDING_PROVIDER" envDefault:"openai"`
	EmbeddingModel    string `env:"STORYMEM_EMBEDDING_MODEL"`
	OllamaBaseURL     string `env:"STORYMEM_OLLAMA_URL" envDefault:"http://localhost:11434"`

	LogLevel string `env:"STORYMEM_LOG_LEVEL" envDefault:"info"`
}

// Load parses settings from the environment.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// Seed describes a brand-new story: the world, its protagonist and crew,
// the opening location and the threads the saga starts with.
type Seed struct {
	WorldName        string   `yaml:"world_name"`
	Title            string   `yaml:"title"`
	CentralConflict  string   `yaml:"central_conflict"`
	Themes           []string `yaml:"themes"`
	StartingLocation struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"starting_location"`
	Protagonist SeedCharacter   `yaml:"protagonist"`
	Crew        []SeedCharacter `yaml:"initial_crew"`
	Threads     []SeedThread    `yaml:"initial_threads"`
}

// SeedCharacter is a character entry in a story seed.
type SeedCharacter struct {
	Name        string   `yaml:"name"`
	Personality string   `yaml:"personality"`
	Background  string   `yaml:"background"`
	Abilities   []string `yaml:"abilities"`
	Role        string   `yaml:"role"`
}

// SeedThread is an opening plot thread in a story seed.
type SeedThread struct {
	Thread string `yaml:"thread"`
	Type   string `yaml:"type"`
}

// LoadSeed reads and validates a story seed file.
func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	if seed.WorldName == "" {
		return nil, fmt.Errorf("seed %s: world_name is required", path)
	}
	if seed.Protagonist.Name == "" {
		return nil, fmt.Errorf("seed %s: protagonist.name is required", path)
	}
	return &seed, nil
}

// Memory builds the initial story state from the seed: protagonist and
// crew, the starting location, the opening threads and the first arc.
func (s *Seed) Memory() *model.StoryMemory {
	title := s.Title
	if title == "" {
		title = "Chronicles of " + s.WorldName
	}
	memory := model.NewStoryMemory(title, s.WorldName, s.CentralConflict)

	addCharacter := func(sc SeedCharacter, role string) {
		if sc.Role != "" {
			role = sc.Role
		}
		id := memory.NextCharacterID()
		memory.Characters[id] = &model.Character{
			ID:              id,
			Name:            sc.Name,
			Personality:     sc.Personality,
			Background:      sc.Background,
			Abilities:       sc.Abilities,
			Role:            role,
			Status:          model.StatusActive,
			CurrentLocation: s.StartingLocation.Name,
			Relationships:   map[string]string{},
		}
	}
	addCharacter(s.Protagonist, model.RoleProtagonist)
	for _, sc := range s.Crew {
		addCharacter(sc, model.RoleAlly)
	}

	if s.StartingLocation.Name != "" {
		memory.Locations["loc_001"] = &model.WorldLocation{
			ID:          "loc_001",
			Name:        s.StartingLocation.Name,
			Description: s.StartingLocation.Description,
		}
	}

	for _, st := range s.Threads {
		id := memory.NextThreadID()
		memory.PlotThreads[id] = &model.PlotThread{
			ID:               id,
			Name:             st.Thread,
			Type:             st.Type,
			SetupChapter:     "ch_000",
			SetupDescription: st.Thread,
			Status:           model.ThreadOpen,
			Importance:       model.ImportanceMajor,
		}
	}

	themes := s.Themes
	if len(themes) == 0 {
		themes = []string{"adventure", "friendship"}
	}
	arc := &model.Arc{
		ID:               "arc_001",
		Number:           1,
		Name:             "Arrival",
		Type:             "exploration",
		CurrentPhase:     model.PhaseArrival,
		Summary:          "The adventure begins at " + s.StartingLocation.Name,
		PrimaryLocation:  s.StartingLocation.Name,
		CentralConflict:  s.CentralConflict,
		Themes:           themes,
		ExpectedChapters: 5,
		Status:           "active",
	}
	memory.Arcs[arc.ID] = arc
	memory.CurrentArcID = arc.ID

	return memory
}
