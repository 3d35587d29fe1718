package cli

import (
	"github.com/spf13/cobra"

	"storymem/internal/vector"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show story and index statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

type statsOutput struct {
	StoryTitle     string `json:"story_title"`
	WorldName      string `json:"world_name"`
	CurrentChapter int    `json:"current_chapter"`
	CurrentArc     string `json:"current_arc,omitempty"`

	Characters     int `json:"characters"`
	Locations      int `json:"locations"`
	Chapters       int `json:"chapters"`
	Threads        int `json:"threads"`
	OpenThreads    int `json:"open_threads"`
	Relationships  int `json:"relationships"`
	TimelineEvents int `json:"timeline_events"`
	Backups        int `json:"backups"`

	Index *vector.Stats `json:"index,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	logger := newLogger(settings)
	s := openStore(settings, logger)

	memory, err := s.Load()
	if err != nil {
		exitErr("load story", err)
	}

	out := statsOutput{
		StoryTitle:     memory.StoryTitle,
		WorldName:      memory.WorldName,
		CurrentChapter: memory.CurrentChapterNumber,
		CurrentArc:     memory.CurrentArcID,
		Characters:     len(memory.Characters),
		Locations:      len(memory.Locations),
		Chapters:       len(memory.Chapters),
		Threads:        len(memory.PlotThreads),
		OpenThreads:    len(memory.OpenThreads()),
		Relationships:  len(memory.Relationships),
		TimelineEvents: len(memory.WorldTimeline),
	}

	if backups, err := s.ListBackups(); err == nil {
		out.Backups = len(backups)
	}

	if ix, err := openIndex(settings, logger); err == nil {
		defer ix.Close()
		if stats, err := ix.Stats(cmd.Context()); err == nil {
			out.Index = stats
		}
	}

	printJSON(out)
}
