package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Restore the story state from a backup",
		Long:  "Replaces the current story state with the named backup. The replaced state is backed up first, so a restore is itself reversible.",
		Args:  cobra.ExactArgs(1),
		Run:   runRestore,
	}

	RootCmd.AddCommand(cmd)
}

func runRestore(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	logger := newLogger(settings)
	s := openStore(settings, logger)

	memory, err := s.RestoreBackup(args[0])
	if err != nil {
		exitErr("restore", err)
	}

	// The state being replaced gets its own backup first.
	if s.Exists() {
		if _, err := s.CreateBackup(); err != nil {
			exitErr("backup current state", err)
		}
	}
	if err := s.Save(memory, false); err != nil {
		exitErr("save restored state", err)
	}

	printJSON(map[string]any{
		"story_title":     memory.StoryTitle,
		"current_chapter": memory.CurrentChapterNumber,
		"characters":      len(memory.Characters),
		"threads":         len(memory.PlotThreads),
	})
}
