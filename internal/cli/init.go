package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"storymem/internal/config"
)

var errStoryExists = errors.New("a story already exists; use --force to overwrite")

func init() {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new story from a world seed",
		Run:   runInit,
	}

	cmd.Flags().StringP("seed", "s", "", "World seed YAML file (required)")
	cmd.Flags().Bool("force", false, "Overwrite an existing story")

	cmd.MarkFlagRequired("seed")

	RootCmd.AddCommand(cmd)
}

func runInit(cmd *cobra.Command, args []string) {
	seedPath, _ := cmd.Flags().GetString("seed")
	force, _ := cmd.Flags().GetBool("force")

	settings := loadSettings()
	logger := newLogger(settings)
	s := openStore(settings, logger)

	if s.Exists() && !force {
		exitErr("init", errStoryExists)
	}

	seed, err := config.LoadSeed(seedPath)
	if err != nil {
		exitErr("load seed", err)
	}

	memory := seed.Memory()
	if err := s.Save(memory, false); err != nil {
		exitErr("save story", err)
	}

	printJSON(map[string]any{
		"story_title": memory.StoryTitle,
		"world_name":  memory.WorldName,
		"characters":  len(memory.Characters),
		"threads":     len(memory.PlotThreads),
		"arc":         memory.CurrentArcID,
	})
}
