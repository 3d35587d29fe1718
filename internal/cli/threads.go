package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List plot threads",
		Run:   runThreads,
	}

	cmd.Flags().Bool("all", false, "Include resolved and abandoned threads")

	RootCmd.AddCommand(cmd)
}

func runThreads(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")

	settings := loadSettings()
	logger := newLogger(settings)
	s := openStore(settings, logger)

	memory, err := s.Load()
	if err != nil {
		exitErr("load story", err)
	}

	if all {
		printJSON(memory.PlotThreads)
		return
	}
	printJSON(memory.OpenThreads())
}
