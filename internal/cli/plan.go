package cli

import (
	"github.com/spf13/cobra"

	"storymem/internal/retrieve"
)

func init() {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Retrieve the context bundle for planning the next chapter",
		Run:   runPlan,
	}

	cmd.Flags().String("arc", "", "Restrict chapter relevance to one arc")
	cmd.Flags().Int("recent", 0, "Recent chapters to include (default 3)")
	cmd.Flags().Int("relevant", 0, "Relevant chapters and events to include (default 5)")
	cmd.Flags().Int("surprise", 0, "Surprise callbacks to include (default 2)")

	RootCmd.AddCommand(cmd)
}

func runPlan(cmd *cobra.Command, args []string) {
	arcID, _ := cmd.Flags().GetString("arc")
	nRecent, _ := cmd.Flags().GetInt("recent")
	nRelevant, _ := cmd.Flags().GetInt("relevant")
	nSurprise, _ := cmd.Flags().GetInt("surprise")

	settings := loadSettings()
	logger := newLogger(settings)
	s := openStore(settings, logger)

	memory, err := s.Load()
	if err != nil {
		exitErr("load story", err)
	}

	var searcher retrieve.Searcher
	if ix, err := openIndex(settings, logger); err != nil {
		logger.Warn("index unavailable; recency and threads only", "err", err)
	} else {
		defer ix.Close()
		searcher = ix
	}

	retriever := retrieve.New(searcher, nil, logger)
	bundle := retriever.ForPlanning(cmd.Context(), memory, retrieve.Params{
		ArcID:     arcID,
		NRecent:   nRecent,
		NRelevant: nRelevant,
		NSurprise: nSurprise,
	})

	printJSON(bundle)
}
