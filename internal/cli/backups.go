package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List story backups, newest first",
		Run:   runBackups,
	}

	RootCmd.AddCommand(cmd)
}

func runBackups(cmd *cobra.Command, args []string) {
	settings := loadSettings()
	logger := newLogger(settings)
	s := openStore(settings, logger)

	backups, err := s.ListBackups()
	if err != nil {
		exitErr("list backups", err)
	}

	printJSON(backups)
}
