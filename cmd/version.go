package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sekaihub/apphashd/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints apphashd version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Version())
	},
}
