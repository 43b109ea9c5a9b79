package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sekaihub/apphashd/internal/config"
	"github.com/sekaihub/apphashd/internal/updater"
	"github.com/sekaihub/apphashd/util"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "runs a single update cycle and exits",
	RunE: func(cmd *cobra.Command, args []string) error {
		SetFlagsFromEnvVars(rootCmd)
		cmd.SetOut(cmd.OutOrStdout())

		if err := util.InitLog(logLevel, logFile); err != nil {
			return fmt.Errorf("failed initializing log %v", err)
		}

		cfg, err := config.ReadConfig(configPath)
		if err != nil {
			return err
		}

		u, err := updater.New(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		SetupCloseHandler(ctx, cancel)

		u.Run(ctx)
		return nil
	},
}
