package cmd

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sekaihub/apphashd/internal/config"
	"github.com/sekaihub/apphashd/internal/updater"
	"github.com/sekaihub/apphashd/util"
)

var updaterInstance *updater.Updater

// Start should not block. Do the actual work async.
func (p *program) Start(service.Service) error {
	log.Info("starting service")

	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Disabled {
		log.Info("updates are disabled in the config, the scheduler will not run")
		return nil
	}

	u, err := updater.New(cfg)
	if err != nil {
		return err
	}

	updaterInstance = u
	u.Start(p.ctx)
	return nil
}

func (p *program) Stop(service.Service) error {
	if updaterInstance != nil {
		updaterInstance.Stop()
		updaterInstance = nil
	}
	p.cancel()

	log.Info("service stopped")
	return nil
}

var svcRunCmd = &cobra.Command{
	Use:   "run",
	Short: "runs Apphashd as service",
	RunE: func(cmd *cobra.Command, args []string) error {
		SetFlagsFromEnvVars(rootCmd)
		cmd.SetOut(cmd.OutOrStdout())

		if err := util.InitLog(logLevel, logFile); err != nil {
			return fmt.Errorf("failed initializing log %v", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		SetupCloseHandler(ctx, cancel)

		s, err := newSVC(newProgram(ctx, cancel), newSVCConfig())
		if err != nil {
			return err
		}
		if err := s.Run(); err != nil {
			return err
		}

		cmd.Println("Apphashd service is running")
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "starts Apphashd service",
	RunE: func(cmd *cobra.Command, args []string) error {
		SetFlagsFromEnvVars(rootCmd)
		cmd.SetOut(cmd.OutOrStdout())

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, err := newSVC(newProgram(ctx, cancel), newSVCConfig())
		if err != nil {
			return err
		}
		if err := s.Start(); err != nil {
			return err
		}

		cmd.Println("Apphashd service has been started")
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "stops Apphashd service",
	RunE: func(cmd *cobra.Command, args []string) error {
		SetFlagsFromEnvVars(rootCmd)
		cmd.SetOut(cmd.OutOrStdout())

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, err := newSVC(newProgram(ctx, cancel), newSVCConfig())
		if err != nil {
			return err
		}
		if err := s.Stop(); err != nil {
			return err
		}

		cmd.Println("Apphashd service has been stopped")
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "restarts Apphashd service",
	RunE: func(cmd *cobra.Command, args []string) error {
		SetFlagsFromEnvVars(rootCmd)
		cmd.SetOut(cmd.OutOrStdout())

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, err := newSVC(newProgram(ctx, cancel), newSVCConfig())
		if err != nil {
			return err
		}
		if err := s.Restart(); err != nil {
			return err
		}

		cmd.Println("Apphashd service has been restarted")
		return nil
	},
}
