package cmd

import (
	"context"
	"runtime"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "manages Apphashd service",
}

var serviceName string

type program struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func init() {
	defaultServiceName := "apphashd"
	if runtime.GOOS == "windows" {
		defaultServiceName = "Apphashd"
	}

	rootCmd.PersistentFlags().StringVarP(&serviceName, "service", "s", defaultServiceName, "Apphashd system service name")
}

func newProgram(ctx context.Context, cancel context.CancelFunc) *program {
	return &program{ctx: ctx, cancel: cancel}
}

func newSVCConfig() *service.Config {
	return &service.Config{
		Name:        serviceName,
		DisplayName: "Apphashd",
		Description: "App hash update watcher service",
		Option:      make(service.KeyValue),
	}
}

func newSVC(prg *program, conf *service.Config) (service.Service, error) {
	return service.New(prg, conf)
}
