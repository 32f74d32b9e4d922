// Command ocl drives an ordered concurrent list: it replays JSON scenarios,
// runs a verified multi-goroutine stress workload, or serves the list over
// HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/lian99/Operating-Systems/config"
	"github.com/lian99/Operating-Systems/logutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	gitHash = "None"

	configPath string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ocl",
		Short:         "Ordered concurrent list with lock coupling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newRunCmd(), newStressCmd(), newServeCmd())
	return root
}

// setup loads the configuration and builds the logger shared by every
// subcommand.
func setup() (*config.Config, *zap.Logger, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		conf.LogLevel = logLevel
		if err := conf.Validate(); err != nil {
			return nil, nil, err
		}
	}
	logger, err := logutil.New(conf.LogLevel, conf.LogFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("setup: configuration loaded", zap.String("gitHash", gitHash), zap.Any("conf", conf))
	return conf, logger, nil
}
