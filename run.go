package main

import (
	"os"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/locktrace"
	"github.com/lian99/Operating-Systems/scenario"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	var schemaPath string
	var checkLocks bool

	cmd := &cobra.Command{
		Use:   "run SCENARIO...",
		Short: "Replay JSON scenario files against a fresh list each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			sv, err := scenario.NewSchemaValidator(schemaPath, logger)
			if err != nil {
				return err
			}
			for _, path := range args {
				s, err := scenario.Load(path, sv)
				if err != nil {
					return err
				}
				if s.MaxNodes == 0 {
					s.MaxNodes = conf.MaxNodes
				}

				var opts []concurrentlist.Option
				var rec *locktrace.Recorder
				if checkLocks {
					rec = locktrace.NewRecorder()
					opts = append(opts, concurrentlist.WithObserver(rec))
				}
				if err := s.Run(cmd.Context(), os.Stdout, logger, opts...); err != nil {
					return err
				}
				if rec != nil {
					if err := rec.Err(); err != nil {
						return err
					}
					logger.Info("run: lock discipline held", zap.String("scenario", path), zap.Int("events", rec.Events()))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "JSON schema file replacing the built-in scenario schema")
	cmd.Flags().BoolVar(&checkLocks, "check-locks", false, "record lock events and fail on a discipline violation")
	return cmd
}
