package main

import (
	"fmt"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/locktrace"
	"github.com/lian99/Operating-Systems/metrics"
	"github.com/lian99/Operating-Systems/workload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStressCmd() *cobra.Command {
	var workers, perWorker int

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run the verified concurrent insert/remove/read workload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cmd.Flags().Changed("workers") {
				conf.Stress.Workers = workers
			}
			if cmd.Flags().Changed("values") {
				conf.Stress.ValuesPerWorker = perWorker
			}
			if err := conf.Validate(); err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			observers := []concurrentlist.Observer{m}
			var rec *locktrace.Recorder
			if conf.Stress.CheckLocks {
				rec = locktrace.NewRecorder()
				observers = append(observers, rec)
			}
			l := concurrentlist.New[int](
				concurrentlist.WithMaxNodes(conf.MaxNodes),
				concurrentlist.WithObserver(concurrentlist.Observers(observers...)),
			)
			defer l.Destroy()

			res, err := workload.Run(cmd.Context(), conf.Stress, l, logger)
			if err != nil {
				return err
			}
			if rec != nil {
				if err := rec.Err(); err != nil {
					return err
				}
				logger.Info("stress: lock discipline held", zap.Int("events", rec.Events()))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "workers=%d inserted=%d removed=%d reads=%d length=%d elapsed=%s\n",
				conf.Stress.Workers, res.Inserted, res.Removed, res.Reads, res.Length, res.Elapsed)
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "override stress.workers")
	cmd.Flags().IntVarP(&perWorker, "values", "n", 0, "override stress.values-per-worker")
	return cmd
}
