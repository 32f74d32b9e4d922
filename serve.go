package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/handler"
	"github.com/lian99/Operating-Systems/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a list and its metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if addr == "" {
				addr = conf.HTTPAddr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			l := concurrentlist.New[int](
				concurrentlist.WithMaxNodes(conf.MaxNodes),
				concurrentlist.WithObserver(metrics.New(reg)),
			)
			metrics.RegisterLength(reg, l.Len)

			server := http.Server{
				Addr:    addr,
				Handler: handler.New(l, reg, logger),
			}

			// signal.Notify requires the channel to be buffered
			ctrlc := make(chan os.Signal, 1)
			signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-ctrlc
				server.Close()
			}()

			logger.Info("serve: listening", zap.String("addr", addr))
			err = server.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				logger.Error("serve: server closed", zap.Error(err))
				return err
			}
			logger.Info("serve: server closed")
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides http-addr")
	return cmd
}
