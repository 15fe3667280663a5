package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/go-pnp/head"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Keep the head connected and report its state until interrupted",
		Long:  `Combine with --metrics-addr to expose the driver counters to Prometheus.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return opts.withSession(cmd, func(s *session) error {
				return report(ctx, s, interval)
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "state report interval")

	return cmd
}

func report(ctx context.Context, s *session, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m := s.driver.Metrics()
			loc, _ := s.driver.Location(head.N1)
			s.log.Info("head state",
				"connected", s.driver.IsConnected(),
				"location", loc.String(),
				"pump", s.driver.PumpState().String(),
				"exchanges", m.ExchangeCount.Load(),
				"errors", m.ExchangeErrCount.Load(),
			)
		}
	}
}
