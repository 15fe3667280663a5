package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/arloliu/go-pnp/config"
	"github.com/arloliu/go-pnp/head"
	"github.com/arloliu/go-pnp/internal/sim"
	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/metrics"
	"github.com/arloliu/go-pnp/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	port        string
	backend     string
	simulate    bool
	logLevel    string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pnpctl",
		Short:         "pnpctl controls a four-nozzle pick-and-place head",
		Long:          `pnpctl talks to the head controller over a serial line or a TCP serial bridge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML driver settings file")
	pf.StringVar(&opts.port, "port", "", "serial device or host:port of the controller")
	pf.StringVar(&opts.backend, "backend", "", "transport backend: serial, tarm or tcp")
	pf.BoolVar(&opts.simulate, "sim", false, "talk to a simulated controller instead of hardware")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	cmd.AddCommand(
		newHomeCmd(opts),
		newMoveCmd(opts),
		newActuateCmd(opts),
		newReadCmd(opts),
		newPortsCmd(),
		newServeCmd(opts),
	)

	return cmd
}

// session is a connected driver plus whatever was started alongside it.
type session struct {
	driver *head.Driver
	ctrl   *sim.Controller
	log    logger.Logger

	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// open builds the driver from the flags and the optional settings file, and connects it.
func (o *rootOptions) open(ctx context.Context) (*session, error) {
	var file *config.Config
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		// flags override the file
		if o.port != "" {
			cfg.Head.Port.Address = o.port
		}
		if o.backend != "" {
			cfg.Head.Port.Backend = o.backend
		}
		if o.simulate && cfg.Head.Port.Address == "" {
			cfg.Head.Port.Address = "sim"
		}
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		config.Normalize(cfg)
		file = cfg
	}

	levelName := o.logLevel
	if levelName == "" && file != nil {
		levelName = file.Head.LogLevel
	}
	level, ok := logger.ParseLevel(levelName)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", levelName)
	}
	log := logger.NewSlogWriter(os.Stderr, level, false)

	s := &session{log: log}
	extra := []head.DriverOption{head.WithLogger(log)}

	if o.simulate {
		s.ctrl = sim.New(sim.WithLogger(log.With("component", "sim")))
		extra = append(extra, head.WithOpener(s.simOpener()))
	}

	var (
		dc  *head.DriverConfig
		err error
	)
	if file != nil {
		dc, err = config.DriverConfig(file, extra...)
	} else {
		if o.backend != "" {
			extra = append(extra, head.WithBackend(transport.Backend(o.backend)))
		}
		dc, err = head.NewDriverConfig(o.port, extra...)
	}
	if err != nil {
		s.Close()
		return nil, err
	}

	d, err := head.NewDriver(dc)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.driver = d

	if o.metricsAddr != "" {
		if err := s.serveMetrics(o.metricsAddr); err != nil {
			s.Close()
			return nil, err
		}
	}

	if err := d.Connect(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = d.Disconnect() })

	return s, nil
}

// simOpener connects the driver to s.ctrl over an in-memory pipe.
func (s *session) simOpener() head.Opener {
	return func(context.Context) (transport.Port, error) {
		local, remote := net.Pipe()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := s.ctrl.Serve(ctx, remote); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warn("simulator stopped", "error", err)
			}
		}()
		s.closers = append(s.closers, func() {
			cancel()
			_ = remote.Close()
			<-done
		})

		return transport.NewConnPort(local, transport.DefaultReadTimeout), nil
	}
}

func (s *session) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg, s.driver, nil); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server failed", "error", err)
		}
	}()
	s.closers = append(s.closers, func() { _ = srv.Close() })
	s.log.Info("serving metrics", "addr", ln.Addr().String())

	return nil
}

// withSession opens a session for the duration of fn.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(*session) error) error {
	s, err := o.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}
