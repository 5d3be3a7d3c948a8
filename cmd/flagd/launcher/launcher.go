// Package launcher wires a flagd process together from its Config.
package launcher

import (
	"context"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"os"
	"sync"
	"time"

	"github.com/fieldday/flagd/http"
	"github.com/fieldday/flagd/kit/cli"
	"github.com/fieldday/flagd/kit/prom"
	"github.com/fieldday/flagd/kit/signals"
	"github.com/fieldday/flagd/kit/tracing"
	"github.com/fieldday/flagd/resolver"
	"github.com/fieldday/flagd/source/bolt"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	jaegerconfig "github.com/uber/jaeger-client-go/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// NewCommand returns the "run" command. Source options are read from the
// persistent flags of the parent command sharing o.
func NewCommand(v *viper.Viper, o *Options) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the flagd server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// exit with SIGINT and SIGTERM
			ctx := signals.WithStandardSignals(context.Background())
			return Serve(ctx, o.Config(), cmd.OutOrStdout())
		},
	}

	if err := cli.BindOptions(v, cmd, o.RunOpts()); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Serve runs a Launcher for c until ctx is done, then shuts it down.
func Serve(ctx context.Context, c Config, stdout io.Writer) error {
	l := NewLauncher()
	l.Stdout = stdout

	if err := l.Run(ctx, c); err != nil {
		return err
	}

	<-ctx.Done()

	// Attempt clean shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.Shutdown(ctx)
}

// Launcher represents the main program execution.
type Launcher struct {
	wg      sync.WaitGroup
	cancel  func()
	running bool

	config Config

	svc        *resolver.Service
	source     io.Closer
	httpPort   int
	httpServer *nethttp.Server

	jaegerTracerCloser io.Closer
	log                *zap.Logger
	reg                *prom.Registry

	Stdout io.Writer
	Stderr io.Writer
}

// NewLauncher returns a new instance of Launcher connected to standard out/err.
func NewLauncher() *Launcher {
	return &Launcher{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Running returns true if the main Launcher has started running.
func (m *Launcher) Running() bool {
	return m.running
}

// Registry returns the prometheus metrics registry.
func (m *Launcher) Registry() *prom.Registry {
	return m.reg
}

// Logger returns the launchers logger.
func (m *Launcher) Logger() *zap.Logger {
	return m.log
}

// Resolver returns the flag resolver the handlers use.
func (m *Launcher) Resolver() *resolver.Service {
	return m.svc
}

// URL returns the URL to connect to the HTTP server.
func (m *Launcher) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", m.httpPort)
}

// Shutdown shuts down the HTTP server and waits for all services to clean up.
func (m *Launcher) Shutdown(ctx context.Context) error {
	var err error
	if m.httpServer != nil {
		err = multierr.Append(err, m.httpServer.Shutdown(ctx))
	}

	m.log.Info("Stopping", zap.String("service", "source"))
	if m.source != nil {
		if cerr := m.source.Close(); cerr != nil {
			m.log.Info("Failed closing flag source", zap.Error(cerr))
			err = multierr.Append(err, cerr)
		}
	}

	m.wg.Wait()

	if m.jaegerTracerCloser != nil {
		if cerr := m.jaegerTracerCloser.Close(); cerr != nil {
			m.log.Warn("Failed to close Jaeger tracer", zap.Error(cerr))
		}
	}

	if m.cancel != nil {
		m.cancel()
	}
	_ = m.log.Sync()
	return err
}

// abort releases what a failed Run acquired before any listener was bound.
func (m *Launcher) abort() {
	if m.source != nil {
		if cerr := m.source.Close(); cerr != nil && m.log != nil {
			m.log.Warn("Failed closing flag source", zap.Error(cerr))
		}
		m.source = nil
	}
	if m.jaegerTracerCloser != nil {
		_ = m.jaegerTracerCloser.Close()
		m.jaegerTracerCloser = nil
	}
	m.httpServer = nil
	m.running = false
	m.cancel()
	if m.log != nil {
		_ = m.log.Sync()
	}
}

// Cancel executes the context cancel on the program. Used for testing.
func (m *Launcher) Cancel() { m.cancel() }

// Run validates c, opens the configured source and starts serving HTTP. It
// returns once the listener is bound.
func (m *Launcher) Run(ctx context.Context, c Config) (err error) {
	if err := c.Validate(); err != nil {
		return err
	}
	m.config = c

	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	m.running = true
	ctx, m.cancel = context.WithCancel(ctx)
	defer func() {
		if err != nil {
			m.abort()
		}
	}()

	m.log, err = m.config.Log.New(m.Stdout)
	if err != nil {
		return err
	}
	m.reg = prom.NewRegistry(m.log.With(zap.String("service", "prom_registry")))

	m.log.Info("Welcome to flagd",
		zap.String("source", c.Backend()),
		zap.String("config_key", c.ConfigKey),
	)

	if c.TracingType == JaegerTracing {
		m.log.Info("Tracing via Jaeger")
		cfg, err := jaegerconfig.FromEnv()
		if err != nil {
			m.log.Error("Failed to get Jaeger client config from environment variables", zap.Error(err))
		} else if tracer, closer, err := cfg.NewTracer(); err != nil {
			m.log.Error("Failed to instantiate Jaeger tracer", zap.Error(err))
		} else {
			opentracing.SetGlobalTracer(tracer)
			m.jaegerTracerCloser = closer
		}
	}

	src, closer, err := OpenSource(ctx, m.log, c)
	if err != nil {
		m.log.Error("Failed opening flag source", zap.String("source", c.Backend()), zap.Error(err))
		return err
	}
	m.source = closer

	overrides, err := c.Overrides()
	if err != nil {
		return err
	}
	m.svc = resolver.NewService(src,
		resolver.WithKey(c.ConfigKey),
		resolver.WithOverrides(overrides),
		resolver.WithLogger(m.log.With(zap.String("service", "resolver"))),
	)
	m.reg.MustRegister(m.svc.PrometheusCollectors()...)

	// HTTP server
	httpLogger := m.log.With(zap.String("service", "http"))
	configHandler, err := http.NewConfigHandler(httpLogger, m.configOpts(), "edge-config-token", "redis-url")
	if err != nil {
		return err
	}

	h := http.NewHandlerFromRegistry("flagd", m.reg,
		http.WithLog(httpLogger),
		http.WithDebug(c.ProfilingEnabled),
		http.WithResourceHandler(http.NewFlagHandler(httpLogger, m.svc)),
		http.WithResourceHandler(configHandler),
	)

	m.httpServer = &nethttp.Server{
		Addr:              c.HTTPBindAddress,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(httpLogger),
	}
	// If we are in testing mode we allow the bolt store to be flushed.
	if store, ok := unwrapSource(src).(*bolt.Store); ok && c.Testing {
		m.httpServer.Handler = http.DebugFlush(ctx, h, store)
	}

	ln, err := net.Listen("tcp", c.HTTPBindAddress)
	if err != nil {
		httpLogger.Error("Failed http listener", zap.Error(err))
		httpLogger.Info("Stopping")
		return err
	}

	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		m.httpPort = addr.Port
	}

	m.wg.Add(1)
	go func(logger *zap.Logger) {
		defer m.wg.Done()
		logger.Info("Listening", zap.String("transport", "http"), zap.String("addr", c.HTTPBindAddress), zap.Int("port", m.httpPort))

		if err := m.httpServer.Serve(ln); err != nethttp.ErrServerClosed {
			logger.Error("Failed http service", zap.Error(err))
		}
		logger.Info("Stopping")
	}(httpLogger)

	return nil
}

// configOpts reports the effective configuration under the command line
// option names.
func (m *Launcher) configOpts() []cli.Opt {
	c := m.config
	backend := c.Backend()
	opts := []cli.Opt{
		{DestP: &c.HTTPBindAddress, Flag: "http-bind-address"},
		{DestP: &c.Log.Format, Flag: "log-format"},
		{DestP: &c.Log.Level, Flag: "log-level"},
		{DestP: &c.TracingType, Flag: "tracing-type"},
		{DestP: &c.ProfilingEnabled, Flag: "pprof-enabled"},
		{DestP: &c.ConfigKey, Flag: "config-key"},
		{DestP: &c.CacheTTL, Flag: "cache-ttl"},
		{DestP: &c.FeatureFlags, Flag: "feature-flags"},
		{DestP: &backend, Flag: "source"},
	}
	if e := c.EdgeConfig; e != nil {
		opts = append(opts,
			cli.Opt{DestP: &e.BaseURL, Flag: "edge-config-url"},
			cli.Opt{DestP: &e.ConfigID, Flag: "edge-config-id"},
			cli.Opt{DestP: &e.Token, Flag: "edge-config-token"},
			cli.Opt{DestP: &e.Timeout, Flag: "edge-config-timeout"},
		)
	}
	if r := c.Redis; r != nil {
		opts = append(opts,
			cli.Opt{DestP: &r.URL, Flag: "redis-url"},
			cli.Opt{DestP: &r.Prefix, Flag: "redis-prefix"},
		)
	}
	if b := c.Bolt; b != nil {
		opts = append(opts, cli.Opt{DestP: &b.Path, Flag: "bolt-path"})
	}
	if f := c.File; f != nil {
		opts = append(opts, cli.Opt{DestP: &f.Path, Flag: "file-path"})
	}
	return opts
}
