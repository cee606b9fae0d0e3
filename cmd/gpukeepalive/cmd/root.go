package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/psantana5/gpu-keepalive/internal/config"
	"github.com/psantana5/gpu-keepalive/internal/daemon"
	"github.com/psantana5/gpu-keepalive/internal/keepalive"
	"github.com/psantana5/gpu-keepalive/pkg/logging"
	"github.com/psantana5/gpu-keepalive/pkg/metrics"
	"github.com/psantana5/gpu-keepalive/pkg/shutdown"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	foreground bool
	v          *viper.Viper
)

// configErr holds a config failure for the root command, which reports it
// only once it knows whether it is the parent invocation
var configErr error

// spawner starts the detached child; nil means a new session
var spawner daemon.Spawner

// rootCmd runs the keepalive daemon
var rootCmd = &cobra.Command{
	Use:   "gpukeepalive [flags] [args...]",
	Short: "Keep a GPU out of its idle power state",
	Long: `gpukeepalive detaches from the terminal and runs a GPU status query
(nvidia-smi by default) once per interval, forever, so the device never
drops into a power-saving state. Query output and exit status are ignored.

Run it once; the invoking shell returns immediately. Stop it with
"gpukeepalive stop" or any SIGTERM. SIGHUP reopens the log file.

Example:
  gpukeepalive
  gpukeepalive --interval 30s
  gpukeepalive --foreground --metrics-addr 127.0.0.1:9555`,
	Args:               cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	SilenceUsage:       true,
	RunE:               runDaemon,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal: initConfig refers to rootCmd.
	rootCmd.PersistentPreRunE = initConfig

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gpu-keepalive/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "run the loop in this process instead of detaching")
	rootCmd.Flags().Duration("interval", keepalive.DefaultInterval, "wait between GPU queries")
	rootCmd.Flags().String("command", keepalive.DefaultCommand, "GPU status query command")
	rootCmd.Flags().Duration("query-timeout", 0, "bound each query (0 = wait forever)")
	rootCmd.Flags().String("metrics-addr", "", "serve /metrics on this address (empty = disabled)")
}

// initConfig reads in config file and ENV variables, then applies flags
func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	configErr = nil
	v, err = config.New(cfgFile)
	if err != nil {
		if cmd == rootCmd {
			configErr = err
			return nil
		}
		return err
	}

	bindings := map[string]string{
		"log_level":     "log-level",
		"interval":      "interval",
		"command":       "command",
		"query_timeout": "query-timeout",
		"metrics_addr":  "metrics-addr",
	}
	for key, flag := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	return config.Load(v)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	detached := foreground || daemon.IsDetached(os.Environ())

	cfg, err := loadConfig()
	if err != nil {
		if detached {
			return err
		}
		// Parent invocation: a child would fail the same way, so report and
		// exit 0 without spawning.
		errLogger := logging.NewLogger(logging.INFO, false)
		errLogger.SetOutput(os.Stderr)
		errLogger.Error("Invalid configuration, not starting keepalive", map[string]interface{}{"error": err.Error()})
		return nil
	}
	level := logging.ParseLevel(cfg.LogLevel)

	startupLogger := logging.NewLogger(level, cfg.LogJSON)
	startupLogger.SetOutput(os.Stderr)

	outcome := daemon.Start(daemon.Options{
		Detached: detached,
		Args:     os.Args[1:],
		Spawner:  spawner,
		Logger:   startupLogger,
	})
	if outcome.Spawned {
		// Parent invocation: hand-off done, exit 0 whatever happened.
		return nil
	}

	fileOpts := logging.FileOptions{
		Dir:        cfg.LogDir,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}
	if foreground {
		fileOpts.Tee = os.Stdout
	}
	mgr := shutdown.New(10*time.Second, startupLogger)

	fileLogger, err := logging.NewFileLogger("gpukeepalive", level, cfg.LogJSON, fileOpts)
	if err != nil {
		// No writable log location; keep running, the loop needs no logs.
		fileLogger = startupLogger
	} else {
		mgr.Register(shutdown.CloseResource(fileLogger, "logger"))
	}

	return serve(cmd.Context(), mgr, cfg, fileLogger.WithField("pid", os.Getpid()))
}

func serve(parent context.Context, mgr *shutdown.Manager, cfg *config.Config, logger *logging.Logger) error {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := mgr.NotifyContext(parent)
	defer cancel()
	logger.RotateOn(ctx, syscall.SIGHUP)

	if path, ok := keepalive.Probe(cfg.Command); ok {
		logger.Info("GPU query command found", map[string]interface{}{"path": path})
	} else {
		logger.Warn("GPU query command not on PATH; queries will fail until it is", map[string]interface{}{"command": cfg.Command})
	}

	reg := prometheus.NewRegistry()
	var m *keepalive.Metrics
	if cfg.MetricsAddr != "" {
		m = keepalive.NewMetrics(reg)
		srv, err := metrics.Listen(cfg.MetricsAddr, reg)
		if err != nil {
			logger.Error("Metrics endpoint disabled", map[string]interface{}{"error": err.Error()})
		} else {
			go func() {
				if err := srv.Serve(); err != nil {
					logger.Error("Metrics server stopped", map[string]interface{}{"error": err.Error()})
				}
			}()
			mgr.Register(shutdown.StopHTTPServer(srv, "metrics"))
			logger.Info("Serving metrics", map[string]interface{}{"addr": srv.Addr()})
		}
	}

	loop := keepalive.NewLoop(keepalive.Config{
		Interval:     cfg.Interval,
		QueryTimeout: cfg.QueryTimeout,
		Querier:      keepalive.NewExecQuery(cfg.Command, cfg.Args),
		Metrics:      m,
		Logger:       logger,
	})

	err := loop.Run(ctx)
	mgr.Shutdown()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keepalive loop: %w", err)
	}
	return nil
}
