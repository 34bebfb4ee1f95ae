package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jongio/autoattach/attach"
	"github.com/jongio/autoattach/config"
	"github.com/jongio/autoattach/logutil"
	"github.com/jongio/autoattach/matcher"
	"github.com/jongio/autoattach/notify"
	"github.com/jongio/autoattach/procutil"
	"github.com/jongio/autoattach/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type watchOptions struct {
	root       int
	interval   time.Duration
	filter     string
	metrics    bool
	backend    *enumValue
	attachMode *enumValue
}

func newWatchOptions() *watchOptions {
	return &watchOptions{
		backend:    newEnumValue(config.BackendCommand, config.BackendCommand, config.BackendNative),
		attachMode: newEnumValue(config.AttachModeStdout, config.AttachModeStdout, config.AttachModeCommand),
	}
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := newWatchOptions()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the process tree and attach to debuggable processes",
		Long: `Watch polls the process table, follows every descendant of the root
process and issues one attach request for each process started with
--debugger or --debugger-port=<n> once its debug port is listening.

In stdout mode each request is printed as one JSON line. In command mode
attach.command runs with the request on stdin.

Setting "enabled: false" in the watched config file stops the session;
setting it back to true starts a fresh one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, opts)
		},
	}

	opts.bind(cmd.Flags())
	return cmd
}

func (o *watchOptions) bind(flags *pflag.FlagSet) {
	flags.IntVar(&o.root, "root", 0, "Root process id (default: $AUTOATTACH_ROOT_PID, $VSCODE_PID, then parent)")
	flags.DurationVar(&o.interval, "interval", 0, "Time between discovery passes")
	flags.StringVar(&o.filter, "filter", "", "Only attach to command lines containing this text")
	flags.BoolVar(&o.metrics, "metrics", false, "Serve Prometheus metrics")
	flags.Var(o.backend, "backend", "Process enumeration backend ("+o.backend.Allowed()+")")
	flags.Var(o.attachMode, "attach-mode", "Where attach requests go ("+o.attachMode.Allowed()+")")
}

// apply copies flags the user set over the loaded settings.
func (o *watchOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.RootPID = o.root
	}
	if flags.Changed("interval") {
		cfg.Interval = o.interval
	}
	if flags.Changed("filter") {
		cfg.CommandFilter = o.filter
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled = o.metrics
	}
	if flags.Changed("backend") {
		cfg.Backend = o.backend.String()
	}
	if flags.Changed("attach-mode") {
		cfg.Attach.Mode = o.attachMode.String()
	}
	return cfg.Validate()
}

func runWatch(cmd *cobra.Command, root *rootOptions, opts *watchOptions) error {
	store, cfg, closeLog, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := opts.apply(cmd, &cfg); err != nil {
		return err
	}

	platform, err := root.newPlatform(procutil.Backend(cfg.Backend))
	if err != nil {
		return err
	}

	attacher, closeAttacher, err := buildAttacher(root, cfg)
	if err != nil {
		return err
	}
	defer closeAttacher()

	w, err := watcher.New(watcher.Options{
		Interval:        cfg.Interval,
		Platform:        platform,
		Attacher:        attacher,
		Base:            cfg.Debugger,
		Filter:          matcher.Filter{Contains: cfg.CommandFilter},
		ProbeRate:       cfg.ProbeRate,
		BreakerFailures: cfg.Breaker.Failures,
		BreakerTimeout:  cfg.Breaker.Timeout,
		EnableMetrics:   cfg.Metrics.Enabled,
	})
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		srv := watcher.CreateMetricsServer(cfg.Metrics.Port)
		go func() {
			logutil.Info("serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logutil.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootPID := watcher.ResolveRootPID(cfg.RootPID)
	if !procutil.IsProcessRunning(rootPID) {
		logutil.Warn("root process is not running; no descendants will be found", "root", rootPID)
	}
	if cfg.Enabled {
		w.Start(rootPID)
	} else {
		logutil.Info("autoattach disabled; waiting for config change", "file", store.Path())
	}

	store.Watch(func(old, updated config.Config) {
		applyConfigChange(w, rootPID, old, updated)
	})

	<-ctx.Done()
	w.Stop()
	return nil
}

// buildAttacher assembles the attach sink described by cfg.
func buildAttacher(root *rootOptions, cfg config.Config) (attach.Attacher, func(), error) {
	var a attach.Attacher
	switch cfg.Attach.Mode {
	case config.AttachModeCommand:
		a = &attach.CommandAttacher{
			Script:  cfg.Attach.Command,
			Shell:   cfg.Attach.Shell,
			Timeout: cfg.Attach.Timeout,
		}
	default:
		a = attach.NewJSONAttacher(root.stdout)
	}

	if !cfg.Notify {
		return a, func() {}, nil
	}
	n, err := notify.New(notify.DefaultConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create notifier: %w", err)
	}
	return &attach.NotifyingAttacher{Next: a, Notifier: n}, func() { _ = n.Close() }, nil
}
