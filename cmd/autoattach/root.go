package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jongio/autoattach/cliout"
	"github.com/jongio/autoattach/config"
	"github.com/jongio/autoattach/logutil"
	"github.com/jongio/autoattach/procutil"
	"github.com/jongio/autoattach/version"
	"github.com/spf13/cobra"
)

// deps are the process-level collaborators the commands use.
type deps struct {
	newPlatform func(procutil.Backend) (procutil.Platform, error)
	stdout      io.Writer
}

func defaultDeps() deps {
	return deps{newPlatform: procutil.New, stdout: os.Stdout}
}

type rootOptions struct {
	deps

	configPath string
	debug      bool
	logFile    string
	output     *enumValue
}

func newRootCmd(d deps) *cobra.Command {
	opts := &rootOptions{
		deps:   d,
		output: newEnumValue("default", "default", "json"),
	}

	cmd := &cobra.Command{
		Use:           "autoattach",
		Short:         "Attach a debugger to processes started under a watched tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cliout.SetOutput(opts.stdout)
			return cliout.SetFormat(opts.output.String())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to autoattach.yaml")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "Append logs to this file as well as stderr")
	flags.VarP(opts.output, "output", "o", "Output format ("+opts.output.Allowed()+")")

	cmd.AddCommand(
		newWatchCmd(opts),
		newPsCmd(opts),
		newConfigCmd(opts),
		version.NewCommand(version.New("autoattach")),
	)
	return cmd
}

// loadConfig reads settings and configures logging from them and the global
// flags. The returned function releases the log file, if any.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Store, config.Config, func(), error) {
	store, err := config.Load(o.configPath)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	cfg := store.Config()

	closeLog, err := setupLogging(cmd.ErrOrStderr(), o.debug || cfg.Log.Debug, cfg.Log.Format == "json", firstNonEmpty(o.logFile, cfg.Log.File))
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	if path := store.Path(); path != "" {
		logutil.Debug("loaded config", "file", path)
	}
	return store, cfg, closeLog, nil
}

func setupLogging(stderr io.Writer, debug, structured bool, logFile string) (func(), error) {
	debug = debug || logutil.IsDebugEnabled()
	if logFile == "" {
		logutil.SetupLoggerWithWriter(stderr, debug, structured)
		return func() {}, nil
	}

	f, err := logutil.OpenLogFile(logFile)
	if err != nil {
		return nil, err
	}
	logutil.SetupLoggerWithWriter(io.MultiWriter(stderr, f), debug, structured)
	return func() {
		logutil.SetOutput(stderr)
		if err := f.Close(); err != nil {
			fmt.Fprintf(stderr, "failed to close log file: %v\n", err)
		}
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
