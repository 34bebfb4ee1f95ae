package main

import (
	"strconv"

	"github.com/jongio/autoattach/cliout"
	"github.com/jongio/autoattach/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage autoattach.yaml",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(root))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a sample autoattach.yaml (default dir: .autoattach)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ".autoattach"
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := config.SaveSample(dir)
			if err != nil {
				return err
			}
			return cliout.Print(map[string]string{"path": path}, func() {
				cliout.Success("wrote %s", path)
			})
		},
	}
}

func newConfigShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, closeLog, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			return cliout.Print(cfg, func() {
				cliout.CommandHeader("config")
				source := store.Path()
				if source == "" {
					source = "defaults"
				}
				cliout.Label("Source", source)
				cliout.Label("Enabled", strconv.FormatBool(cfg.Enabled))
				cliout.Label("Interval", cfg.Interval.String())
				cliout.Label("Backend", cfg.Backend)
				cliout.Label("Filter", cfg.CommandFilter)
				cliout.Label("Attach", cfg.Attach.Mode)
			})
		},
	}
}
