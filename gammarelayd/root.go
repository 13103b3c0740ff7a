package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

type app struct {
	configFlag string

	cfg    *Config
	path   string
	exists bool
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := new(app)

	rootCmd := &cobra.Command{
		Use:           "gammarelayd",
		Short:         "Coordinator for gamma ramp hooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newStatusCommand(a))
	rootCmd.AddCommand(newRelayCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))
	rootCmd.AddCommand(newGSICommand(a))

	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, path, exists, err := Load(a.configFlag)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg, a.path, a.exists, a.logger = cfg, path, exists, logger
	return nil
}
