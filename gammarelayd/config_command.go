package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := toml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			if a.exists {
				fmt.Fprintf(out, "# %s\n", a.path)
			} else {
				fmt.Fprintf(out, "# %s (not found, using defaults)\n", a.path)
			}
			_, err = out.Write(buf)
			return err
		},
	}
}
