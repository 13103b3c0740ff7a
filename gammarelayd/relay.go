package main

import (
	"fmt"
	"time"

	"github.com/pgaskin/gammahook"
	"github.com/pgaskin/gammahook/redshift"
	"github.com/spf13/cobra"
)

// loopback treats every device context as a display, and never changes
// anything itself.
type loopback struct{}

func (loopback) IsDisplayDC(gammahook.HDC) bool                        { return true }
func (loopback) SetDeviceGammaRamp(gammahook.HDC, *redshift.Ramp) bool { return false }
func (loopback) SetLastError(uint32)                                   {}

func newRelayCommand(a *app) *cobra.Command {
	var (
		mode     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "relay <kelvin|r,g,b>...",
		Short: "Relay color temperatures to the coordinator through a gamma hook",
		Long: "Relay color temperatures to the coordinator through a gamma hook.\n\n" +
			"This runs the same code as a hooked program, with every device\n" +
			"context treated as a display.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode == "" {
				mode = a.cfg.Hook.Mode
			}
			m, err := gammahook.ParseMode(mode)
			if err != nil {
				return err
			}

			ramps := make([]*redshift.Ramp, len(args))
			for i, arg := range args {
				white, err := redshift.ParseCT(arg)
				if err != nil {
					return err
				}
				ramps[i] = redshift.NewRamp(white, redshift.Linear)
			}

			h, err := gammahook.New(gammahook.Options{
				Platform: loopback{},
				Mode:     m,
				Timeouts: a.cfg.Timeouts(),
				NoWait:   !a.cfg.Hook.WaitResponse,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}
			defer h.Close()

			session := a.cfg.Session()
			if !h.Start(session) {
				return fmt.Errorf("failed to start hook session for %s:%d", session.Host, session.Port)
			}

			out := cmd.OutOrStdout()
			for i, ramp := range ramps {
				if i != 0 && interval > 0 {
					time.Sleep(interval)
				}
				if !h.SetDeviceGammaRamp(1, ramp) {
					return fmt.Errorf("relay %s: rejected", args[i])
				}
				fmt.Fprintf(out, "relayed %s\n", ramp.WhitePoint())
			}

			if !h.Stop() {
				return fmt.Errorf("failed to stop hook session")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Hook mode (fast-bypass or always-serialize), default from config")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time to wait between relayed values")
	return cmd
}
