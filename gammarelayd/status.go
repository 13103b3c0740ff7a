package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pgaskin/gammahook/coordinator"
	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the coordinator status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := fetchStatus(a.cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintf(out, "%s\n", buf)
				return nil
			}
			renderStatus(out, coordinator.ParseStatus(buf), time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "json", false, "Print the raw status JSON")
	return cmd
}

func fetchStatus(cfg *Config) ([]byte, error) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}
	u := "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)) + "/status"

	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get status: response status %d", resp.StatusCode)
	}
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("get status: read response: %w", err)
	}
	return buf, nil
}

func renderStatus(w io.Writer, st coordinator.Status, now time.Time) {
	phase := st.Phase
	if phase == "" {
		phase = "none"
	}
	fmt.Fprintf(w, "white point:  %s (~%dK)\n", st.White, st.Temperature)
	if st.Requested != st.White {
		fmt.Fprintf(w, "requested:    %s (deferred)\n", st.Requested)
	}
	fmt.Fprintf(w, "curve:        gamma %.3f, contrast %.3f, range %.0f-%.0f\n", st.Curve.Gamma, st.Curve.Contrast, st.Curve.Min*255, st.Curve.Max*255)
	fmt.Fprintf(w, "round:        %s (alive=%t flashed=%d smoked=%d)\n", phase, st.Alive, st.Flashed, st.Smoked)
	if st.Updated.IsZero() {
		fmt.Fprintf(w, "updated:      never\n")
	} else {
		fmt.Fprintf(w, "updated:      %s\n", humanize.RelTime(st.Updated, now, "ago", "from now"))
	}
	fmt.Fprintf(w, "requests:     %s color temperature, %s game state, %s invalid\n",
		humanize.Comma(int64(st.Requests)), humanize.Comma(int64(st.States)), humanize.Comma(int64(st.Invalid)))
}
