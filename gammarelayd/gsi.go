package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// gsiFilename is the game state integration config read by the game from its
// cfg directory.
const gsiFilename = "gamestate_integration_dont_blind_me.cfg"

var gsiEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// renderGSI renders a game state integration config which makes the game post
// the round phase and the player's state to the coordinator at s.
func renderGSI(s Server) []byte {
	host := s.Host
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		if ip.To4() != nil {
			host = "127.0.0.1"
		} else {
			host = "::1"
		}
	}
	uri := "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port))

	var b strings.Builder
	b.WriteString("\"Don't Blind Me!\"\n{\n")
	fmt.Fprintf(&b, "\t\"uri\"       \"%s\"\n", gsiEscaper.Replace(uri))
	b.WriteString("\t\"timeout\"   \"1.1\"\n")
	b.WriteString("\t\"buffer\"    \"0.0\"\n")
	b.WriteString("\t\"throttle\"  \"0.0\"\n")
	b.WriteString("\t\"heartbeat\" \"60.0\"\n")
	b.WriteString("\t\"data\"\n\t{\n")
	for _, k := range []string{"provider", "round", "player_id", "player_state"} {
		fmt.Fprintf(&b, "\t\t\"%s\" \"1\"\n", k)
	}
	b.WriteString("\t}\n}\n")
	return []byte(b.String())
}

func newGSICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gsi [cfg-dir]",
		Short: "Write the game state integration config",
		Long: "Write the game state integration config for the configured server\n" +
			"address to the game's cfg directory, or print it if no directory is\n" +
			"given. The game must be restarted after the address changes.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf := renderGSI(a.cfg.Server)
			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(buf)
				return err
			}
			if fi, err := os.Stat(args[0]); err != nil {
				return err
			} else if !fi.IsDir() {
				return fmt.Errorf("%s is not a directory", args[0])
			}
			path := filepath.Join(args[0], gsiFilename)
			if err := os.WriteFile(path, buf, 0o644); err != nil {
				return fmt.Errorf("write game state integration config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}
