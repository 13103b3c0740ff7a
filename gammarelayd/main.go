// Command gammarelayd is the coordinator for gamma hooks. It receives the color
// temperatures relayed by hooked programs and CS:GO game state updates, and
// applies the resulting color ramp to the displays using X11, wl-gammarelay or
// GDI. The game finds the coordinator through the config written by the gsi
// command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
