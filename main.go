// fritz-wlan switches the WLAN of an AVM FRITZ!Box on and off, from the
// system tray or the command line.
//
// - No args + display available → tray mode
// - No args + no display → CLI help
// - --gui → tray mode
// - --cli → CLI mode (force)
// - CLI subcommands/flags → CLI mode
package main

import (
	"os"
	"runtime"
	"slices"

	"github.com/wlantray/fritz-wlan/internal/cli"
)

func main() {
	args := os.Args[1:]
	if !isCLIMode(args, runtime.GOOS, os.Getenv) {
		// --gui and --config-dir are accepted by the tray command too
		args = append([]string{"tray"}, args...)
	}

	if err := cli.ExecuteArgs(args); err != nil {
		os.Exit(1)
	}
}

// isCLIMode determines whether to run in CLI mode based on arguments and
// environment.
//
// CLI mode when:
//   - --cli flag is present (force CLI mode)
//   - any other argument is present (subcommands, --help, --version ...)
//   - no display is available (DISPLAY/WAYLAND_DISPLAY not set on Linux)
//
// Tray mode when:
//   - --gui flag is present (force tray mode)
//   - no arguments and a display is available
func isCLIMode(args []string, goos string, getenv func(string) string) bool {
	if slices.Contains(args, "--cli") {
		return true
	}
	if slices.Contains(args, "--gui") {
		return false
	}

	if len(args) == 0 {
		if goos == "linux" && getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
			return true
		}
		return false
	}

	// Unknown arguments go to the CLI, which prints help for typos
	return true
}
