// fritz-wlan-tray is the tray-only build of fritz-wlan. Without arguments it
// starts the tray; arguments are handled by the CLI so the tray can launch
// its own settings window.
//
// Build for Windows without a console window:
//
//	GOOS=windows go build -ldflags "-H=windowsgui" ./cmd/fritz-wlan-tray
package main

import (
	"os"

	"github.com/wlantray/fritz-wlan/internal/cli"
)

func main() {
	if err := cli.ExecuteArgs(trayArgs(os.Args[1:])); err != nil {
		os.Exit(1)
	}
}

func trayArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"tray"}
	}
	return args
}
