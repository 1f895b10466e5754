package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/gui"
	"github.com/wlantray/fritz-wlan/internal/logging"
	"github.com/wlantray/fritz-wlan/internal/tray"
)

// newAppLogger creates the file-backed logger for tray and settings modes.
// The level comes from settings.ini unless debug output was requested.
func newAppLogger(mode, dir string) *logging.Logger {
	l := logging.NewLogger(mode, config.LogFilePath(dir))

	level := zerolog.InfoLevel
	if s, err := config.LoadSettings(config.SettingsPath(dir)); err == nil {
		level = logging.ParseLevel(s.Logging.Level)
	}
	if debugRequested() {
		level = zerolog.DebugLevel
	}
	logging.SetGlobalLevel(level)
	return l
}

func newSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Open the settings window",
		Long: `Open the settings window to edit the router address and credentials.

The tray starts this command as a separate process when Settings is chosen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ConfigDir()
			log := newAppLogger(logging.ModeGUI, dir)
			defer log.Close()

			return gui.RunSettings(config.NewStore(dir, log), log)
		},
	}
}

func newTrayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run the system tray application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunTray()
		},
	}
}

// RunTray runs the tray application until Quit is chosen.
func RunTray() error {
	dir := ConfigDir()
	log := newAppLogger(logging.ModeTray, dir)
	defer log.Close()

	tray.New(tray.Options{ConfigDir: dir, Logger: log}).Run()
	return nil
}
