// Package cli provides the command-line interface for fritz-wlan.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/constants"
	"github.com/wlantray/fritz-wlan/internal/logging"
	"github.com/wlantray/fritz-wlan/internal/version"
)

var (
	// Global flags
	configDir string
	verbose   bool
	debug     bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command for CLI mode.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Switch the FRITZ!Box WLAN on and off",
		Long: `fritz-wlan ` + version.Version + ` - Built: ` + version.BuildTime + `
Switches the WLAN of an AVM FRITZ!Box on and off over TR-064.

Tray Mode (default with a display):
  A system tray icon with WLAN ON / WLAN OFF / Settings / Quit.

CLI Mode:
  fritz-wlan on | off | toggle | status
  fritz-wlan config init | show | set | path`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			// stdout carries command results only
			logger.SetOutput(cmd.ErrOrStderr())
			if debugRequested() {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: per-user config dir, or $"+constants.ConfigDirEnv+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	// accepted so that forced-mode invocations still parse
	rootCmd.PersistentFlags().Bool("cli", false, "Force CLI mode")
	rootCmd.PersistentFlags().Bool("gui", false, "Force tray mode")
	_ = rootCmd.PersistentFlags().MarkHidden("cli")
	_ = rootCmd.PersistentFlags().MarkHidden("gui")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return ExecuteArgs(nil)
}

// ExecuteArgs runs the CLI with explicit arguments; nil uses os.Args.
func ExecuteArgs(args []string) error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	if args != nil {
		rootCmd.SetArgs(args)
	}
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newOnCmd())
	rootCmd.AddCommand(newOffCmd())
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newTrayCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// ConfigDir returns the resolved configuration directory.
func ConfigDir() string {
	return config.ConfigDirectory(configDir)
}

func debugRequested() bool {
	return verbose || debug || os.Getenv(constants.DebugEnv) != ""
}
