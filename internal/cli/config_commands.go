package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/constants"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage router address and credentials",
		Long: `Configuration management commands for fritz-wlan.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  set   - Change individual values
  test  - Test the router connection
  path  - Show configuration file paths`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func newStore() *config.Store {
	return config.NewStore(ConfigDir(), GetLogger())
}

// loadOrDefault returns the saved config and whether it was loaded, or the
// default record when none can be read.
func loadOrDefault(store *config.Store) (config.RouterConfig, bool) {
	cfg, err := store.LoadStrict()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			GetLogger().Warn().Err(err).Msg("Existing configuration unreadable, using defaults")
		}
		return config.DefaultRouterConfig(), false
	}
	return cfg, true
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for fritz-wlan.

Asks for the router address, username and password and saves them
encrypted. The password is read without echo. A default settings.ini
is written next to it when none exists.

Use --force to overwrite an existing configuration without asking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store := newStore()
			p := newPrompter(cmd.InOrStdin(), out)

			current, _ := loadOrDefault(store)
			if store.Exists() && !force {
				fmt.Fprintf(out, "Configuration already exists at: %s\n", store.ConfigPath())
				if !p.confirm("Overwrite it?") {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			fmt.Fprintln(out, "FRITZ!Box Configuration Setup")
			fmt.Fprintln(out, "=============================")
			fmt.Fprintln(out)

			var cfg config.RouterConfig
			var err error
			if cfg.IP, err = p.line("IP Address", current.IP); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			if cfg.Username, err = p.line("Username", current.Username); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			if cfg.Password, err = p.password("Password", current.Password); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			if err := store.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", store.ConfigPath())

			settingsPath := config.SettingsPath(ConfigDir())
			if _, err := os.Stat(settingsPath); errors.Is(err, fs.ErrNotExist) {
				if err := config.SaveSettings(config.NewSettings(), settingsPath); err != nil {
					return fmt.Errorf("failed to write default settings: %w", err)
				}
				fmt.Fprintf(out, "✓ Default settings written to: %s\n", settingsPath)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Test your configuration with: %s config test\n", constants.AppName)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the router configuration and settings.

The password is never displayed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store := newStore()
			cfg, loaded := loadOrDefault(store)

			fmt.Fprintln(out, "Current Configuration")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Router:")
			fmt.Fprintf(out, "  IP Address: %s\n", cfg.IP)
			fmt.Fprintf(out, "  Username:   %s\n", cfg.Username)
			fmt.Fprintf(out, "  Password:   %s\n", cfg.MaskedPassword())
			fmt.Fprintln(out)

			settingsPath := config.SettingsPath(ConfigDir())
			s, err := config.LoadSettings(settingsPath)
			if err != nil {
				fmt.Fprintf(out, "Settings unreadable (%v), showing defaults\n", err)
				s = config.NewSettings()
			}
			if err := s.Validate(); err != nil {
				fmt.Fprintf(out, "Settings problems in %s (defaults used):\n", settingsPath)
				for _, problem := range s.Normalize() {
					fmt.Fprintf(out, "  - %v\n", problem)
				}
				fmt.Fprintln(out)
			}

			scheme, port := "http", s.Router.Port
			if s.Router.UseTLS {
				scheme, port = "https", s.Router.TLSPort
			}
			fmt.Fprintln(out, "Settings:")
			fmt.Fprintf(out, "  Endpoint:         %s port %d\n", scheme, port)
			fmt.Fprintf(out, "  WLAN services:    %v\n", s.Router.WLANServices)
			fmt.Fprintf(out, "  Timeout:          %s\n", s.Router.Timeout())
			fmt.Fprintf(out, "  Retries:          %d\n", s.Router.Retries)
			fmt.Fprintf(out, "  Refresh interval: %s\n", s.Tray.RefreshInterval())
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Configuration file: %s\n", store.ConfigPath())
			if !loaded {
				fmt.Fprintln(out, "  (not saved yet - using defaults)")
			}
			return nil
		},
	}
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	var ip, username, password string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change router address or credentials",
		Long: `Change individual configuration values without prompting.

Values that are not given keep their current setting.

Examples:
  fritz-wlan config set --ip 192.168.178.1
  fritz-wlan config set --username admin --password secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("ip") && !flags.Changed("username") && !flags.Changed("password") {
				return fmt.Errorf("nothing to set: use --ip, --username or --password")
			}

			store := newStore()
			cfg, _ := loadOrDefault(store)
			if flags.Changed("ip") {
				cfg.IP = ip
			}
			if flags.Changed("username") {
				cfg.Username = username
			}
			if flags.Changed("password") {
				cfg.Password = password
			}

			if err := store.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration saved to: %s\n", store.ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&ip, "ip", "", "Router IP address or host name")
	cmd.Flags().StringVar(&username, "username", "", "Router username")
	cmd.Flags().StringVar(&password, "password", "", "Router password")

	return cmd
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the router connection",
		Long: `Test the router connection with the current configuration.

Reads the WLAN status, which needs a reachable router and valid
credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, _ := loadOrDefault(newStore())

			fmt.Fprintf(out, "Router: %s\n", cfg.IP)
			fmt.Fprintln(out, "Testing connection...")

			ctx, cancel := context.WithTimeout(GetContext(), constants.TrayActionTimeout)
			defer cancel()

			bands, err := newController().Status(ctx)
			if err != nil {
				GetLogger().Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				fmt.Fprintf(out, "  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
			for _, b := range bands {
				fmt.Fprintf(out, "  WLAN %d: %s (%s)\n", b.Index, b.SSID, onOff(b.Enabled))
			}
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths of the configuration, key, settings and log files.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			dir := ConfigDir()
			configPath, keyPath := config.NewStore(dir, nil).Paths()

			fmt.Fprintf(out, "Config:   %s\n", configPath)
			fmt.Fprintf(out, "Key:      %s\n", keyPath)
			fmt.Fprintf(out, "Settings: %s\n", config.SettingsPath(dir))
			fmt.Fprintf(out, "Log:      %s\n", config.LogFilePath(dir))
			return nil
		},
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
