package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/progress"
	"github.com/wlantray/fritz-wlan/internal/wlan"
)

func newController() *wlan.Controller {
	dir := ConfigDir()
	log := GetLogger()
	return wlan.NewController(wlan.Options{
		Store:        config.NewStore(dir, log),
		SettingsPath: config.SettingsPath(dir),
		Logger:       log,
	})
}

// runSwitch runs a switch operation with a spinner and prints the result
// message, on failure too. Failures return an error for a non-zero exit.
func runSwitch(cmd *cobra.Command, description string, op func(*wlan.Controller, context.Context) (wlan.Result, error)) error {
	spinner := progress.NewSpinner(cmd.ErrOrStderr())
	spinner.Start(description)
	result, err := op(newController(), GetContext())
	spinner.Stop()

	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	if err != nil {
		return fmt.Errorf("%s failed: %w", cmd.Name(), err)
	}
	return nil
}

func newOnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "on",
		Short: "Switch the WLAN on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwitch(cmd, "Switching WLAN on", (*wlan.Controller).SwitchOn)
		},
	}
}

func newOffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "off",
		Short: "Switch the WLAN off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwitch(cmd, "Switching WLAN off", (*wlan.Controller).SwitchOff)
		},
	}
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Switch the WLAN to the opposite of its current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwitch(cmd, "Toggling WLAN", (*wlan.Controller).Toggle)
		},
	}
}

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the configured WLAN bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spinner := progress.NewSpinner(cmd.ErrOrStderr())
			spinner.Start("Reading WLAN status")
			bands, err := newController().Status(GetContext())
			spinner.Stop()

			out := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintln(out, wlan.StatusErrorMessage(err))
				return fmt.Errorf("status failed: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(bands)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BAND\tSTATE\tSTATUS\tSSID\tCHANNEL\tSTANDARD")
			for _, b := range bands {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", b.Index, onOff(b.Enabled), b.Status, b.SSID, b.Channel, b.Standard)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the band list as JSON")

	return cmd
}
