// Package wlan switches and reads the router's WLAN radios.
package wlan

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/events"
	internalhttp "github.com/wlantray/fritz-wlan/internal/http"
	"github.com/wlantray/fritz-wlan/internal/logging"
	"github.com/wlantray/fritz-wlan/internal/tr064"
)

// ErrNotApplied is returned when the router accepted SetEnable but the
// read-back state does not match.
var ErrNotApplied = errors.New("router did not apply the WLAN change")

// Operation names used in logs and error events.
const (
	OpSwitchOn  = "switch_on"
	OpSwitchOff = "switch_off"
	OpStatus    = "status"
)

// BandInfo is the state of one WLANConfiguration service.
type BandInfo struct {
	Index    int    `json:"index"`
	Enabled  bool   `json:"enabled"`
	Status   string `json:"status"` // "Up", "Disabled", ...
	SSID     string `json:"ssid"`
	Channel  int    `json:"channel"`
	Standard string `json:"standard"`
}

// Result is the outcome of a switch operation.
type Result struct {
	// Enabled is the state read back from the first configured band.
	Enabled bool

	// Message is the user-facing text shown in the notification.
	Message string

	// Bands holds the read-back state of every switched band. Empty when
	// the operation failed before reading back.
	Bands []BandInfo
}

// Controller performs WLAN operations against the configured router.
// Router address, credentials and settings are re-read for every operation,
// so changes saved from another process are picked up immediately.
type Controller struct {
	store        *config.Store
	settingsPath string
	bus          *events.EventBus
	logger       *logging.Logger

	// serializes operations; the router handles one change at a time
	mu sync.Mutex
}

// Options configures a Controller.
type Options struct {
	Store        *config.Store
	SettingsPath string // "" uses default settings
	Bus          *events.EventBus
	Logger       *logging.Logger
}

// NewController creates a controller.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		store:        opts.Store,
		settingsPath: opts.SettingsPath,
		bus:          opts.Bus,
		logger:       logger,
	}
}

// SwitchOn enables the configured WLAN bands and verifies the result.
// The returned Result always carries a message suitable for the user, even
// when err is non-nil.
func (c *Controller) SwitchOn(ctx context.Context) (Result, error) {
	return c.switchTo(ctx, true)
}

// SwitchOff disables the configured WLAN bands and verifies the result.
func (c *Controller) SwitchOff(ctx context.Context) (Result, error) {
	return c.switchTo(ctx, false)
}

// Toggle switches to the opposite of the first configured band's state.
func (c *Controller) Toggle(ctx context.Context) (Result, error) {
	bands, err := c.Status(ctx)
	if err != nil {
		return Result{Message: StatusErrorMessage(err)}, err
	}
	if bands[0].Enabled {
		return c.SwitchOff(ctx)
	}
	return c.SwitchOn(ctx)
}

// Status reads every configured band.
func (c *Controller) Status(ctx context.Context) ([]BandInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fail := func(err error) ([]BandInfo, error) {
		c.logFailure(OpStatus, err)
		c.bus.PublishError(OpStatus, StatusErrorMessage(err), err)
		return nil, err
	}

	client, settings, err := c.newClient()
	if err != nil {
		return fail(err)
	}

	bands, err := readBands(ctx, client, settings.Router.WLANServices)
	if err != nil {
		return fail(err)
	}

	c.logger.Debug().Bool("enabled", bands[0].Enabled).Str("ssid", bands[0].SSID).Msg("WLAN status")
	c.bus.PublishWLANState(bands[0].Enabled, false, "", bands[0].SSID)
	return bands, nil
}

func (c *Controller) switchTo(ctx context.Context, enable bool) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	op, verb := OpSwitchOff, "disabling"
	if enable {
		op, verb = OpSwitchOn, "enabling"
	}

	fail := func(err error) (Result, error) {
		msg := fmt.Sprintf("Error %s WLAN: %v", verb, err)
		c.logFailure(op, err)
		c.bus.PublishError(op, msg, err)
		return Result{Message: msg}, err
	}

	client, settings, err := c.newClient()
	if err != nil {
		return fail(err)
	}

	for _, idx := range settings.Router.WLANServices {
		if _, err := client.Call(ctx, tr064.WLANService(idx), "SetEnable", tr064.Arg{Name: "NewEnable", Value: enable}); err != nil {
			return fail(err)
		}
	}

	bands, err := readBands(ctx, client, settings.Router.WLANServices)
	if err != nil {
		return fail(err)
	}

	result := Result{Enabled: bands[0].Enabled, Bands: bands}
	for _, band := range bands {
		if band.Enabled != enable {
			result.Message = NotAppliedMessage(enable)
			c.logger.Warn().Int("band", band.Index).Bool("requested", enable).Msg(result.Message)
			c.bus.PublishWLANState(result.Enabled, true, result.Message, bands[0].SSID)
			return result, fmt.Errorf("%w: band %d", ErrNotApplied, band.Index)
		}
	}

	result.Message = SuccessMessage(enable)
	c.logger.Info().Str("operation", op).Ints("bands", settings.Router.WLANServices).Msg("WLAN switched")
	c.bus.PublishWLANState(enable, true, result.Message, bands[0].SSID)
	return result, nil
}

// SuccessMessage is the user-facing text for a verified switch.
func SuccessMessage(enabled bool) string {
	if enabled {
		return "WLAN ON ✅"
	}
	return "WLAN OFF ❌"
}

// NotAppliedMessage is the user-facing text when the router kept its state.
func NotAppliedMessage(enable bool) string {
	if enable {
		return "WLAN could not be enabled."
	}
	return "WLAN could not be disabled."
}

// StatusErrorMessage is the user-facing text for a failed status read.
func StatusErrorMessage(err error) string {
	return fmt.Sprintf("Error reading WLAN status: %v", err)
}

// newClient builds a router client from the current config and settings.
func (c *Controller) newClient() (*tr064.Client, *config.Settings, error) {
	cfg := c.store.Load()

	settings := config.NewSettings()
	if c.settingsPath != "" {
		loaded, err := config.LoadSettings(c.settingsPath)
		if err != nil {
			c.logger.Warn().Err(err).Str("path", c.settingsPath).Msg("Error loading settings, using defaults")
		} else {
			settings = loaded
		}
	}
	for _, err := range settings.Normalize() {
		c.logger.Warn().Err(err).Msg("Invalid setting replaced by default")
	}

	port := settings.Router.Port
	if settings.Router.UseTLS {
		port = settings.Router.TLSPort
	}

	client, err := tr064.New(tr064.Options{
		Address:  cfg.IP,
		Username: cfg.Username,
		Password: cfg.Password,
		Port:     port,
		UseTLS:   settings.Router.UseTLS,
		HTTPClient: internalhttp.NewRouterClient(internalhttp.ClientOptions{
			Timeout:          settings.Router.Timeout(),
			Retries:          settings.Router.Retries,
			AcceptSelfSigned: settings.Router.UseTLS,
			Logger:           c.logger,
		}),
		Logger: c.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, settings, nil
}

func readBands(ctx context.Context, client *tr064.Client, services []int) ([]BandInfo, error) {
	bands := make([]BandInfo, 0, len(services))
	for _, idx := range services {
		out, err := client.Call(ctx, tr064.WLANService(idx), "GetInfo")
		if err != nil {
			return nil, err
		}
		enabled, err := out.Bool("NewEnable")
		if err != nil {
			return nil, err
		}
		channel, _ := out.Int("NewChannel")
		bands = append(bands, BandInfo{
			Index:    idx,
			Enabled:  enabled,
			Status:   out.String("NewStatus"),
			SSID:     out.String("NewSSID"),
			Channel:  channel,
			Standard: out.String("NewStandard"),
		})
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("no WLAN services configured")
	}
	return bands, nil
}

func (c *Controller) logFailure(op string, err error) {
	errType := internalhttp.ClassifyError(err)
	event := c.logger.Error().Err(err).Str("operation", op).Str("error_type", internalhttp.ErrorTypeName(errType))
	if hint := internalhttp.Hint(errType); hint != "" {
		event = event.Str("hint", hint)
	}
	event.Msg("WLAN operation failed")
}
