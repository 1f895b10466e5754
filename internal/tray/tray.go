// Package tray implements the system tray application.
package tray

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"fyne.io/systray"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/constants"
	"github.com/wlantray/fritz-wlan/internal/events"
	"github.com/wlantray/fritz-wlan/internal/logging"
	"github.com/wlantray/fritz-wlan/internal/notify"
	"github.com/wlantray/fritz-wlan/internal/wlan"
)

// Notifier shows operation results to the user.
type Notifier interface {
	Status(message string)
	Failure(message string)
	Alert(message string)
	Apply(cfg *notify.Config)
}

// Options configures the tray application.
type Options struct {
	ConfigDir string
	Logger    *logging.Logger

	// Notifier defaults to desktop notifications.
	Notifier Notifier
}

// App manages the system tray application state.
type App struct {
	configDir    string
	store        *config.Store
	settingsPath string
	ctrl         *wlan.Controller
	bus          *events.EventBus
	notifier     Notifier
	logger       *logging.Logger
	updates      <-chan events.Event

	mu           sync.Mutex
	state        State
	settingsOpen bool

	// render draws a state; nil until the tray is ready
	render func(State)

	mStatus   *systray.MenuItem
	mOn       *systray.MenuItem
	mOff      *systray.MenuItem
	mSettings *systray.MenuItem
	mQuit     *systray.MenuItem

	done     chan struct{}
	doneOnce sync.Once
}

// New creates the tray application without showing it.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	store := config.NewStore(opts.ConfigDir, logger)
	settingsPath := config.SettingsPath(opts.ConfigDir)
	bus := events.NewEventBus(constants.EventBusDefaultBuffer)

	n := opts.Notifier
	if n == nil {
		n = notify.NewNotifier(nil, logger)
	}

	a := &App{
		configDir:    opts.ConfigDir,
		store:        store,
		settingsPath: settingsPath,
		bus:          bus,
		notifier:     n,
		logger:       logger,
		done:         make(chan struct{}),
		ctrl: wlan.NewController(wlan.Options{
			Store:        store,
			SettingsPath: settingsPath,
			Bus:          bus,
			Logger:       logger,
		}),
	}
	// subscribe before anything can publish
	a.updates = bus.SubscribeAll()
	return a
}

// Run shows the tray icon and blocks until Quit is chosen.
func (a *App) Run() {
	systray.Run(a.onReady, a.onExit)
}

func (a *App) onReady() {
	if icon, err := Icon(IndicatorUnknown); err == nil {
		systray.SetIcon(icon)
	} else {
		a.logger.Warn().Err(err).Msg("Failed to render tray icon")
	}
	systray.SetTooltip(constants.TrayTooltip)

	a.mStatus = systray.AddMenuItem("Status: checking...", "WLAN status")
	a.mStatus.Disable()

	systray.AddSeparator()

	a.mOn = systray.AddMenuItem("WLAN ON", "Switch the WLAN on")
	a.mOff = systray.AddMenuItem("WLAN OFF", "Switch the WLAN off")

	systray.AddSeparator()

	a.mSettings = systray.AddMenuItem("Settings", "Router address and credentials")

	systray.AddSeparator()

	a.mQuit = systray.AddMenuItem("Quit", "Exit the tray application")

	a.mu.Lock()
	a.render = a.renderSystray
	a.mu.Unlock()

	a.logger.Info().Str("config_dir", a.configDir).Msg("Tray started")

	go a.eventLoop()
	go a.refreshLoop()
	go a.handleMenuClicks()
}

func (a *App) onExit() {
	a.stop()
	a.logger.Info().Int64("dropped_events", a.bus.GetDroppedEventCount()).Msg("Tray stopped")
}

func (a *App) stop() {
	a.doneOnce.Do(func() {
		close(a.done)
		a.bus.Close()
	})
}

// handleMenuClicks processes menu item clicks, one at a time.
func (a *App) handleMenuClicks() {
	for {
		select {
		case <-a.mOn.ClickedCh:
			a.switchWLAN(true)

		case <-a.mOff.ClickedCh:
			a.switchWLAN(false)

		case <-a.mSettings.ClickedCh:
			a.openSettings()

		case <-a.mQuit.ClickedCh:
			systray.Quit()
			return

		case <-a.done:
			return
		}
	}
}

// eventLoop applies controller events to the tray state.
func (a *App) eventLoop() {
	for ev := range a.updates {
		a.mu.Lock()
		a.state = a.state.Apply(ev)
		state, render := a.state, a.render
		a.mu.Unlock()

		if render != nil {
			render(state)
		}
	}
}

// refreshLoop polls the WLAN status. The interval is re-read from
// settings.ini after every poll; 0 disables polling after the first one.
func (a *App) refreshLoop() {
	a.refresh()

	for {
		interval := a.loadSettings().Tray.RefreshInterval()
		if interval <= 0 {
			<-a.done
			return
		}

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
			a.refresh()
		case <-a.done:
			timer.Stop()
			return
		}
	}
}

// refresh reads the current status. The result reaches the UI through
// the event bus.
func (a *App) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.TrayActionTimeout)
	defer cancel()

	if _, err := a.ctrl.Status(ctx); err != nil {
		a.logger.Debug().Err(err).Msg("Status refresh failed")
	}
}

// switchWLAN runs a switch operation and notifies the user of the outcome.
func (a *App) switchWLAN(enable bool) {
	a.notifier.Apply(notify.ConfigFromSettings(a.loadSettings().Notifications))

	ctx, cancel := context.WithTimeout(context.Background(), constants.TrayActionTimeout)
	defer cancel()

	var (
		result wlan.Result
		err    error
	)
	if enable {
		result, err = a.ctrl.SwitchOn(ctx)
	} else {
		result, err = a.ctrl.SwitchOff(ctx)
	}

	if err != nil && !errors.Is(err, wlan.ErrNotApplied) {
		a.notifier.Failure(result.Message)
		return
	}
	a.notifier.Status(result.Message)
}

// openSettings launches the settings window as a child process of this
// executable. When it closes, the config is re-read and the status refreshed.
func (a *App) openSettings() {
	a.mu.Lock()
	if a.settingsOpen {
		a.mu.Unlock()
		a.logger.Debug().Msg("Settings window already open")
		return
	}
	a.mu.Unlock()

	exePath, err := os.Executable()
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to find executable path")
		a.notifier.Alert(fmt.Sprintf("Failed to open settings: %v", err))
		return
	}

	cmd := exec.Command(exePath, settingsArgs(a.configDir)...)
	if err := cmd.Start(); err != nil {
		a.logger.Error().Err(err).Str("path", exePath).Msg("Failed to launch settings window")
		a.notifier.Alert(fmt.Sprintf("Failed to open settings: %v", err))
		return
	}

	a.mu.Lock()
	a.settingsOpen = true
	a.mu.Unlock()

	go func() {
		err := cmd.Wait()

		a.mu.Lock()
		a.settingsOpen = false
		a.mu.Unlock()

		if err != nil {
			a.logger.Warn().Err(err).Msg("Settings window exited with error")
		}
		a.configChanged()
	}()
}

// configChanged resets the tray state and re-reads the status with the
// config now on disk.
func (a *App) configChanged() {
	select {
	case <-a.done:
		return
	default:
	}
	a.bus.PublishConfigChanged(a.store.Load().IP)
	a.refresh()
}

func settingsArgs(configDir string) []string {
	args := []string{"settings"}
	if configDir != "" {
		args = append(args, "--config-dir", configDir)
	}
	return args
}

func (a *App) loadSettings() *config.Settings {
	s, err := config.LoadSettings(a.settingsPath)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", a.settingsPath).Msg("Error loading settings, using defaults")
		s = config.NewSettings()
	}
	s.Normalize()
	return s
}

func (a *App) renderSystray(s State) {
	if icon, err := Icon(s.Indicator); err == nil {
		systray.SetIcon(icon)
	}
	systray.SetTooltip(s.Tooltip())
	a.mStatus.SetTitle(s.StatusTitle())
}
