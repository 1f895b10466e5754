// Package gui provides the router settings window.
package gui

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/constants"
	"github.com/wlantray/fritz-wlan/internal/logging"
)

// SettingsForm edits the router address and credentials.
type SettingsForm struct {
	store  *config.Store
	window fyne.Window
	logger *logging.Logger

	ipEntry       *widget.Entry
	usernameEntry *widget.Entry
	passwordEntry *widget.Entry
	saveButton    *widget.Button

	// OnSaved runs after the confirmation dialog is dismissed.
	OnSaved func()
}

// NewSettingsForm creates the form, pre-filled from the saved config.
func NewSettingsForm(store *config.Store, window fyne.Window, logger *logging.Logger) *SettingsForm {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	f := &SettingsForm{
		store:  store,
		window: window,
		logger: logger,
	}

	cfg := store.Load()

	f.ipEntry = widget.NewEntry()
	f.ipEntry.SetPlaceHolder(constants.DefaultRouterIP)
	f.ipEntry.SetText(cfg.IP)

	f.usernameEntry = widget.NewEntry()
	f.usernameEntry.SetText(cfg.Username)

	f.passwordEntry = widget.NewPasswordEntry()
	f.passwordEntry.SetText(cfg.Password)

	f.saveButton = widget.NewButton("Save", f.submit)
	f.saveButton.Importance = widget.HighImportance

	return f
}

// Build returns the window content.
func (f *SettingsForm) Build() fyne.CanvasObject {
	form := widget.NewForm(
		widget.NewFormItem("IP Address", f.ipEntry),
		widget.NewFormItem("Username", f.usernameEntry),
		widget.NewFormItem("Password", f.passwordEntry),
	)
	return container.NewPadded(container.NewVBox(form, f.saveButton))
}

// Config returns the values currently entered.
func (f *SettingsForm) Config() config.RouterConfig {
	return config.RouterConfig{
		IP:       strings.TrimSpace(f.ipEntry.Text),
		Username: f.usernameEntry.Text,
		Password: f.passwordEntry.Text,
	}
}

// Save writes the entered values to the encrypted store.
func (f *SettingsForm) Save() error {
	cfg := f.Config()
	if err := f.store.Save(cfg); err != nil {
		f.logger.Error().Err(err).Msg("Failed to save settings")
		return err
	}
	f.logger.Info().Str("ip", cfg.IP).Msg("Settings saved")
	return nil
}

func (f *SettingsForm) submit() {
	if err := f.Save(); err != nil {
		dialog.ShowError(errors.New("An error occurred while saving settings:\n"+err.Error()), f.window)
		return
	}

	info := dialog.NewInformation("Saved", "Settings saved!", f.window)
	info.SetOnClosed(func() {
		if f.OnSaved != nil {
			f.OnSaved()
		}
	})
	info.Show()
}

// RunSettings shows the settings window and blocks until it is closed.
func RunSettings(store *config.Store, logger *logging.Logger) error {
	if runtime.GOOS == "linux" {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return fmt.Errorf("the settings window requires a display; use 'fritz-wlan config set' instead")
		}
	}

	a := app.NewWithID(constants.AppID)
	a.Settings().SetTheme(&darkTheme{})

	w := a.NewWindow("Settings")
	w.SetMaster()

	form := NewSettingsForm(store, w, logger)
	form.OnSaved = w.Close

	w.SetContent(form.Build())
	w.Resize(fyne.NewSize(360, 180))
	w.SetFixedSize(true)
	w.CenterOnScreen()
	w.Canvas().Focus(form.ipEntry)
	w.ShowAndRun()
	return nil
}
