package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/wlantray/fritz-wlan/internal/constants"
)

// Settings holds the non-secret preferences stored in settings.ini.
//
// INI format:
//
//	[router]
//	port = 49000
//	tls_port = 49443
//	use_tls = false
//	wlan_services = 1
//	timeout_seconds = 10
//	retries = 2
//
//	[tray]
//	refresh_interval_seconds = 60
//
//	[notifications]
//	enabled = true
//	show_errors = true
//
//	[logging]
//	level = info
type Settings struct {
	Router        RouterSettings
	Tray          TraySettings
	Notifications NotificationSettings
	Logging       LoggingSettings
}

// RouterSettings controls how the TR-064 interface is reached.
type RouterSettings struct {
	// Port is the plain HTTP TR-064 port. Default: 49000
	Port int

	// TLSPort is the HTTPS TR-064 port. Default: 49443
	TLSPort int

	// UseTLS selects HTTPS. The router certificate is self-signed and is
	// accepted without verification.
	UseTLS bool

	// WLANServices lists the WLANConfiguration service indexes to switch.
	// 1 is the first radio (2.4 GHz), 2 the second (5 GHz), 3 usually the
	// guest network. Default: [1]
	WLANServices []int

	// TimeoutSeconds bounds a single request. Range 1-120, Default: 10
	TimeoutSeconds int

	// Retries is the number of transport-level retries. Range 0-10, Default: 2
	Retries int
}

// TraySettings controls the tray status polling.
type TraySettings struct {
	// RefreshIntervalSeconds is the status polling interval; 0 disables it.
	// Range 0-3600, Default: 60
	RefreshIntervalSeconds int
}

// NotificationSettings contains settings for desktop notifications.
type NotificationSettings struct {
	// Enabled indicates whether notifications are shown. Default: true
	Enabled bool

	// ShowErrors shows a notification when a router call fails. Default: true
	ShowErrors bool
}

// LoggingSettings selects the log level for tray and settings modes.
type LoggingSettings struct {
	Level string
}

// Validation errors
var (
	ErrInvalidPort            = errors.New("port must be between 1 and 65535")
	ErrNoWLANServices         = errors.New("wlan_services must list at least one service index")
	ErrInvalidWLANService     = errors.New("wlan_services indexes must be between 1 and 9")
	ErrInvalidTimeout         = errors.New("timeout_seconds must be between 1 and 120")
	ErrInvalidRetries         = errors.New("retries must be between 0 and 10")
	ErrInvalidRefreshInterval = errors.New("refresh_interval_seconds must be between 0 and 3600")
)

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Router: RouterSettings{
			Port:           constants.TR064Port,
			TLSPort:        constants.TR064TLSPort,
			UseTLS:         false,
			WLANServices:   []int{1},
			TimeoutSeconds: int(constants.RouterTimeout / time.Second),
			Retries:        constants.RouterRetries,
		},
		Tray: TraySettings{
			RefreshIntervalSeconds: int(constants.TrayRefreshInterval / time.Second),
		},
		Notifications: NotificationSettings{
			Enabled:    true,
			ShowErrors: true,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// SettingsPath returns the settings.ini path inside dir.
func SettingsPath(dir string) string {
	return filepath.Join(dir, constants.SettingsFileName)
}

// LoadSettings loads preferences from an INI file.
// If the file doesn't exist, returns default settings and no error.
// If the file exists but is invalid, returns an error.
func LoadSettings(path string) (*Settings, error) {
	s := NewSettings()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	routerSection := iniFile.Section("router")
	s.Router.Port = routerSection.Key("port").MustInt(s.Router.Port)
	s.Router.TLSPort = routerSection.Key("tls_port").MustInt(s.Router.TLSPort)
	s.Router.UseTLS = routerSection.Key("use_tls").MustBool(false)
	s.Router.TimeoutSeconds = routerSection.Key("timeout_seconds").MustInt(s.Router.TimeoutSeconds)
	s.Router.Retries = routerSection.Key("retries").MustInt(s.Router.Retries)
	if routerSection.HasKey("wlan_services") {
		services, err := parseServiceList(routerSection.Key("wlan_services").String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse wlan_services: %w", err)
		}
		s.Router.WLANServices = services
	}

	traySection := iniFile.Section("tray")
	s.Tray.RefreshIntervalSeconds = traySection.Key("refresh_interval_seconds").MustInt(s.Tray.RefreshIntervalSeconds)

	notifySection := iniFile.Section("notifications")
	s.Notifications.Enabled = notifySection.Key("enabled").MustBool(true)
	s.Notifications.ShowErrors = notifySection.Key("show_errors").MustBool(true)

	s.Logging.Level = iniFile.Section("logging").Key("level").MustString(s.Logging.Level)

	return s, nil
}

// SaveSettings writes preferences to an INI file.
// Creates parent directories if they don't exist.
func SaveSettings(s *Settings, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	routerSection, err := iniFile.NewSection("router")
	if err != nil {
		return fmt.Errorf("failed to create router section: %w", err)
	}
	routerSection.Key("port").SetValue(strconv.Itoa(s.Router.Port))
	routerSection.Key("tls_port").SetValue(strconv.Itoa(s.Router.TLSPort))
	routerSection.Key("use_tls").SetValue(fmt.Sprintf("%t", s.Router.UseTLS))
	routerSection.Key("wlan_services").SetValue(formatServiceList(s.Router.WLANServices))
	routerSection.Key("timeout_seconds").SetValue(strconv.Itoa(s.Router.TimeoutSeconds))
	routerSection.Key("retries").SetValue(strconv.Itoa(s.Router.Retries))

	traySection, err := iniFile.NewSection("tray")
	if err != nil {
		return fmt.Errorf("failed to create tray section: %w", err)
	}
	traySection.Key("refresh_interval_seconds").SetValue(strconv.Itoa(s.Tray.RefreshIntervalSeconds))

	notifySection, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(fmt.Sprintf("%t", s.Notifications.Enabled))
	notifySection.Key("show_errors").SetValue(fmt.Sprintf("%t", s.Notifications.ShowErrors))

	loggingSection, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	loggingSection.Key("level").SetValue(s.Logging.Level)

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set settings permissions: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

// Validate checks every setting and returns the first problem found.
func (s *Settings) Validate() error {
	if s.Router.Port < 1 || s.Router.Port > 65535 || s.Router.TLSPort < 1 || s.Router.TLSPort > 65535 {
		return ErrInvalidPort
	}
	if len(s.Router.WLANServices) == 0 {
		return ErrNoWLANServices
	}
	for _, idx := range s.Router.WLANServices {
		if idx < 1 || idx > 9 {
			return ErrInvalidWLANService
		}
	}
	if s.Router.TimeoutSeconds < 1 || s.Router.TimeoutSeconds > 120 {
		return ErrInvalidTimeout
	}
	if s.Router.Retries < 0 || s.Router.Retries > 10 {
		return ErrInvalidRetries
	}
	if s.Tray.RefreshIntervalSeconds < 0 || s.Tray.RefreshIntervalSeconds > int(constants.MaxTrayRefreshInterval/time.Second) {
		return ErrInvalidRefreshInterval
	}
	return nil
}

// Normalize replaces out-of-range values with defaults and returns the
// validation problems that were corrected, so a hand-edited file never
// prevents the tray from starting.
func (s *Settings) Normalize() []error {
	defaults := NewSettings()
	var problems []error

	if s.Router.Port < 1 || s.Router.Port > 65535 {
		s.Router.Port = defaults.Router.Port
		problems = append(problems, ErrInvalidPort)
	}
	if s.Router.TLSPort < 1 || s.Router.TLSPort > 65535 {
		s.Router.TLSPort = defaults.Router.TLSPort
		problems = append(problems, ErrInvalidPort)
	}
	var services []int
	for _, idx := range s.Router.WLANServices {
		if idx >= 1 && idx <= 9 {
			services = append(services, idx)
		}
	}
	if len(services) != len(s.Router.WLANServices) {
		problems = append(problems, ErrInvalidWLANService)
	}
	if len(services) == 0 {
		services = defaults.Router.WLANServices
		problems = append(problems, ErrNoWLANServices)
	}
	s.Router.WLANServices = services
	if s.Router.TimeoutSeconds < 1 || s.Router.TimeoutSeconds > 120 {
		s.Router.TimeoutSeconds = defaults.Router.TimeoutSeconds
		problems = append(problems, ErrInvalidTimeout)
	}
	if s.Router.Retries < 0 || s.Router.Retries > 10 {
		s.Router.Retries = defaults.Router.Retries
		problems = append(problems, ErrInvalidRetries)
	}
	if s.Tray.RefreshIntervalSeconds < 0 || s.Tray.RefreshIntervalSeconds > int(constants.MaxTrayRefreshInterval/time.Second) {
		s.Tray.RefreshIntervalSeconds = defaults.Tray.RefreshIntervalSeconds
		problems = append(problems, ErrInvalidRefreshInterval)
	}
	return problems
}

// Timeout returns the per-request timeout as a duration.
func (r RouterSettings) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the polling interval; zero disables polling.
func (t TraySettings) RefreshInterval() time.Duration {
	return time.Duration(t.RefreshIntervalSeconds) * time.Second
}

// parseServiceList parses "1, 2,3" into []int{1, 2, 3}.
func parseServiceList(s string) ([]int, error) {
	var out []int
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid service index %q", field)
		}
		out = append(out, n)
	}
	return out, nil
}

func formatServiceList(services []int) string {
	parts := make([]string, len(services))
	for i, idx := range services {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}
