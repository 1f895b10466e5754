// Package notify shows desktop notifications for WLAN operations.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/logging"
)

// StatusTitle is the title of every WLAN result notification.
const StatusTitle = "Status"

const alertTitle = "FritzBox WLAN Control"

// maximum message length shown in a notification bubble
const maxMessageLen = 200

// Notifier handles desktop notifications.
type Notifier struct {
	logger     *logging.Logger
	enabled    bool
	showErrors bool
	mu         sync.RWMutex

	// send and alert are replaced in tests
	send  func(title, message string) error
	alert func(title, message string) error
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent.
	Enabled bool

	// ShowErrors shows notifications for failed router calls.
	ShowErrors bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:    true,
		ShowErrors: true,
	}
}

// ConfigFromSettings converts the [notifications] section of settings.ini.
func ConfigFromSettings(s config.NotificationSettings) *Config {
	return &Config{
		Enabled:    s.Enabled,
		ShowErrors: s.ShowErrors,
	}
}

// NewNotifier creates a new notifier with the given configuration.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Notifier{
		logger:     logger,
		enabled:    cfg.Enabled,
		showErrors: cfg.ShowErrors,
		send: func(title, message string) error {
			// Windows toast, macOS notification center, Linux D-Bus
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// Apply updates the notifier from reloaded settings.
func (n *Notifier) Apply(cfg *Config) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = cfg.Enabled
	n.showErrors = cfg.ShowErrors
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

func (n *Notifier) errorsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.showErrors
}

// Status shows the result of a WLAN operation, e.g. "WLAN ON ✅".
func (n *Notifier) Status(message string) {
	if !n.IsEnabled() {
		return
	}

	if err := n.send(StatusTitle, truncate(message, maxMessageLen)); err != nil {
		n.logger.Warn().Err(err).Str("message", message).Msg("Failed to send status notification")
	}
}

// Failure shows a failed WLAN operation, e.g. "Error enabling WLAN: ...".
// It is suppressed when show_errors is off.
func (n *Notifier) Failure(message string) {
	if !n.errorsEnabled() {
		return
	}

	if err := n.send(StatusTitle, truncate(message, maxMessageLen)); err != nil {
		n.logger.Warn().Err(err).Str("message", message).Msg("Failed to send error notification")
	}
}

// Alert sends an alert notification (error level).
// It is for local problems that need user action, such as the settings
// window failing to launch, and ignores show_errors.
func (n *Notifier) Alert(message string) {
	if !n.IsEnabled() {
		return
	}

	// Use beeep.Alert which shows a more prominent notification on some platforms
	if err := n.alert(alertTitle, truncate(message, maxMessageLen)); err != nil {
		// Fall back to regular notify
		if err := n.send(alertTitle, message); err != nil {
			n.logger.Error().Err(err).Str("message", message).Msg("Failed to send alert notification")
		}
	}
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
