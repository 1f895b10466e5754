package constants

import (
	"time"
)

// Application identity
const (
	// AppName is used for the config directory, log file and notification titles.
	AppName = "fritz-wlan"

	// AppID is the fyne application ID used by the settings window.
	AppID = "io.github.wlantray.fritz-wlan"

	// TrayTooltip is shown when hovering over the tray icon.
	TrayTooltip = "FritzBox WLAN Control"
)

// Configuration files
const (
	// ConfigFileName holds the encrypted router credentials.
	ConfigFileName = "config.json"

	// KeyFileName holds the symmetric key for ConfigFileName.
	KeyFileName = "config.key"

	// SettingsFileName holds non-secret preferences (INI).
	SettingsFileName = "settings.ini"

	// LogFileName is written by tray and settings modes.
	LogFileName = "fritz-wlan.log"

	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "FRITZ_WLAN_CONFIG_DIR"

	// DebugEnv enables debug logging in tray and settings modes.
	DebugEnv = "FRITZ_WLAN_DEBUG"
)

// Router defaults, used when no configuration has been saved yet
const (
	DefaultRouterIP       = "192.168.178.1"
	DefaultRouterUsername = "test"
	DefaultRouterPassword = "test"
)

// TR-064 endpoints
const (
	// TR064Port is the plain HTTP port of the TR-064 interface.
	TR064Port = 49000

	// TR064TLSPort is the HTTPS port of the TR-064 interface.
	TR064TLSPort = 49443

	// TR064DescriptionPath is the root device description document.
	TR064DescriptionPath = "/tr64desc.xml"

	// WLANServiceName is the short service name for the first WLAN radio.
	// Additional radios are WLANConfiguration:2, :3 ...
	WLANServiceName = "WLANConfiguration"
)

// HTTP client settings
const (
	// RouterTimeout bounds a single TR-064 request including digest round-trip.
	RouterTimeout = 10 * time.Second

	// RouterRetries is the default number of transport-level retries.
	RouterRetries = 2

	// RouterRetryWaitMin / RouterRetryWaitMax bound retryablehttp backoff.
	RouterRetryWaitMin = 250 * time.Millisecond
	RouterRetryWaitMax = 2 * time.Second

	// HTTPDialTimeout - timeout for establishing connection to the router
	HTTPDialTimeout = 5 * time.Second

	// HTTPIdleConnTimeout - how long to keep idle connections open
	HTTPIdleConnTimeout = 30 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake
	HTTPTLSHandshakeTimeout = 5 * time.Second
)

// Tray settings
const (
	// TrayRefreshInterval is the default status polling interval.
	TrayRefreshInterval = 60 * time.Second

	// MaxTrayRefreshInterval caps the configurable polling interval (1 hour).
	MaxTrayRefreshInterval = time.Hour

	// TrayActionTimeout bounds a menu-triggered router call.
	TrayActionTimeout = 30 * time.Second
)

// Event bus buffer sizing
const (
	// EventBusDefaultBuffer - default buffer size for event bus channels
	EventBusDefaultBuffer = 64

	// EventBusMaxBuffer - maximum buffer size for event bus channels
	EventBusMaxBuffer = 1024
)
