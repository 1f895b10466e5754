package tray

import (
	"fmt"

	"github.com/wlantray/fritz-wlan/internal/constants"
	"github.com/wlantray/fritz-wlan/internal/events"
)

// State is what the tray shows: icon color, status line and tooltip.
type State struct {
	Indicator Indicator
	SSID      string
	LastError string
}

// Apply returns the state after an event.
func (s State) Apply(ev events.Event) State {
	switch e := ev.(type) {
	case *events.WLANStateEvent:
		s.Indicator = IndicatorOff
		if e.Enabled {
			s.Indicator = IndicatorOn
		}
		s.SSID = e.SSID
		s.LastError = ""
	case *events.ErrorEvent:
		s.Indicator = IndicatorUnknown
		s.LastError = e.Message
	case *events.ConfigChangedEvent:
		// new router or credentials: previous state no longer applies
		s = State{}
	}
	return s
}

// StatusTitle is the text of the disabled first menu item.
func (s State) StatusTitle() string {
	switch {
	case s.LastError != "":
		return "Status: error"
	case s.Indicator == IndicatorOn && s.SSID != "":
		return fmt.Sprintf("WLAN is on (%s)", s.SSID)
	case s.Indicator == IndicatorOn:
		return "WLAN is on"
	case s.Indicator == IndicatorOff:
		return "WLAN is off"
	default:
		return "Status: checking..."
	}
}

// Tooltip is shown when hovering over the tray icon.
func (s State) Tooltip() string {
	if s.LastError != "" {
		return fmt.Sprintf("%s\n%s", constants.TrayTooltip, truncate(s.LastError, 80))
	}
	if s.Indicator == IndicatorUnknown {
		return constants.TrayTooltip
	}
	return fmt.Sprintf("%s\n%s", constants.TrayTooltip, s.StatusTitle())
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
