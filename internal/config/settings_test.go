package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestNewSettings(t *testing.T) {
	s := NewSettings()

	if s.Router.Port != 49000 {
		t.Errorf("expected default port 49000, got %d", s.Router.Port)
	}
	if s.Router.TLSPort != 49443 {
		t.Errorf("expected default TLS port 49443, got %d", s.Router.TLSPort)
	}
	if !reflect.DeepEqual(s.Router.WLANServices, []int{1}) {
		t.Errorf("expected default services [1], got %v", s.Router.WLANServices)
	}
	if s.Router.Timeout() != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", s.Router.Timeout())
	}
	if s.Tray.RefreshInterval() != time.Minute {
		t.Errorf("expected default refresh interval 1m, got %v", s.Tray.RefreshInterval())
	}
	if !s.Notifications.Enabled {
		t.Error("expected notifications to default to enabled")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "settings.ini"))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !reflect.DeepEqual(s, NewSettings()) {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestSaveAndLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.ini")

	s := NewSettings()
	s.Router.UseTLS = true
	s.Router.WLANServices = []int{1, 2}
	s.Router.TimeoutSeconds = 20
	s.Router.Retries = 0
	s.Tray.RefreshIntervalSeconds = 0
	s.Notifications.ShowErrors = false
	s.Logging.Level = "debug"

	if err := SaveSettings(s, path); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, s) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, s)
	}
}

func TestLoadSettings_HandEdited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	content := `[router]
wlan_services = 1, 3
use_tls = yes

[logging]
level = warn
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !reflect.DeepEqual(s.Router.WLANServices, []int{1, 3}) {
		t.Errorf("expected services [1 3], got %v", s.Router.WLANServices)
	}
	if !s.Router.UseTLS {
		t.Error("expected use_tls = yes to parse as true")
	}
	if s.Router.Port != 49000 {
		t.Errorf("missing keys should keep defaults, got port %d", s.Router.Port)
	}
	if s.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %s", s.Logging.Level)
	}
}

func TestLoadSettings_InvalidServiceList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	if err := os.WriteFile(path, []byte("[router]\nwlan_services = one\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Error("expected error for non-numeric service index")
	}
}

func TestSettings_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(s *Settings)
		want   error
	}{
		{"port zero", func(s *Settings) { s.Router.Port = 0 }, ErrInvalidPort},
		{"tls port too large", func(s *Settings) { s.Router.TLSPort = 70000 }, ErrInvalidPort},
		{"no services", func(s *Settings) { s.Router.WLANServices = nil }, ErrNoWLANServices},
		{"service out of range", func(s *Settings) { s.Router.WLANServices = []int{1, 12} }, ErrInvalidWLANService},
		{"timeout zero", func(s *Settings) { s.Router.TimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"negative retries", func(s *Settings) { s.Router.Retries = -1 }, ErrInvalidRetries},
		{"refresh too long", func(s *Settings) { s.Tray.RefreshIntervalSeconds = 7200 }, ErrInvalidRefreshInterval},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSettings()
			tc.mutate(s)
			if err := s.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSettings_Normalize(t *testing.T) {
	s := NewSettings()
	s.Router.Port = -5
	s.Router.WLANServices = []int{0, 2, 42}
	s.Router.Retries = 99

	problems := s.Normalize()
	if len(problems) != 3 {
		t.Errorf("expected 3 corrected problems, got %d: %v", len(problems), problems)
	}
	if s.Router.Port != 49000 {
		t.Errorf("port not reset, got %d", s.Router.Port)
	}
	if !reflect.DeepEqual(s.Router.WLANServices, []int{2}) {
		t.Errorf("expected only valid service 2 kept, got %v", s.Router.WLANServices)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("normalized settings should validate: %v", err)
	}
}
