package wlan

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/events"
	"github.com/wlantray/fritz-wlan/internal/tr064"
	"github.com/wlantray/fritz-wlan/internal/tr064/tr064test"
)

type fixture struct {
	ctrl  *Controller
	fb    *tr064test.FakeBox
	bus   *events.EventBus
	store *config.Store
	dir   string
}

// newFixture wires a controller to a fake router through real config files.
func newFixture(t *testing.T, services ...int) *fixture {
	t.Helper()

	fb := tr064test.New("admin", "secret")
	t.Cleanup(fb.Close)

	dir := t.TempDir()
	store := config.NewStore(dir, nil)
	if err := store.Save(config.RouterConfig{IP: "127.0.0.1", Username: "admin", Password: "secret"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	writeSettings(t, dir, fb.Server.Listener.Addr().(*net.TCPAddr).Port, services)

	bus := events.NewEventBus(16)
	t.Cleanup(bus.Close)

	return &fixture{
		ctrl: NewController(Options{
			Store:        store,
			SettingsPath: config.SettingsPath(dir),
			Bus:          bus,
		}),
		fb:    fb,
		bus:   bus,
		store: store,
		dir:   dir,
	}
}

func writeSettings(t *testing.T, dir string, port int, services []int) {
	t.Helper()
	s := config.NewSettings()
	s.Router.Port = port
	s.Router.Retries = 0
	s.Router.TimeoutSeconds = 5
	if len(services) > 0 {
		s.Router.WLANServices = services
	}
	if err := config.SaveSettings(s, config.SettingsPath(dir)); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
}

func receive(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSwitchOff(t *testing.T) {
	f := newFixture(t)
	states := f.bus.Subscribe(events.EventWLANState)

	result, err := f.ctrl.SwitchOff(context.Background())
	if err != nil {
		t.Fatalf("SwitchOff failed: %v", err)
	}
	if result.Message != "WLAN OFF ❌" {
		t.Errorf("message = %q", result.Message)
	}
	if result.Enabled {
		t.Error("expected Enabled=false")
	}
	if f.fb.Band(1).Enabled {
		t.Error("router band 1 still enabled")
	}
	if f.fb.Calls(1, "SetEnable") != 1 || f.fb.Calls(1, "GetInfo") != 1 {
		t.Errorf("expected one SetEnable and one GetInfo, got %d/%d", f.fb.Calls(1, "SetEnable"), f.fb.Calls(1, "GetInfo"))
	}

	ev := receive(t, states).(*events.WLANStateEvent)
	if ev.Enabled || !ev.Changed || ev.Message != result.Message {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestSwitchOn(t *testing.T) {
	f := newFixture(t)
	f.fb.SetEnabled(1, false)

	result, err := f.ctrl.SwitchOn(context.Background())
	if err != nil {
		t.Fatalf("SwitchOn failed: %v", err)
	}
	if result.Message != "WLAN ON ✅" || !result.Enabled {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Bands) != 1 || result.Bands[0].SSID != "FRITZ!Box 7590 XY" {
		t.Errorf("unexpected bands: %+v", result.Bands)
	}
}

func TestSwitchOff_MultipleBands(t *testing.T) {
	f := newFixture(t, 1, 2)

	result, err := f.ctrl.SwitchOff(context.Background())
	if err != nil {
		t.Fatalf("SwitchOff failed: %v", err)
	}
	if len(result.Bands) != 2 {
		t.Fatalf("expected 2 bands, got %d", len(result.Bands))
	}
	if f.fb.Band(1).Enabled || f.fb.Band(2).Enabled {
		t.Error("both configured bands should be disabled")
	}
	if !f.fb.Band(3).Enabled {
		t.Error("guest band is not configured and must stay enabled")
	}
}

func TestSwitch_NotApplied(t *testing.T) {
	f := newFixture(t)
	f.fb.SetIgnoreSetEnable(true)

	result, err := f.ctrl.SwitchOff(context.Background())
	if !errors.Is(err, ErrNotApplied) {
		t.Fatalf("expected ErrNotApplied, got %v", err)
	}
	if result.Message != "WLAN could not be disabled." {
		t.Errorf("message = %q", result.Message)
	}
	if !result.Enabled {
		t.Error("read-back state should still be enabled")
	}

	f.fb.SetEnabled(1, false)
	result, _ = f.ctrl.SwitchOn(context.Background())
	if result.Message != "WLAN could not be enabled." {
		t.Errorf("message = %q", result.Message)
	}
}

func TestSwitch_WrongCredentials(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Save(config.RouterConfig{IP: "127.0.0.1", Username: "admin", Password: "wrong"}); err != nil {
		t.Fatal(err)
	}
	errs := f.bus.Subscribe(events.EventError)

	result, err := f.ctrl.SwitchOn(context.Background())
	if !errors.Is(err, tr064.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if result.Message != "Error enabling WLAN: tr064: unauthorized" {
		t.Errorf("message = %q", result.Message)
	}

	ev := receive(t, errs).(*events.ErrorEvent)
	if ev.Operation != OpSwitchOn || ev.Message != result.Message {
		t.Errorf("unexpected error event: %+v", ev)
	}
}

func TestSwitch_Fault(t *testing.T) {
	f := newFixture(t)
	f.fb.SetFault(tr064.FaultActionNotAuthorized)

	result, err := f.ctrl.SwitchOff(context.Background())
	var fault *tr064.FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("expected *FaultError, got %v", err)
	}
	if !strings.HasPrefix(result.Message, "Error disabling WLAN: UPnPError 606") {
		t.Errorf("message = %q", result.Message)
	}
}

func TestSwitch_RouterUnreachable(t *testing.T) {
	f := newFixture(t)
	f.fb.Close()

	result, err := f.ctrl.SwitchOff(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable router")
	}
	if !strings.HasPrefix(result.Message, "Error disabling WLAN: ") {
		t.Errorf("message = %q", result.Message)
	}
	if len(result.Bands) != 0 {
		t.Error("no bands expected after failure")
	}
}

// TestSwitch_ReloadsConfig verifies credentials saved between operations
// are used without recreating the controller.
func TestSwitch_ReloadsConfig(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Save(config.RouterConfig{IP: "127.0.0.1", Username: "admin", Password: "wrong"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.SwitchOff(context.Background()); err == nil {
		t.Fatal("expected failure with wrong password")
	}

	if err := f.store.Save(config.RouterConfig{IP: "127.0.0.1", Username: "admin", Password: "secret"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctrl.SwitchOff(context.Background()); err != nil {
		t.Fatalf("expected success after saving new password: %v", err)
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t, 1, 2)
	f.fb.SetEnabled(2, false)

	bands, err := f.ctrl.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(bands) != 2 {
		t.Fatalf("expected 2 bands, got %d", len(bands))
	}

	want := []BandInfo{
		{Index: 1, Enabled: true, Status: "Up", SSID: "FRITZ!Box 7590 XY", Channel: 6, Standard: "n"},
		{Index: 2, Enabled: false, Status: "Disabled", SSID: "FRITZ!Box 7590 XY", Channel: 36, Standard: "ac"},
	}
	for i := range want {
		if bands[i] != want[i] {
			t.Errorf("band %d = %+v, want %+v", i, bands[i], want[i])
		}
	}
	if f.fb.Calls(1, "SetEnable") != 0 {
		t.Error("Status must not change state")
	}
}

func TestToggle(t *testing.T) {
	f := newFixture(t)

	result, err := f.ctrl.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if result.Enabled || f.fb.Band(1).Enabled {
		t.Error("first toggle should disable WLAN")
	}

	result, err = f.ctrl.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !result.Enabled || result.Message != "WLAN ON ✅" {
		t.Errorf("second toggle should enable WLAN, got %+v", result)
	}
}

func TestController_InvalidSettingsFallBack(t *testing.T) {
	f := newFixture(t)
	// an out-of-range service index is dropped, leaving the default band 1
	s, err := config.LoadSettings(config.SettingsPath(f.dir))
	if err != nil {
		t.Fatal(err)
	}
	s.Router.WLANServices = []int{42}
	if err := config.SaveSettings(s, config.SettingsPath(f.dir)); err != nil {
		t.Fatal(err)
	}

	bands, err := f.ctrl.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(bands) != 1 || bands[0].Index != 1 {
		t.Errorf("expected fallback to band 1, got %+v", bands)
	}
}

func TestMessages(t *testing.T) {
	if SuccessMessage(true) != "WLAN ON ✅" || SuccessMessage(false) != "WLAN OFF ❌" {
		t.Error("unexpected success messages")
	}
	if NotAppliedMessage(true) != "WLAN could not be enabled." || NotAppliedMessage(false) != "WLAN could not be disabled." {
		t.Error("unexpected not-applied messages")
	}
}
