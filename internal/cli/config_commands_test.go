package cli

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wlantray/fritz-wlan/internal/config"
	"github.com/wlantray/fritz-wlan/internal/tr064/tr064test"
)

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	AddCommands(root)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

// writeRouterSettings points settings.ini in dir at the fake router.
func writeRouterSettings(t *testing.T, dir string, fb *tr064test.FakeBox) {
	t.Helper()
	s := config.NewSettings()
	s.Router.Port = fb.Server.Listener.Addr().(*net.TCPAddr).Port
	s.Router.Retries = 0
	if err := config.SaveSettings(s, config.SettingsPath(dir)); err != nil {
		t.Fatal(err)
	}
}

// TestConfigCmd tests the config command group
func TestConfigCmd(t *testing.T) {
	cmd := newConfigCmd()
	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	expectedSubs := []string{"init", "show", "set", "test", "path"}
	subcommands := cmd.Commands()
	if len(subcommands) != len(expectedSubs) {
		t.Errorf("Expected %d subcommands, got %d", len(expectedSubs), len(subcommands))
	}

	foundSubs := make(map[string]bool)
	for _, sub := range subcommands {
		foundSubs[sub.Name()] = true
		if sub.Short == "" {
			t.Errorf("Subcommand '%s' has no short description", sub.Name())
		}
	}
	for _, expected := range expectedSubs {
		if !foundSubs[expected] {
			t.Errorf("Subcommand '%s' not found", expected)
		}
	}

	if newConfigInitCmd().Flags().Lookup("force") == nil {
		t.Error("--force flag not found")
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "10.0.0.1\nadmin\ns3cret\n", "--config-dir", dir, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Configuration saved") {
		t.Errorf("unexpected output:\n%s", out)
	}

	cfg, err := config.NewStore(dir, nil).LoadStrict()
	if err != nil {
		t.Fatalf("LoadStrict failed: %v", err)
	}
	want := config.RouterConfig{IP: "10.0.0.1", Username: "admin", Password: "s3cret"}
	if cfg != want {
		t.Errorf("saved config = %+v, want %+v", cfg, want)
	}

	if _, err := os.Stat(config.SettingsPath(dir)); err != nil {
		t.Errorf("default settings.ini not written: %v", err)
	}
}

func TestConfigInit_KeepsExistingSettings(t *testing.T) {
	dir := t.TempDir()
	s := config.NewSettings()
	s.Router.Port = 12345
	if err := config.SaveSettings(s, config.SettingsPath(dir)); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "10.0.0.1\nadmin\ns3cret\n", "--config-dir", dir, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if strings.Contains(out, "Default settings written") {
		t.Errorf("existing settings.ini should be left alone:\n%s", out)
	}

	loaded, err := config.LoadSettings(config.SettingsPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Router.Port != 12345 {
		t.Errorf("port = %d, want 12345", loaded.Router.Port)
	}
}

func TestConfigInit_EndOfInputKeepsDefaults(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, "", "--config-dir", dir, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	cfg, err := config.NewStore(dir, nil).LoadStrict()
	if err != nil {
		t.Fatalf("LoadStrict failed: %v", err)
	}
	if cfg != config.DefaultRouterConfig() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestConfigInit_UnreadableConfigAsksFirst(t *testing.T) {
	dir := t.TempDir()
	store := config.NewStore(dir, nil)
	if err := os.WriteFile(store.ConfigPath(), []byte("not a token"), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "n\n", "--config-dir", dir, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Aborted") {
		t.Errorf("expected confirmation and abort, got:\n%s", out)
	}
	data, err := os.ReadFile(store.ConfigPath())
	if err != nil || string(data) != "not a token" {
		t.Errorf("config file was overwritten: %q, %v", data, err)
	}
}

func TestConfigInit_ExistingConfig(t *testing.T) {
	dir := t.TempDir()
	store := config.NewStore(dir, nil)
	orig := config.RouterConfig{IP: "10.0.0.1", Username: "admin", Password: "s3cret"}
	if err := store.Save(orig); err != nil {
		t.Fatal(err)
	}

	t.Run("declined", func(t *testing.T) {
		out, err := runCLI(t, "n\n", "--config-dir", dir, "config", "init")
		if err != nil {
			t.Fatalf("config init failed: %v", err)
		}
		if !strings.Contains(out, "Aborted") {
			t.Errorf("expected abort, got:\n%s", out)
		}
	})

	t.Run("force keeps current on empty answers", func(t *testing.T) {
		if _, err := runCLI(t, "\n\n\n", "--config-dir", dir, "config", "init", "--force"); err != nil {
			t.Fatalf("config init failed: %v", err)
		}
		if cfg := store.Load(); cfg != orig {
			t.Errorf("config = %+v, want unchanged %+v", cfg, orig)
		}
	})
}

func TestConfigSet(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, "", "--config-dir", dir, "config", "set"); err == nil {
		t.Error("config set without flags should fail")
	}

	if _, err := runCLI(t, "", "--config-dir", dir, "config", "set", "--ip", "fritz.box", "--password", "pw"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	cfg := config.NewStore(dir, nil).Load()
	if cfg.IP != "fritz.box" || cfg.Password != "pw" || cfg.Username != config.DefaultRouterConfig().Username {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := runCLI(t, "", "--config-dir", dir, "config", "set", "--ip", ""); err == nil {
		t.Error("empty address should be rejected")
	}
}

func TestConfigShow_MasksPassword(t *testing.T) {
	dir := t.TempDir()
	if err := config.NewStore(dir, nil).Save(config.RouterConfig{IP: "10.0.0.1", Username: "admin", Password: "hunter2"}); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "--config-dir", dir, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("password must not be displayed")
	}
	for _, want := range []string{"10.0.0.1", "admin", "********", "port 49000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShow_ReportsInvalidSettings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(config.SettingsPath(dir), []byte("[router]\nretries = 99\n"), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "--config-dir", dir, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, config.ErrInvalidRetries.Error()) {
		t.Errorf("output missing settings problem:\n%s", out)
	}
	if !strings.Contains(out, "Retries:          2") {
		t.Errorf("expected default retries to be shown:\n%s", out)
	}
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "", "--config-dir", dir, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	for _, name := range []string{"config.json", "config.key", "settings.ini", "fritz-wlan.log"} {
		if !strings.Contains(out, name) {
			t.Errorf("output missing %s:\n%s", name, out)
		}
	}
	if !strings.Contains(out, filepath.Join(dir, "config.json")) {
		t.Errorf("config path not under --config-dir:\n%s", out)
	}
}

func TestConfigTest(t *testing.T) {
	fb := tr064test.New("admin", "secret")
	defer fb.Close()

	dir := t.TempDir()
	writeRouterSettings(t, dir, fb)
	store := config.NewStore(dir, nil)

	if err := store.Save(config.RouterConfig{IP: "127.0.0.1", Username: "admin", Password: "secret"}); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "", "--config-dir", dir, "config", "test")
	if err != nil {
		t.Fatalf("config test failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "SUCCESSFUL") || !strings.Contains(out, "FRITZ!Box 7590 XY") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if err := store.Save(config.RouterConfig{IP: "127.0.0.1", Username: "admin", Password: "wrong"}); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, "", "--config-dir", dir, "config", "test")
	if err == nil {
		t.Fatal("expected failure with wrong password")
	}
	if !strings.Contains(out, "FAILED") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
