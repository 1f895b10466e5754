package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wlantray/fritz-wlan/internal/constants"
	"github.com/wlantray/fritz-wlan/internal/crypto" // package name is 'encryption'
	"github.com/wlantray/fritz-wlan/internal/logging"
)

var (
	// ErrEmptyAddress is returned when saving a config without a router address.
	ErrEmptyAddress = errors.New("router address is required")

	// ErrInvalidRecord is returned when the decrypted config is not an object
	// holding ip, username and password.
	ErrInvalidRecord = errors.New("config is not a valid router record")
)

// RouterConfig holds the router address and credentials. It is persisted as
// encrypted JSON with the keys ip, username and password.
type RouterConfig struct {
	IP       string `json:"ip"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// DefaultRouterConfig returns the record used when no valid config exists.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		IP:       constants.DefaultRouterIP,
		Username: constants.DefaultRouterUsername,
		Password: constants.DefaultRouterPassword,
	}
}

// Validate checks the fields required to reach the router.
func (c RouterConfig) Validate() error {
	if strings.TrimSpace(c.IP) == "" {
		return ErrEmptyAddress
	}
	return nil
}

// MaskedPassword returns the password replaced by asterisks, for display.
func (c RouterConfig) MaskedPassword() string {
	if c.Password == "" {
		return "(not set)"
	}
	return strings.Repeat("*", 8)
}

// Store reads and writes the encrypted router config and its key file.
type Store struct {
	configPath string
	keyPath    string
	logger     *logging.Logger
}

// NewStore creates a store for config.json / config.key inside dir.
func NewStore(dir string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		configPath: filepath.Join(dir, constants.ConfigFileName),
		keyPath:    filepath.Join(dir, constants.KeyFileName),
		logger:     logger,
	}
}

// ConfigPath returns the encrypted config file path.
func (s *Store) ConfigPath() string {
	return s.configPath
}

// KeyPath returns the key file path.
func (s *Store) KeyPath() string {
	return s.keyPath
}

// Paths returns the config and key file locations.
func (s *Store) Paths() (configPath, keyPath string) {
	return s.configPath, s.keyPath
}

// Exists reports whether a config file has been saved.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.configPath)
	return err == nil
}

// Load returns the saved config, or the default record when the file is
// missing, unreadable, cannot be decrypted or does not hold valid JSON.
// Failures are logged, never returned.
func (s *Store) Load() RouterConfig {
	cfg, err := s.LoadStrict()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.configPath).Msg("Error loading configuration, using defaults")
		}
		return DefaultRouterConfig()
	}
	return cfg
}

// LoadStrict is like Load but returns the error instead of substituting
// defaults. A missing config file yields an error wrapping fs.ErrNotExist.
func (s *Store) LoadStrict() (RouterConfig, error) {
	encrypted, err := os.ReadFile(s.configPath)
	if err != nil {
		return RouterConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	key, _, err := s.key()
	if err != nil {
		return RouterConfig{}, err
	}

	plaintext, err := encryption.Decrypt(key, encrypted)
	if err != nil {
		return RouterConfig{}, fmt.Errorf("failed to decrypt config: %w", err)
	}

	return parseRecord(plaintext)
}

// parseRecord decodes a decrypted config. All three keys must be present and
// the address must not be empty.
func parseRecord(data []byte) (RouterConfig, error) {
	var raw struct {
		IP       *string `json:"ip"`
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return RouterConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if raw.IP == nil || raw.Username == nil || raw.Password == nil {
		return RouterConfig{}, ErrInvalidRecord
	}

	cfg := RouterConfig{IP: *raw.IP, Username: *raw.Username, Password: *raw.Password}
	if err := cfg.Validate(); err != nil {
		return RouterConfig{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return cfg, nil
}

// Save encrypts cfg and replaces the config file. The key file is created on
// first use.
func (s *Store) Save(cfg RouterConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	key, created, err := s.key()
	if err != nil {
		return err
	}
	if created {
		s.logger.Info().Str("path", s.keyPath).Msg("Generated new encryption key")
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encrypted, err := encryption.Encrypt(key, data)
	if err != nil {
		return fmt.Errorf("failed to encrypt config: %w", err)
	}

	if err := writeFileAtomic(s.configPath, encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	s.logger.Info().
		Str("path", s.configPath).
		Str("ip", cfg.IP).
		Str("username", cfg.Username).
		Msg("Configuration saved")
	return nil
}

func (s *Store) key() (*encryption.Key, bool, error) {
	key, created, err := encryption.LoadOrCreateKey(s.keyPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load encryption key: %w", err)
	}
	return key, created, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
