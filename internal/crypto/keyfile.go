package encryption

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadOrCreateKey reads the key stored at path. If the file does not exist a
// new key is generated and written with owner-only permissions.
//
// created reports whether a new key file was written. An existing but
// unparsable key file is an error: replacing it would make any config
// encrypted with the old key unreadable for good.
func LoadOrCreateKey(path string) (key *Key, created bool, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key, err = ParseKey(string(data))
		if err != nil {
			return nil, false, fmt.Errorf("key file %s: %w", path, err)
		}
		return key, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err = GenerateKey()
	if err != nil {
		return nil, false, err
	}
	if err := WriteKey(path, key); err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// WriteKey writes key to path, creating the parent directory (0700).
// The file is created exclusively so a concurrently created key is never
// overwritten.
func WriteKey(path string, key *Key) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := f.WriteString(key.Encode()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close key file: %w", err)
	}
	return nil
}
