package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// secretStore holds secrets outside the plain config file.
type secretStore interface {
	Get(account string) (string, error)
}

// fileSecrets reads secrets.json in the data directory: a flat object of
// account name to value, readable only by the owner.
type fileSecrets struct {
	path string
}

func defaultSecretsPath() string {
	return filepath.Join(defaultDataDir(), "secrets.json")
}

func (f fileSecrets) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var secrets map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	return secrets, nil
}

func (f fileSecrets) Get(account string) (string, error) {
	secrets, err := f.load()
	if err != nil {
		return "", err
	}
	val, ok := secrets[account]
	if !ok {
		return "", fmt.Errorf("secret %q not found", account)
	}
	return strings.TrimSpace(val), nil
}

// Set stores value under account, creating the file if needed.
func (f fileSecrets) Set(account, value string) error {
	secrets, err := f.load()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if secrets == nil {
		secrets = make(map[string]string)
	}
	secrets[account] = value

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, out, 0o600)
}
