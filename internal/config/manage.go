package config

import (
	"fmt"
	"strings"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns every key with its current value. Secrets are masked.
func ShowAll(cfg Config) []KeyInfo {
	result := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		val := fmt.Sprintf("%v", s.extract(cfg))
		if s.secret {
			val = maskSecret(val)
		}
		result = append(result, KeyInfo{Key: s.key, EnvVar: s.env, Value: val})
	}
	return result
}

func maskSecret(v string) string {
	switch {
	case v == "":
		return "(unset)"
	case len(v) <= 8:
		return strings.Repeat("*", len(v))
	default:
		return v[:4] + strings.Repeat("*", 8)
	}
}

// SetKey writes a config key to the config file. Secrets go to the secrets
// file instead; the provider key may also be set this way.
func SetKey(key, value string) error {
	return setKey(newFileBackend(ConfigFilePath()), fileSecrets{path: defaultSecretsPath()}, key, value)
}

func setKey(b ConfigBackend, secrets fileSecrets, key, value string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			if key != "provider.api_key" {
				return fmt.Errorf("cannot store secret %q; use environment variable %s", key, s.env)
			}
			return secrets.Set(apiKeyAccount, value)
		}
		v, err := s.parse(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if i, ok := v.(int); ok {
			return b.SetInt(key, i)
		}
		return b.SetString(key, value)
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys returns the names of all keys accepted by SetKey.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret || s.key == "provider.api_key" {
			keys = append(keys, s.key)
		}
	}
	return keys
}
