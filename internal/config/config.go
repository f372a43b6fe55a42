package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Phone     PhoneConfig
	Storage   StorageConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port       int `validate:"min=1,max=65535"`
	AdminToken string
}

type ProviderConfig struct {
	BaseURL           string        `validate:"required,url"`
	APIKey            string        `validate:"required"`
	AttemptTimeout    time.Duration `validate:"gt=0"`
	OperationDeadline time.Duration `validate:"gtefield=AttemptTimeout"`
}

type PhoneConfig struct {
	DefaultCountryCode string `validate:"required,numeric,max=4"`
}

type StorageConfig struct {
	DataDir string `validate:"required"`
}

type LogConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	File       string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
}

type TelemetryConfig struct {
	OTLPEndpoint string
}

const apiKeyAccount = "omnidim_api_key"

// ErrMissingAPIKey is returned by Load when no provider key is configured.
var ErrMissingAPIKey = errors.New("missing required config: provider API key. " +
	"Set it via environment variable OMNIDIM_API_KEY or in a .env file")

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Provider: ProviderConfig{
			BaseURL:           "https://backend.omnidim.io/api/v1",
			AttemptTimeout:    10 * time.Second,
			OperationDeadline: 90 * time.Second,
		},
		Phone: PhoneConfig{
			DefaultCountryCode: "91",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DotEnvFiles are loaded, if present, before the environment is read. Values
// already set in the process environment win.
var DotEnvFiles = []string{".env.local", ".env"}

// Load builds the configuration from defaults, the JSON config file at
// $XDG_CONFIG_HOME/interviewace/config.json, .env files, environment
// variables, and finally the secrets file for the provider key.
//
// A missing provider API key is an error: there is no built-in key.
func Load() (Config, error) {
	loadDotEnv(DotEnvFiles...)
	return loadWith(newFileBackend(ConfigFilePath()), fileSecrets{path: defaultSecretsPath()})
}

func loadDotEnv(files ...string) {
	for _, f := range files {
		// godotenv.Load never overrides variables that are already set, so
		// earlier files take precedence over later ones.
		_ = godotenv.Load(f)
	}
}

func loadWith(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Provider.APIKey == "" && secrets != nil {
		if key, err := secrets.Get(apiKeyAccount); err == nil && key != "" {
			cfg.Provider.APIKey = key
		}
	}
	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		return Config{}, ErrMissingAPIKey
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() func(Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return func(cfg Config) error {
		err := v.Struct(cfg)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s (%v) fails %q", fe.Namespace(), fe.Value(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
}
