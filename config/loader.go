package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. SALESINTEL_ADDR.
const EnvPrefix = "SALESINTEL_"

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. YAML file named by SALESINTEL_CONFIG, if set
//  3. environment variables prefixed SALESINTEL_
//
// A .env file in the working directory is read first so its values reach
// the environment layer. The result is also stored in AppConfig.
func Load() (*Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DataSource == "" {
		return fmt.Errorf("%w: data_source must not be empty", ErrInvalidConfig)
	}
	switch c.NarrativeMode {
	case NarrativeModeAuto, NarrativeModeDeterministic:
	default:
		return fmt.Errorf("%w: unknown narrative_mode %q", ErrInvalidConfig, c.NarrativeMode)
	}
	return nil
}

// DelegationEnabled reports whether narratives should be sent to the external service.
func (c *Config) DelegationEnabled() bool {
	return c.NarrativeMode == NarrativeModeAuto && c.GeminiAPIKey != ""
}
