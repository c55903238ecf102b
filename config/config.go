package config

// Narrative modes.
const (
	NarrativeModeAuto          = "auto"
	NarrativeModeDeterministic = "deterministic"
)

// Config holds application configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// DataSource is a CSV path or an s3://bucket/key URI.
	DataSource string `koanf:"data_source"`

	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`

	// JWTSecret enables bearer-token auth on /api/v1 when non-empty.
	JWTSecret string `koanf:"jwt_secret"`

	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	// NarrativeMode is "auto" (delegate when a key is configured) or "deterministic".
	NarrativeMode      string  `koanf:"narrative_mode"`
	NarrativeTimeoutMS int     `koanf:"narrative_timeout_ms"`
	NarrativeRPS       float64 `koanf:"narrative_rps"`
	NarrativeBurst     int     `koanf:"narrative_burst"`

	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3PathStyle bool   `koanf:"s3_path_style"`
}

// AppConfig holds the application-wide configuration
var AppConfig Config

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:               ":3000",
		DataSource:         "data/sales_data.csv",
		LogLevel:           "info",
		GeminiModel:        "gemini-2.5-flash-lite",
		NarrativeMode:      NarrativeModeAuto,
		NarrativeTimeoutMS: 8000,
		NarrativeRPS:       1,
		NarrativeBurst:     3,
		S3Region:           "us-east-1",
	}
}
