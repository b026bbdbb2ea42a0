package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/rbin/internal/core"
	"github.com/newthinker/rbin/internal/logger"
	"github.com/newthinker/rbin/internal/pasteid"
	"github.com/spf13/viper"
)

// Storage backend types
const (
	StorageLocalFS = "localfs"
	StorageS3      = "s3"
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Paste   PasteConfig   `mapstructure:"paste"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
	FormField    string `mapstructure:"form_field"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// PasteConfig holds identifier allocation settings.
type PasteConfig struct {
	IDLength    int `mapstructure:"id_length"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// LogConfig holds logger settings. RequestLevel is the level at which
// per-request access lines are written.
type LogConfig struct {
	Level        string `mapstructure:"level"`
	RequestLevel string `mapstructure:"request_level"`
	Development  bool   `mapstructure:"development"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EnvVar describes one environment override.
type EnvVar struct {
	Key  string // viper key
	Name string // environment variable
}

// EnvVars lists every supported environment override, in display order.
var EnvVars = []EnvVar{
	{"server.host", "RBIN_HOST"},
	{"server.port", "RBIN_PORT"},
	{"server.max_body_bytes", "RBIN_MAX_BODY_BYTES"},
	{"server.form_field", "RBIN_FORM_FIELD"},
	{"storage.type", "RBIN_STORAGE_TYPE"},
	{"storage.path", "RBIN_PASTE_DIR"},
	{"storage.s3.bucket", "RBIN_S3_BUCKET"},
	{"storage.s3.endpoint", "RBIN_S3_ENDPOINT"},
	{"storage.s3.region", "RBIN_S3_REGION"},
	{"storage.s3.access_key", "RBIN_S3_ACCESS_KEY"},
	{"storage.s3.secret_key", "RBIN_S3_SECRET_KEY"},
	{"storage.s3.prefix", "RBIN_S3_PREFIX"},
	{"paste.id_length", "RBIN_ID_LENGTH"},
	{"paste.max_attempts", "RBIN_MAX_ATTEMPTS"},
	{"log.level", "RBIN_LOG_LEVEL"},
	{"log.request_level", "RBIN_REQUEST_LOG_LEVEL"},
	{"log.development", "RBIN_LOG_DEVELOPMENT"},
	{"metrics.enabled", "RBIN_METRICS_ENABLED"},
	{"metrics.path", "RBIN_METRICS_PATH"},
}

// Load builds the configuration from defaults, an optional YAML file at
// path, a .env file in dotEnvDir and the process environment, in increasing
// order of precedence. Empty path or dotEnvDir skip the respective source.
func Load(path, dotEnvDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	for _, e := range EnvVars {
		if err := v.BindEnv(e.Key, e.Name); err != nil {
			return nil, fmt.Errorf("binding %s: %w", e.Name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if dotEnvDir != "" {
		if err := mergeDotEnv(v, dotEnvDir); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// mergeDotEnv applies KEY=value pairs from a .env file for variables that
// are not already set in the process environment.
func mergeDotEnv(v *viper.Viper, dir string) error {
	path := filepath.Join(dir, DotEnvFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}

	dv := viper.New()
	dv.SetConfigFile(path)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	for _, e := range EnvVars {
		if _, set := os.LookupEnv(e.Name); set {
			continue
		}
		// viper lower-cases keys read from files
		if val := dv.GetString(strings.ToLower(e.Name)); val != "" {
			v.Set(e.Key, val)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.form_field", d.Server.FormField)
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.s3.bucket", d.Storage.S3.Bucket)
	v.SetDefault("storage.s3.endpoint", d.Storage.S3.Endpoint)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.access_key", d.Storage.S3.AccessKey)
	v.SetDefault("storage.s3.secret_key", d.Storage.S3.SecretKey)
	v.SetDefault("storage.s3.prefix", d.Storage.S3.Prefix)
	v.SetDefault("paste.id_length", d.Paste.IDLength)
	v.SetDefault("paste.max_attempts", d.Paste.MaxAttempts)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.request_level", d.Log.RequestLevel)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			MaxBodyBytes: 10 << 20,
			FormField:    "rbin",
		},
		Storage: StorageConfig{
			Type: StorageLocalFS,
			Path: "pastes",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Paste: PasteConfig{
			IDLength:    pasteid.DefaultLength,
			MaxAttempts: 10,
		},
		Log: LogConfig{
			Level:        "info",
			RequestLevel: "debug",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Server.FormField == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("form_field cannot be empty"))
	}

	// Storage validation
	switch c.Storage.Type {
	case StorageLocalFS:
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("storage path required for localfs"))
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("s3 bucket required when storage type is s3"))
		}
		if c.Storage.S3.Region == "" {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("s3 region required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	// Paste validation
	if c.Paste.IDLength < pasteid.MinLength || c.Paste.IDLength > pasteid.MaxLength {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("id_length must be between %d and %d, got %d", pasteid.MinLength, pasteid.MaxLength, c.Paste.IDLength))
	}
	if c.Paste.MaxAttempts < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_attempts must be at least 1, got %d", c.Paste.MaxAttempts))
	}

	// Log validation
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	if _, err := logger.ParseLevel(c.Log.RequestLevel); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if c.Metrics.Enabled && (!strings.HasPrefix(c.Metrics.Path, "/") || c.Metrics.Path == "/") {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics path must start with / and not be the root, got %q", c.Metrics.Path))
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "/healthz" || strings.ContainsAny(c.Metrics.Path, "{} \t")) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics path %q is reserved or not a literal path", c.Metrics.Path))
	}

	return nil
}

// DefaultValue returns the default of a config key as display text.
func DefaultValue(key string) string {
	v := viper.New()
	setDefaults(v, Defaults())
	return v.GetString(key)
}
