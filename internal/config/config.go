package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/foodit-dev/foodit/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "foodit.json"

	// YAMLConfigFileName is the YAML alternative, used when no JSON file exists.
	YAMLConfigFileName = "foodit.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FOODIT_"

	// DefaultLivePort is the default port of the live view-model server.
	DefaultLivePort = 8080

	// DefaultBackendPort is the default port of the reference API.
	DefaultBackendPort = 8081

	// DefaultHost is the default bind host.
	DefaultHost = "localhost"
)

// Config represents the complete foodit.json configuration.
type Config struct {
	// Name is the deployment name, used in logs.
	Name string `json:"name,omitempty" yaml:"name,omitempty" env:"NAME"`

	// API configures the client side of the REST API.
	API APIConfig `json:"api" yaml:"api" envPrefix:"API_"`

	// Live configures the websocket view-model server.
	Live LiveConfig `json:"live" yaml:"live" envPrefix:"LIVE_"`

	// Backend configures the reference REST API.
	Backend BackendConfig `json:"backend" yaml:"backend" envPrefix:"BACKEND_"`

	// Images configures profile picture storage.
	Images ImagesConfig `json:"images" yaml:"images" envPrefix:"IMAGES_"`

	// Log configures structured logging.
	Log LogConfig `json:"log" yaml:"log" envPrefix:"LOG_"`

	// Telemetry configures trace export.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry" envPrefix:"TELEMETRY_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// APIConfig contains REST client settings.
type APIConfig struct {
	// BaseURL is the backend root, e.g. "http://localhost:8081".
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" env:"BASE_URL"`

	// Timeout bounds one request (e.g., "10s").
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" env:"TIMEOUT"`

	// Retries is how many times a failed read is retried.
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty" env:"RETRIES"`
}

// LiveConfig contains live server settings.
type LiveConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty" env:"HOST"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty" env:"PORT"`

	// ResumeWindow is how long a disconnected session is kept (e.g., "30s").
	ResumeWindow string `json:"resumeWindow,omitempty" yaml:"resumeWindow,omitempty" env:"RESUME_WINDOW"`

	// QueueSize is the per-screen event queue capacity.
	QueueSize int `json:"queueSize,omitempty" yaml:"queueSize,omitempty" env:"QUEUE_SIZE"`

	// AllowedOrigins lists websocket origins; empty allows same-host only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// BackendConfig contains reference API settings.
type BackendConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty" env:"HOST"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty" env:"PORT"`

	// Database is the sqlite file path.
	Database string `json:"database,omitempty" yaml:"database,omitempty" env:"DATABASE"`

	// JWTSecret signs session tokens. Prefer the environment over the file.
	JWTSecret string `json:"jwtSecret,omitempty" yaml:"jwtSecret,omitempty" env:"JWT_SECRET"`

	// TokenTTL is the lifetime of a session token (e.g., "24h").
	TokenTTL string `json:"tokenTtl,omitempty" yaml:"tokenTtl,omitempty" env:"TOKEN_TTL"`

	// Seed loads the sample restaurants into an empty database.
	Seed *bool `json:"seed,omitempty" yaml:"seed,omitempty" env:"SEED"`
}

// ImagesConfig contains profile picture storage settings.
type ImagesConfig struct {
	// Driver is "memory", "disk" or "s3".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty" env:"DRIVER"`

	// Dir is the directory used by the disk driver.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" env:"DIR"`

	// PublicURL is the URL prefix pictures are served from by the memory
	// and disk drivers.
	PublicURL string `json:"publicUrl,omitempty" yaml:"publicUrl,omitempty" env:"PUBLIC_URL"`

	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty" env:"BUCKET"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty" env:"PREFIX"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty" env:"REGION"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ENDPOINT"`
	AccessKey string `json:"-" yaml:"-" env:"ACCESS_KEY"`
	SecretKey string `json:"-" yaml:"-" env:"SECRET_KEY"`

	// URLExpiry is the lifetime of presigned S3 URLs (e.g., "168h").
	URLExpiry string `json:"urlExpiry,omitempty" yaml:"urlExpiry,omitempty" env:"URL_EXPIRY"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty" env:"FORMAT"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint. Empty disables export.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"ENDPOINT"`

	// ServiceName is reported as service.name.
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty" env:"SERVICE_NAME"`

	// Insecure disables TLS to the collector.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty" env:"INSECURE"`
}

// New creates a new Config with default values.
func New() *Config {
	seed := true
	return &Config{
		Name: "foodit",
		API: APIConfig{
			BaseURL: "http://localhost:8081",
			Timeout: "10s",
			Retries: 1,
		},
		Live: LiveConfig{
			Host:         DefaultHost,
			Port:         DefaultLivePort,
			ResumeWindow: "30s",
			QueueSize:    64,
		},
		Backend: BackendConfig{
			Host:     DefaultHost,
			Port:     DefaultBackendPort,
			Database: "foodit.db",
			TokenTTL: "24h",
			Seed:     &seed,
		},
		Images: ImagesConfig{
			Driver:    "memory",
			Dir:       "data/images",
			Prefix:    "profiles/",
			Region:    "us-east-1",
			URLExpiry: "168h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "foodit",
		},
	}
}

// Load reads configuration from dir. It looks for foodit.json, then
// foodit.yaml; when neither exists the defaults are used. Environment
// overrides are applied last.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	cfg := New()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No configuration file at " + path).
				WithSuggestion("Run 'foodit init' to write a default foodit.json")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration as JSON to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// ParseEnv loads FOODIT_* environment variables into target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if err := ParseEnv(c); err != nil {
		return errors.New("E103").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Name == "" {
		c.Name = d.Name
	}

	// API
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = d.API.Timeout
	}

	// Live
	if c.Live.Host == "" {
		c.Live.Host = d.Live.Host
	}
	if c.Live.Port == 0 {
		c.Live.Port = d.Live.Port
	}
	if c.Live.ResumeWindow == "" {
		c.Live.ResumeWindow = d.Live.ResumeWindow
	}
	if c.Live.QueueSize == 0 {
		c.Live.QueueSize = d.Live.QueueSize
	}

	// Backend
	if c.Backend.Host == "" {
		c.Backend.Host = d.Backend.Host
	}
	if c.Backend.Port == 0 {
		c.Backend.Port = d.Backend.Port
	}
	if c.Backend.Database == "" {
		c.Backend.Database = d.Backend.Database
	}
	if c.Backend.TokenTTL == "" {
		c.Backend.TokenTTL = d.Backend.TokenTTL
	}
	if c.Backend.Seed == nil {
		c.Backend.Seed = d.Backend.Seed
	}

	// Images
	if c.Images.Driver == "" {
		c.Images.Driver = d.Images.Driver
	}
	if c.Images.Dir == "" {
		c.Images.Dir = d.Images.Dir
	}
	if c.Images.Region == "" {
		c.Images.Region = d.Images.Region
	}
	if c.Images.URLExpiry == "" {
		c.Images.URLExpiry = d.Images.URLExpiry
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = d.Telemetry.ServiceName
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, errors.New("E102").WithDetailf(format, args...))
	}

	if u, perr := url.Parse(c.API.BaseURL); perr != nil || u.Scheme == "" || u.Host == "" {
		invalid("api.baseUrl %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Retries < 0 {
		invalid("api.retries must not be negative")
	}
	if c.Live.Port < 0 || c.Live.Port > 65535 {
		invalid("live.port must be between 0 and 65535")
	}
	if c.Backend.Port < 0 || c.Backend.Port > 65535 {
		invalid("backend.port must be between 0 and 65535")
	}
	if c.Live.QueueSize < 1 {
		invalid("live.queueSize must be positive")
	}
	if s := c.Backend.JWTSecret; s != "" && len(s) < 16 {
		invalid("backend.jwtSecret must be at least 16 characters")
	}

	for name, value := range map[string]string{
		"api.timeout":       c.API.Timeout,
		"live.resumeWindow": c.Live.ResumeWindow,
		"backend.tokenTtl":  c.Backend.TokenTTL,
		"images.urlExpiry":  c.Images.URLExpiry,
	} {
		if d, perr := time.ParseDuration(value); perr != nil || d <= 0 {
			invalid("%s %q is not a positive duration", name, value)
		}
	}

	switch c.Images.Driver {
	case "memory", "disk":
	case "s3":
		if c.Images.Bucket == "" {
			invalid("images.bucket is required for the s3 driver")
		}
	default:
		invalid("images.driver %q must be memory, disk or s3", c.Images.Driver)
	}

	var level slog.Level
	if lerr := level.UnmarshalText([]byte(c.Log.Level)); lerr != nil {
		invalid("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		invalid("log.format %q must be text or json", c.Log.Format)
	}

	return err
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// APITimeout returns api.timeout.
func (c *Config) APITimeout() time.Duration { return duration(c.API.Timeout) }

// ResumeWindow returns live.resumeWindow.
func (c *Config) ResumeWindow() time.Duration { return duration(c.Live.ResumeWindow) }

// TokenTTL returns backend.tokenTtl.
func (c *Config) TokenTTL() time.Duration { return duration(c.Backend.TokenTTL) }

// URLExpiry returns images.urlExpiry.
func (c *Config) URLExpiry() time.Duration { return duration(c.Images.URLExpiry) }

// SeedEnabled reports whether sample data should be loaded.
func (c *Config) SeedEnabled() bool {
	return c.Backend.Seed == nil || *c.Backend.Seed
}

// LiveAddress returns the address the live server listens on.
func (c *Config) LiveAddress() string {
	return net.JoinHostPort(c.Live.Host, strconv.Itoa(c.Live.Port))
}

// BackendAddress returns the address the reference API listens on.
func (c *Config) BackendAddress() string {
	return net.JoinHostPort(c.Backend.Host, strconv.Itoa(c.Backend.Port))
}

// ImagesPublicURL returns images.publicUrl, defaulting to the /images path
// of the live server.
func (c *Config) ImagesPublicURL() string {
	if c.Images.PublicURL != "" {
		return c.Images.PublicURL
	}
	return "http://" + c.LiveAddress() + "/images"
}

// LogLevel returns log.level as a slog level, info when unparseable.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
