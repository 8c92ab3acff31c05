// Package config loads the service configuration.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. a YAML file: $PEOPLEFLOW_CONFIG, else ./config.yaml or ./config.yml
//  3. environment variables prefixed PEOPLEFLOW_, where the first underscore
//     after the prefix separates the section: PEOPLEFLOW_SERVER_PORT=9090,
//     PEOPLEFLOW_DATA_FETCH_TIMEOUT=10s
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/pipeline"
	"go-peopleflow/internal/validation"
)

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "PEOPLEFLOW_"

// PathEnvVar names the config file explicitly.
const PathEnvVar = "PEOPLEFLOW_CONFIG"

// DefaultPaths are searched when PathEnvVar is unset.
var DefaultPaths = []string{"config.yaml", "config.yml"}

// Config is the complete service configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Logging     logging.Config    `koanf:"logging"`
	Data        DataConfig        `koanf:"data"`
	Calendar    CalendarConfig    `koanf:"calendar"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Categories  CategoriesConfig  `koanf:"categories"`
	Export      ExportConfig      `koanf:"export"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"` // requests per window per IP, 0 disables
	RateWindow      time.Duration `koanf:"rate_window"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the sqlite store.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// DataConfig configures ingestion.
type DataConfig struct {
	BaseDir       string        `koanf:"base_dir"` // local csv sources are resolved inside it
	APIURL        string        `koanf:"api_url"`  // default api source for GET /aggregations
	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
	RunTimeout    time.Duration `koanf:"run_timeout"`
	RetryAttempts int           `koanf:"retry_attempts" validate:"min=0,max=10"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	RetryMaxDelay time.Duration `koanf:"retry_max_delay"`
}

// Retry returns the fetch retry policy.
func (d DataConfig) Retry() pipeline.RetryConfig {
	cfg := pipeline.DefaultRetryConfig
	cfg.MaxAttempts = d.RetryAttempts
	if d.RetryDelay > 0 {
		cfg.InitialDelay = d.RetryDelay
	}
	if d.RetryMaxDelay > 0 {
		cfg.MaxDelay = d.RetryMaxDelay
	}
	return cfg
}

// CalendarConfig configures the holiday calendar.
type CalendarConfig struct {
	HolidayFile string `koanf:"holiday_file"` // Cabinet Office syukujitsu.csv; rules only when empty
}

// AggregationConfig configures the engine.
type AggregationConfig struct {
	SeasonCutoff int    `koanf:"season_cutoff" validate:"min=0,max=31"` // 0 disables the December clamp
	Duplicates   string `koanf:"duplicates" validate:"oneof=first merge"`
}

// CategoriesConfig adds or replaces category groups.
type CategoriesConfig struct {
	Groups  map[string][]string `koanf:"groups"`
	Replace bool                `koanf:"replace"` // drop the built-in groups
}

// ExportConfig configures file exports.
type ExportConfig struct {
	OutputDir string `koanf:"output_dir" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       120,
			RateWindow:      time.Minute,
		},
		Database: DatabaseConfig{Path: "peopleflow.db"},
		Logging:  logging.Config{Level: "info", Format: "json"},
		Data: DataConfig{
			BaseDir:       "data",
			FetchTimeout:  30 * time.Second,
			RunTimeout:    pipeline.DefaultRunTimeout,
			RetryAttempts: pipeline.DefaultRetryConfig.MaxAttempts,
			RetryDelay:    pipeline.DefaultRetryConfig.InitialDelay,
			RetryMaxDelay: pipeline.DefaultRetryConfig.MaxDelay,
		},
		Aggregation: AggregationConfig{
			SeasonCutoff: pipeline.DefaultSeasonCutoff,
			Duplicates:   string(pipeline.DuplicateFirst),
		},
		Export: ExportConfig{OutputDir: "output"},
	}
}

// Load reads defaults, the config file and the environment.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit file; an empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	return validation.Struct(c)
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps PEOPLEFLOW_DATA_FETCH_TIMEOUT to data.fetch_timeout. The
// config path variable itself is not a setting.
func envKey(s string) string {
	if s == PathEnvVar {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// splitList turns a comma separated env value into a list.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}
