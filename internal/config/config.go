package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port        string            `yaml:"port"`
	Mode        string            `yaml:"mode"`
	LogMode     string            `yaml:"log_mode"`
	JWTSecret   string            `yaml:"jwt_secret"`
	CORSOrigins []string          `yaml:"cors_origins"`
	Database    DatabaseConfig    `yaml:"database"`
	UserService UserServiceConfig `yaml:"user_service"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// UserServiceConfig points at the principal directory. KnownIDs is a static
// fallback for local runs without a user service.
type UserServiceConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	KnownIDs []string      `yaml:"known_ids"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func Default() Config {
	return Config{
		Port:    "8081",
		Mode:    "release",
		LogMode: "production",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "pos_sales.db",
		},
		UserService: UserServiceConfig{
			URL:     "http://localhost:8080/users",
			Timeout: 5 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "pos-sales",
			SampleRatio: 0.1,
		},
	}
}

// Load applies, in order: defaults, the YAML file at path (if any), then
// environment variables. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	if c.UserService.URL == "" && len(c.UserService.KnownIDs) == 0 {
		errs = append(errs, errors.New("user_service.url or user_service.known_ids is required"))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("telemetry.sample_ratio must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

func applyEnv(c *Config) error {
	setString("PORT", &c.Port)
	setString("GIN_MODE", &c.Mode)
	setString("LOG_MODE", &c.LogMode)
	setString("JWT_SECRET", &c.JWTSecret)
	setString("DB_DRIVER", &c.Database.Driver)
	setString("DB_DSN", &c.Database.DSN)
	setString("USER_SERVICE_URL", &c.UserService.URL)
	setString("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)
	setString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.Endpoint)
	setList("CORS_ORIGINS", &c.CORSOrigins)
	setList("USER_SERVICE_KNOWN_IDS", &c.UserService.KnownIDs)

	if v, ok := lookup("USER_SERVICE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("USER_SERVICE_TIMEOUT: %w", err)
		}
		c.UserService.Timeout = d
	}
	for key, dst := range map[string]*bool{
		"OTEL_ENABLED":                &c.Telemetry.Enabled,
		"OTEL_EXPORTER_OTLP_INSECURE": &c.Telemetry.Insecure,
	} {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup("OTEL_SAMPLER_RATIO"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OTEL_SAMPLER_RATIO: %w", err)
		}
		c.Telemetry.SampleRatio = f
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setList(key string, dst *[]string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
