package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Empty sections select the in-memory defaults.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Definitions struct {
		// Dir switches definition storage to JSON files under this directory.
		Dir string `yaml:"dir"`
		TTL string `yaml:"ttl"`
	} `yaml:"definitions"`
}

// Load reads the YAML file at path, then applies LMS_* environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, errors.Wrapf(err, "read config %s", path)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"LMS_POSTGRES_URL":    &c.Postgres.URL,
		"LMS_REDIS_ADDR":      &c.Redis.Addr,
		"LMS_REDIS_PASSWORD":  &c.Redis.Password,
		"LMS_DEFINITIONS_DIR": &c.Definitions.Dir,
		"LMS_LOG_LEVEL":       &c.Log.Level,
		"LMS_LOG_FORMAT":      &c.Log.Format,
	}
	for key, field := range overrides {
		if v, ok := lookup(key); ok {
			*field = v
		}
	}
}

// Validate rejects values that would otherwise be silently ignored at startup.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	for name, raw := range map[string]string{"redis.ttl": c.Redis.TTL, "definitions.ttl": c.Definitions.TTL} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return errors.Wrapf(err, "%s", name)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
