package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "VERDICT_ENGINE_"

// Config captures the settings required to boot the verdict engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Policies PoliciesConfig `yaml:"policies"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig controls the gRPC and HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// PoliciesConfig controls where jurisdiction policies come from. Documents in
// Dir override those in the registry, which override the built-in policies of
// the same code.
type PoliciesConfig struct {
	Dir             string        `yaml:"dir"`
	RegistryURL     string        `yaml:"registryURL"`
	RegistryTimeout time.Duration `yaml:"registryTimeout"`
	LoadTimeout     time.Duration `yaml:"loadTimeout"`
	Preload         []string      `yaml:"preload"`
	// PreloadAll loads every known policy at startup when Preload is empty.
	PreloadAll bool `yaml:"preloadAll"`
}

// CacheConfig controls the Valkey cache that shares policy documents across
// replicas.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	PolicyTTL    time.Duration `yaml:"policyTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" && c.Server.HTTPAddress == "" {
		errs = append(errs, errors.New("server: at least one of address or httpAddress is required"))
	}
	if c.Server.GracefulTimeout < 0 {
		errs = append(errs, errors.New("server: gracefulTimeout must not be negative"))
	}
	if c.Policies.RegistryURL != "" {
		if u, err := url.Parse(c.Policies.RegistryURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("policies: registryURL %q is not an absolute URL", c.Policies.RegistryURL))
		}
	}
	if c.Policies.LoadTimeout < 0 {
		errs = append(errs, errors.New("policies: loadTimeout must not be negative"))
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, errors.New("cache: addr is required when the cache is enabled"))
	}
	if c.Cache.PolicyTTL < 0 {
		errs = append(errs, errors.New("cache: policyTTL must not be negative"))
	}
	return errors.Join(errs...)
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":8080",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Policies: PoliciesConfig{
			RegistryTimeout: 5 * time.Second,
			LoadTimeout:     10 * time.Second,
			PreloadAll:      true,
		},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			PolicyTTL:    15 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Address, "SERVER_ADDRESS")
	setString(&cfg.Server.HTTPAddress, "HTTP_ADDRESS")
	setDuration(&cfg.Server.GracefulTimeout, "GRACEFUL_TIMEOUT")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	if v := os.Getenv(envPrefix + "LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}

	setString(&cfg.Policies.Dir, "POLICY_DIR")
	setString(&cfg.Policies.RegistryURL, "POLICY_REGISTRY_URL")
	setDuration(&cfg.Policies.RegistryTimeout, "POLICY_REGISTRY_TIMEOUT")
	setDuration(&cfg.Policies.LoadTimeout, "POLICY_LOAD_TIMEOUT")
	if v := os.Getenv(envPrefix + "POLICY_PRELOAD"); v != "" {
		cfg.Policies.Preload = splitList(v)
	}
	setBool(&cfg.Policies.PreloadAll, "POLICY_PRELOAD_ALL")

	setBool(&cfg.Cache.Enabled, "CACHE_ENABLED")
	setString(&cfg.Cache.Addr, "CACHE_ADDR")
	setString(&cfg.Cache.Username, "CACHE_USERNAME")
	setString(&cfg.Cache.Password, "CACHE_PASSWORD")
	setInt(&cfg.Cache.DB, "CACHE_DB")
	setBool(&cfg.Cache.TLS, "CACHE_TLS")
	setDuration(&cfg.Cache.DialTimeout, "CACHE_DIAL_TIMEOUT")
	setDuration(&cfg.Cache.ReadTimeout, "CACHE_READ_TIMEOUT")
	setDuration(&cfg.Cache.WriteTimeout, "CACHE_WRITE_TIMEOUT")
	setInt(&cfg.Cache.MaxRetries, "CACHE_MAX_RETRIES")
	setDuration(&cfg.Cache.PolicyTTL, "CACHE_POLICY_TTL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
