package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/api"
)

// EnvPrefix is prepended to every environment override, e.g. SERENITY_API_URL
const EnvPrefix = "SERENITY"

// Config keys
const (
	KeyAPIURL      = "api_url"
	KeyTimeout     = "timeout"
	KeyDemo        = "demo"
	KeyDemoToken   = "demo_token"
	KeyDemoMocks   = "demo_mocks"
	KeyBackend     = "backend"
	KeyStorage     = "storage"
	KeyRedisURL    = "redis_url"
	KeyRedisPrefix = "redis_prefix"
	KeyListen      = "listen"
	KeyRateLimit   = "rate_limit"
	KeyVerbose     = "verbose"
)

// Config is the merged configuration for the CLI and the gateway
type Config struct {
	APIURL      string        `mapstructure:"api_url" yaml:"api_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Demo        bool          `mapstructure:"demo" yaml:"demo"`
	DemoToken   string        `mapstructure:"demo_token" yaml:"demo_token"`
	DemoMocks   string        `mapstructure:"demo_mocks" yaml:"demo_mocks,omitempty"`
	Backend     string        `mapstructure:"backend" yaml:"backend"`
	Storage     string        `mapstructure:"storage" yaml:"storage,omitempty"`
	RedisURL    string        `mapstructure:"redis_url" yaml:"redis_url,omitempty"`
	RedisPrefix string        `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	Listen      string        `mapstructure:"listen" yaml:"listen"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // gateway requests per second, 0 = unlimited
	Verbose     bool          `mapstructure:"verbose" yaml:"verbose"`

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// SetDefaults registers the default for every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, api.DefaultBaseURL)
	v.SetDefault(KeyTimeout, api.DefaultTimeout)
	v.SetDefault(KeyDemo, false)
	v.SetDefault(KeyDemoToken, api.DefaultDemoToken)
	v.SetDefault(KeyDemoMocks, "")
	v.SetDefault(KeyBackend, internal.BackendSQLite)
	v.SetDefault(KeyStorage, "")
	v.SetDefault(KeyRedisURL, "redis://localhost:6379/0")
	v.SetDefault(KeyRedisPrefix, "serenity")
	v.SetDefault(KeyListen, "127.0.0.1:8787")
	v.SetDefault(KeyRateLimit, 0.0)
	v.SetDefault(KeyVerbose, false)
}

// New returns a viper instance with defaults and SERENITY_* env overrides
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				internal.LogDebug("No %s file found", path)
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		internal.LogDebug("Loaded environment from %s", path)
	}
	return nil
}

// Load reads configFile, or config.yaml from the default config directory
// when configFile is empty, and unmarshals the merged result. Flags bound to
// v take precedence over env, which takes precedence over the file.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	paths, pathErr := internal.DetectDataPaths()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if pathErr == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(paths.ConfigDir)
	}

	if configFile != "" || pathErr == nil {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if configFile != "" || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if cfg.Storage == "" && pathErr == nil {
		cfg.Storage = paths.StoragePathFor(strings.ToLower(cfg.Backend))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case internal.BackendSQLite, internal.BackendFile:
		if c.Storage == "" {
			return fmt.Errorf("backend %q needs a storage path", c.Backend)
		}
	case internal.BackendMemory:
	case internal.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("backend %q needs %s", c.Backend, KeyRedisURL)
		}
	default:
		return fmt.Errorf("unsupported backend: %s (supported: sqlite, file, memory, redis)", c.Backend)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyTimeout, c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%s must not be negative, got %g", KeyRateLimit, c.RateLimit)
	}
	return nil
}

// BackendOptions converts the storage settings for internal.OpenBackend
func (c *Config) BackendOptions() internal.BackendOptions {
	return internal.BackendOptions{
		Kind:        strings.ToLower(c.Backend),
		Path:        c.Storage,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
	}
}

// DotEnvPaths lists the .env files checked at startup: the working directory
// first, then the config directory
func DotEnvPaths() []string {
	paths := []string{".env"}
	if dp, err := internal.DetectDataPaths(); err == nil {
		paths = append(paths, filepath.Join(dp.ConfigDir, ".env"))
	}
	return paths
}
