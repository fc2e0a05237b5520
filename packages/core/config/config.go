package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RESTER_TIMEOUT=10s.
const EnvPrefix = "RESTER"

// Config represents the rester configuration
type Config struct {
	Timeout         time.Duration     `mapstructure:"timeout"`
	ValidateSSL     *bool             `mapstructure:"validateSSL"`
	Proxy           string            `mapstructure:"proxy"`
	Headers         map[string]string `mapstructure:"headers"` // names are lower-cased by viper
	FollowRedirects *bool             `mapstructure:"followRedirects"`
	MaxRedirects    int               `mapstructure:"maxRedirects"`
	RateLimit       float64           `mapstructure:"rateLimit"` // requests per second, 0 is unlimited
	Verbose         int               `mapstructure:"verbose"`
	NoColor         *bool             `mapstructure:"noColor"`
	Stats           *bool             `mapstructure:"stats"`
	Output          string            `mapstructure:"output"`
	EnvFile         string            `mapstructure:"envFile"`
}

// keys bound to RESTER_* variables
var envKeys = []string{
	"timeout", "validateSSL", "proxy", "followRedirects", "maxRedirects",
	"rateLimit", "verbose", "noColor", "stats", "output", "envFile",
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

func (c *Config) GetStats() bool {
	return getBool(c.Stats, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".rester.json",
	"rester.json",
	".rester.yaml",
	"rester.yaml",
	".resterrc",
}

// LoadConfig loads configuration from the specified path or searches for
// config files in the current directory.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(fs, path)
	}
	return FindAndLoadConfig(fs, ".")
}

// FindAndLoadConfig searches for a config file in the given directory.
// Without one, defaults and environment overrides still apply.
func FindAndLoadConfig(fs afero.Fs, dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := fs.Stat(configPath); err == nil {
			return loadConfigFromFile(fs, configPath)
		}
	}
	return load(newViper(fs))
}

func loadConfigFromFile(fs afero.Fs, path string) (*Config, error) {
	v := newViper(fs)
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		v.SetConfigType("json")
	default:
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return load(v)
}

func newViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key))
	}
	return v
}

func load(v *viper.Viper) (*Config, error) {
	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.Verbose > 0 {
		result.Verbose = other.Verbose
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Stats != nil {
		result.Stats = other.Stats
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}
