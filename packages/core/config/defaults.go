package config

import "time"

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRedirects = 10
	DefaultOutput       = "console"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeout,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		NoColor:         BoolPtr(false),
		Stats:           BoolPtr(false),
		Output:          DefaultOutput,
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == "" &&
		len(c.Headers) == 0 &&
		c.RateLimit == 0 &&
		c.Verbose == 0 &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.GetStats() == defaults.GetStats() &&
		c.Output == defaults.Output &&
		c.EnvFile == ""
}
