// Package config handles configuration loading and management for rester.
//
// It provides functionality for:
//   - Loading configuration from .rester.json, .rester.yaml or .resterrc
//     files through viper
//   - RESTER_* environment overrides
//   - Default configuration values
//   - Merging explicitly set command-line flags over the file
package config
