// Package config loads and validates the service configuration.
//
// Configuration is an explicit value constructed once at startup and passed
// into constructors; there is no ambient global. Values are merged in order:
// built-in defaults, then an optional TOML config file, then environment
// variables.
package config
