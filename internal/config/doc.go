// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// The storage section selects the durable backend (file, postgres or redis); the
// cache section holds the range cache knobs (default resolution, per-fetch timeout).
package config
