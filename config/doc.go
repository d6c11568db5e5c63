// Package config loads the monitor configuration from an optional .env file,
// YAML config files and environment variables, and validates the result
// before any store or worker is constructed.
package config
