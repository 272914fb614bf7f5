// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including the listen address, upstream pair, health check thresholds, request
// body limits and webhook notification settings.
package config
