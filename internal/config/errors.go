package config

import "errors"

// ErrLoadConfig wraps failures reading the YAML file, .env or environment.
// ErrInvalidConfig wraps every Validate rejection.
var (
	ErrLoadConfig    = errors.New("load config failed")
	ErrInvalidConfig = errors.New("invalid config")
)
