package config

import "errors"

// Configuration loading errors
var (
	ErrConfigFileRead  = errors.New("failed to read config file")
	ErrConfigUnmarshal = errors.New("failed to unmarshal config")
)

// Configuration validation errors
var (
	ErrInvalidPort       = errors.New("listen port must be between 1 and 65535")
	ErrNoLanguages       = errors.New("at least one language must be configured")
	ErrDefaultLanguage   = errors.New("default language must be one of the configured languages")
	ErrInvalidLogFormat  = errors.New("log format must be text or json")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidFooterLink = errors.New("footer links need a title and exactly one of route or url")
	ErrInvalidBaseURL    = errors.New("base URL must be an absolute http or https URL")
)
