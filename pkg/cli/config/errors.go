package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrInvalidLogLevel   = goerr.New("invalid log level")
	ErrInvalidLogFormat  = goerr.New("invalid log format")
	ErrInvalidBackend    = goerr.New("invalid repository backend")
	ErrMissingProjectID  = goerr.New("firestore project ID is required")
	ErrMissingAuth       = goerr.New("authentication is not configured")
	ErrMissingSlackToken = goerr.New("slack bot token is required")
	ErrSchemaFile        = goerr.New("invalid schema file")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	BackendKey    = "backend"
	LogLevelKey   = "log_level"
	LogFormatKey  = "log_format"
)
