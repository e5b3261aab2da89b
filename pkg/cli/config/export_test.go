package config

var (
	ParseLogLevel  = parseLogLevel
	ParseLogFormat = parseLogFormat
)

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, sqlitePath string) *Repository {
	return &Repository{
		backend:    backend,
		projectID:  projectID,
		sqlitePath: sqlitePath,
	}
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(jwtSecret, jwksURL string, noAuth bool, adminUsers ...string) *Auth {
	return &Auth{
		jwtSecret:  jwtSecret,
		jwksURL:    jwksURL,
		noAuth:     noAuth,
		adminUsers: adminUsers,
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
