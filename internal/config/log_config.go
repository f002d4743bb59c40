package config

type LogConfig interface {
	GetLogLevel() string
	GetLogFile() string
	GetLogMaxSizeMB() int
	GetLogMaxBackups() int
}

// Logging controls the log output. An empty LogFile logs to stderr only.
type Logging struct {
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
}

var _ LogConfig = Logging{}

func (l Logging) GetLogLevel() string {
	return l.LogLevel
}

func (l Logging) GetLogFile() string {
	return l.LogFile
}

func (l Logging) GetLogMaxSizeMB() int {
	return l.LogMaxSizeMB
}

func (l Logging) GetLogMaxBackups() int {
	return l.LogMaxBackups
}
