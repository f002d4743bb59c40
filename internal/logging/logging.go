package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global zerolog logger from c and returns it.
// DEV prints human readable lines to stderr, other environments JSON.
// A configured log file receives JSON lines and is rotated by size.
func Setup(c config.Config) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if c.IsDev() {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	if c.GetLogFile() != "" {
		if err := os.MkdirAll(filepath.Dir(c.GetLogFile()), 0o755); err != nil {
			return zerolog.Logger{}, nil, err
		}
		logWriter := &lumberjack.Logger{
			Filename:   c.GetLogFile(),
			MaxSize:    c.GetLogMaxSizeMB(),
			MaxBackups: c.GetLogMaxBackups(),
			Compress:   true,
		}
		writers = append(writers, logWriter)
		closer = logWriter
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("app", c.GetAppName()).
		Logger()
	return log.Logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
