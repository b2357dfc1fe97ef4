// Package logger configures the process-wide zerolog logger from the
// catalog configuration.
//
// Package logger 根据目录配置初始化全局zerolog日志记录器。
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Humphrey-He/prodcat/configs"
)

// Init replaces log.Logger with a logger built from cfg. The returned
// closer releases the log file when output is "file" and is a no-op
// otherwise.
//
// Init 使用cfg构建的日志记录器替换log.Logger。
// 当输出为文件时，返回的closer负责关闭日志文件。
//
// Parameters:
//   - cfg: Logging configuration
//
// Returns:
//   - io.Closer: Releases the underlying output
//   - error: An error if the level or output is invalid
func Init(cfg configs.LogConfig) (io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out, closer, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}

	log.Logger = New(out, cfg.Format).Level(level)
	zerolog.DefaultContextLogger = &log.Logger
	return closer, nil
}

// New builds a timestamped logger writing to w. Format "text" uses the
// console writer, anything else writes raw JSON lines.
func New(w io.Writer, format string) zerolog.Logger {
	if format == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel changes the level of the global logger. It is used by the
// configuration hot reload subscriber.
//
// SetLevel 修改全局日志级别，供配置热重载订阅者使用。
func SetLevel(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	log.Logger = log.Logger.Level(l)
	return nil
}

// ParseLevel maps a configured level name to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch level {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func openOutput(cfg configs.LogConfig) (io.Writer, io.Closer, error) {
	switch cfg.Output {
	case "", "stdout":
		return os.Stdout, nopCloser{}, nil
	case "stderr":
		return os.Stderr, nopCloser{}, nil
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, f, nil
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}
