package logger

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	Logger *log.Logger

	// Wire carries protocol traces under its own prefix.
	Wire *log.Logger
)

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "wlwindow",
	})
	Wire = Logger.WithPrefix("wlwindow/wire")
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel maps a level name to a log level. Unknown or empty names
// fall back to INFO.
func ParseLevel(level string) log.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return log.DebugLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// SetLevel sets the level of both loggers.
func SetLevel(level string) {
	lvl := ParseLevel(level)
	Logger.SetLevel(lvl)
	Wire.SetLevel(lvl)
}

// IsDebug reports whether debug output is enabled, so hot paths can skip
// formatting protocol traces.
func IsDebug() bool {
	return Logger.GetLevel() <= log.DebugLevel
}

// Tracef logs one protocol message on the wire logger.
func Tracef(format string, args ...interface{}) {
	Wire.Debugf(format, args...)
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}
