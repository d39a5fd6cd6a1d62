// Package log is the process-wide structured logger. Entries travel on the
// context so that a session id (or any other field) added once is carried by
// every line logged further down the call chain.
package log

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	rootLogger = logrus.NewEntry(logrus.StandardLogger())

	// L accesses the current logger from the context.
	L = loggerFromContext

	initAtLeastOnce atomic.Bool
)

type ctxLogKey struct{}

// Config selects level, format and destination of log output.
type Config struct {
	Level  string     `json:"level"`  // "error" | "warn" | "info" | "debug" | "trace"
	Format string     `json:"format"` // "simple" | "detailed" | "json"
	Output string     `json:"output"` // "stderr" | "stdout" | "file" | "discard"
	File   FileConfig `json:"file"`
}

// FileConfig controls rotation when Output is "file".
type FileConfig struct {
	Filename   string `json:"filename"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// Defaults keeps the CLI quiet unless asked: warnings and above, to stderr.
var Defaults = Config{
	Level:  "warn",
	Format: "simple",
	Output: "stderr",
	File: FileConfig{
		Filename:   "milknet.log",
		MaxSizeMB:  10,
		MaxBackups: 2,
		MaxAgeDays: 7,
	},
}

// InitConfig applies conf on top of Defaults.
func InitConfig(conf Config) {
	initAtLeastOnce.Store(true) // must store before SetLevel

	SetLevel(orDefault(conf.Level, Defaults.Level))

	switch orDefault(conf.Output, Defaults.Output) {
	case "file":
		fc := conf.File
		rootLogger.Infof("Logs diverted to %s", orDefault(fc.Filename, Defaults.File.Filename))
		logrus.SetOutput(&lumberjack.Logger{
			Filename:   orDefault(fc.Filename, Defaults.File.Filename),
			MaxSize:    intOrDefault(fc.MaxSizeMB, Defaults.File.MaxSizeMB),
			MaxBackups: intOrDefault(fc.MaxBackups, Defaults.File.MaxBackups),
			MaxAge:     intOrDefault(fc.MaxAgeDays, Defaults.File.MaxAgeDays),
			Compress:   fc.Compress,
		})
	case "stdout":
		logrus.SetOutput(os.Stdout)
	case "discard":
		logrus.SetOutput(io.Discard)
	default:
		logrus.SetOutput(os.Stderr)
	}

	setFormatting(orDefault(conf.Format, Defaults.Format))
}

// EnsureInit initialises with defaults if InitConfig has never run (tests,
// library use).
func EnsureInit() {
	if !initAtLeastOnce.Load() {
		InitConfig(Config{})
	}
}

// WithLogger adds the specified logger to the context.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	EnsureInit()
	return context.WithValue(ctx, ctxLogKey{}, logger)
}

// WithLogField adds the specified field to the logger in the context.
func WithLogField(ctx context.Context, key, value string) context.Context {
	EnsureInit()
	if len(value) > 61 {
		value = value[0:61] + "..."
	}
	return WithLogger(ctx, loggerFromContext(ctx).WithField(key, value))
}

func loggerFromContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return rootLogger
	}
	logger := ctx.Value(ctxLogKey{})
	if logger == nil {
		return rootLogger
	}
	return logger.(*logrus.Entry)
}

// IsDebugEnabled reports whether debug lines will be emitted.
func IsDebugEnabled() bool {
	return logrus.IsLevelEnabled(logrus.DebugLevel)
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch logrus.GetLevel() {
	case logrus.ErrorLevel:
		return "error"
	case logrus.WarnLevel:
		return "warn"
	case logrus.DebugLevel:
		return "debug"
	case logrus.TraceLevel:
		return "trace"
	default:
		return "info"
	}
}

// SetLevel parses level case-insensitively; unknown names mean "info".
func SetLevel(level string) {
	var l logrus.Level
	switch strings.ToLower(level) {
	case "error":
		l = logrus.ErrorLevel
	case "warn", "warning":
		l = logrus.WarnLevel
	case "debug":
		l = logrus.DebugLevel
	case "trace":
		l = logrus.TraceLevel
	default:
		l = logrus.InfoLevel
	}
	logrus.SetLevel(l)
}

func setFormatting(format string) {
	var formatter logrus.Formatter
	switch format {
	case "json":
		formatter = &logrus.JSONFormatter{}
	case "detailed":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
		logrus.SetReportCaller(true)
	default:
		formatter = &prefixed.TextFormatter{
			ForceFormatting: true,
			FullTimestamp:   true,
		}
	}
	logrus.SetFormatter(formatter)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
