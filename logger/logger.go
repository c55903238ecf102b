// Package logger wraps logrus with component-scoped entries and optional
// rotating file output.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields are structured key/values attached to a log line.
type Fields map[string]interface{}

// Log is the service logger. Packages derive component entries from it.
type Log struct {
	*logrus.Logger
}

// Entry carries the component and fields attached to a log line.
type Entry struct {
	*logrus.Entry
}

// Options controls Configure.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output defaults to stdout. Stdio transports set it to stderr.
	Output io.Writer
}

var globalLogger *Log

func init() {
	globalLogger = New(os.Stdout, "info")
}

// New builds a JSON logger writing to w at the given level. Unknown levels fall back to info.
func New(w io.Writer, level string) *Log {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetReportCaller(true)
	logger.SetLevel(lvl)

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
		CallerPrettyfier: shortCaller,
	})
	return &Log{Logger: logger}
}

// Configure replaces the global logger. When opts.File is set, output goes
// to both opts.Output and a size-rotated file.
func Configure(opts Options) *Log {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   true,
		}
		out = io.MultiWriter(out, rotator)
	}
	globalLogger = New(out, opts.Level)
	return globalLogger
}

// shortCaller reports the caller as file:line without the function name.
func shortCaller(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// GetLogger returns the process-wide logger.
func GetLogger() *Log {
	return globalLogger
}

// WithComponent tags lines with the emitting package, e.g. "narrative".
func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

func (l *Log) WithError(err error) *Entry {
	return &Entry{Entry: l.Logger.WithError(err)}
}

func (e *Entry) WithComponent(component string) *Entry {
	return &Entry{Entry: e.Entry.WithField("component", component)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}
