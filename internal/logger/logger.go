package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger

	// console receives a copy of debug output
	console io.Writer = os.Stderr
	// file is the rotating log file set up by Init
	file io.Writer
)

// Config holds logger configuration
type Config struct {
	Debug bool
	// Dir is the data directory; logs go to Dir/logs
	Dir string
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.Dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "fencer.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	file = fileWriter
	level := log.InfoLevel
	var writer io.Writer = fileWriter
	if cfg.Debug {
		level = log.DebugLevel
		writer = io.MultiWriter(console, fileWriter)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "fencer",
	})

	return nil
}

// FileOnly stops mirroring to the terminal until the returned func is
// called. Full-screen UIs use it so log lines do not draw over them.
func FileOnly() (restore func()) {
	if Logger == nil || file == nil {
		return func() {}
	}
	Logger.SetOutput(file)
	return func() {
		if Logger.GetLevel() == log.DebugLevel {
			Logger.SetOutput(io.MultiWriter(console, file))
		}
	}
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Get returns the global logger, or a discarding one before Init
func Get() *log.Logger {
	if Logger == nil {
		return Discard()
	}
	return Logger
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
