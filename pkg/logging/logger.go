package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the logging verbosity level
type Level int

const (
	// LevelQuiet shows only warnings and errors
	LevelQuiet Level = iota
	// LevelNormal shows one line per update cycle (default)
	LevelNormal
	// LevelVerbose adds session lifecycle details
	LevelVerbose
	// LevelDebug shows all internal details for debugging
	LevelDebug
)

// ParseLevel converts a string log level to Level
func ParseLevel(level string) Level {
	switch level {
	case "quiet":
		return LevelQuiet
	case "normal":
		return LevelNormal
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelNormal
	}
}

// Options configures a root logger.
type Options struct {
	// Level is one of quiet, normal, verbose, debug
	Level string

	// Console receives every line; defaults to os.Stdout
	Console io.Writer

	// File is the log file path. Empty means ~/.relist/logs/<run-id>-relist.log
	File string

	// DisableFile turns off file logging entirely
	DisableFile bool

	MaxSizeMB  int
	MaxBackups int
}

// Logger writes timestamped, component-tagged lines to the console and a
// rotated log file:
//
//	[2006-01-02 15:04:05.000] [component] [LEVEL] message
//
// Loggers derived with With share the writer and the lock of their root.
type Logger struct {
	runID     string
	component string
	level     Level
	out       io.Writer
	file      io.Closer
	logPath   string
	mu        *sync.Mutex
	closeOnce *sync.Once
}

var (
	// Global run ID for the current process
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error
)

// getRunID returns or creates the run ID for this process
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".relist", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// New creates the root logger for a component.
//
// If the log file cannot be prepared, New returns a console-only logger along
// with the error. Callers can check the error to detect fallback mode.
func New(component string, opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Logger{
		runID:     getRunID(),
		component: component,
		level:     ParseLevel(opts.Level),
		out:       console,
		mu:        &sync.Mutex{},
		closeOnce: &sync.Once{},
	}

	if opts.DisableFile {
		return l, nil
	}

	path := opts.File
	if path == "" {
		if err := initLogDirectory(); err != nil {
			l.Warnf("Failed to initialize file logging, falling back to console: %v", err)
			return l, err
		}
		path = filepath.Join(logDir, fmt.Sprintf("%s-relist.log", l.runID))
	} else if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		err = fmt.Errorf("failed to create log directory: %w", err)
		l.Warnf("Failed to initialize file logging, falling back to console: %v", err)
		return l, err
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	l.out = io.MultiWriter(console, file)
	l.file = file
	l.logPath = path
	return l, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{
		runID:     getRunID(),
		component: "discard",
		level:     LevelQuiet,
		out:       io.Discard,
		mu:        &sync.Mutex{},
		closeOnce: &sync.Once{},
	}
}

// With returns a logger for another component writing to the same outputs.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

// formatLogEntry creates a log entry with timestamp, component, and level
func (l *Logger) formatLogEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) write(min Level, level, format string, v ...interface{}) {
	if l.level < min {
		return
	}
	entry := l.formatLogEntry(level, fmt.Sprintf(format, v...))

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, entry)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, v...)
}

// Verbosef logs detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, v ...interface{}) {
	l.write(LevelVerbose, "INFO", format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelNormal, "INFO", format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelQuiet, "WARN", format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelQuiet, "ERROR", format, v...)
}

// Print writes a preformatted block as-is, without the entry prefix.
func (l *Logger) Print(text string) {
	if l.level < LevelNormal {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, text)
}

// Level returns the configured verbosity.
func (l *Logger) Level() Level {
	return l.level
}

// RunID returns the current run ID
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, or "" when logging to the
// console only.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}
