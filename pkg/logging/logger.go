// Package logging provides the toolchain's structured logger: leveled,
// text or JSON output, asynchronous writing, optional rotating file output.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to its LogLevel; unknown names mean INFO.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	// TextFormat outputs human-readable text logs
	TextFormat LogFormat = iota
	// JSONFormat outputs structured JSON logs
	JSONFormat
)

// LogEntry represents a single log entry with all metadata
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	BuildID   string                 `json:"build_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// MinLevel is the minimum level to log (zero value: DEBUG)
	MinLevel LogLevel
	// Format is the output format (default: TextFormat)
	Format LogFormat
	// BufferSize is the size of the async log buffer (default: 1000)
	BufferSize int
	// Outputs are the writers to send logs to
	Outputs []io.Writer
	// FilePath is the path to the log file (empty = no file logging)
	FilePath string
	// MaxFileSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxFileSize int64
}

// Logger is the main logging instance
type Logger struct {
	config  LoggerConfig
	buffer  chan *LogEntry
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	buildID string
	file    *rotatingFileWriter
}

// NewLogger creates a new logger instance with the given configuration.
// Each logger carries a build ID stamped on every entry, tying a run's log
// lines together.
func NewLogger(config LoggerConfig) (*Logger, error) {
	if config.BufferSize == 0 {
		config.BufferSize = 1000
	}
	if len(config.Outputs) == 0 {
		config.Outputs = []io.Writer{os.Stderr}
	}

	logger := &Logger{
		config:  config,
		buffer:  make(chan *LogEntry, config.BufferSize),
		buildID: uuid.NewString(),
	}

	if config.FilePath != "" {
		fw, err := newRotatingFileWriter(config.FilePath, config.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create file writer: %w", err)
		}
		logger.file = fw
		logger.config.Outputs = append(logger.config.Outputs, fw)
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger, nil
}

// BuildID returns the identifier stamped on this logger's entries.
func (l *Logger) BuildID() string { return l.buildID }

func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if level < l.config.MinLevel {
		return
	}
	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		BuildID:   l.buildID,
		Fields:    fields,
	}

	// The send happens under the mutex so Close cannot shut the channel
	// between the stopped check and the send.
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	select {
	case l.buffer <- entry:
	default:
		// Buffer full: drop rather than block the compiler.
	}
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, fields map[string]interface{}) { l.log(DEBUG, msg, fields) }

// Info logs at INFO level.
func (l *Logger) Info(msg string, fields map[string]interface{}) { l.log(INFO, msg, fields) }

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, fields map[string]interface{}) { l.log(WARN, msg, fields) }

// Error logs at ERROR level.
func (l *Logger) Error(msg string, fields map[string]interface{}) { l.log(ERROR, msg, fields) }

// processLogs drains the buffer on a background goroutine.
func (l *Logger) processLogs() {
	defer l.wg.Done()
	for entry := range l.buffer {
		line := l.format(entry)
		for _, out := range l.config.Outputs {
			fmt.Fprint(out, line)
		}
	}
}

func (l *Logger) format(entry *LogEntry) string {
	if l.config.Format == JSONFormat {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Sprintf("%s [%s] %s\n", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message)
		}
		return string(data) + "\n"
	}

	line := fmt.Sprintf("%s [%s] %s", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Message)
	for k, v := range entry.Fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	return line + "\n"
}

// Close flushes pending entries and stops the background writer.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	l.mu.Unlock()

	close(l.buffer)
	l.wg.Wait()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// rotatingFileWriter handles log file rotation
type rotatingFileWriter struct {
	mu          sync.Mutex
	file        *os.File
	path        string
	maxSize     int64
	currentSize int64
}

func newRotatingFileWriter(path string, maxSize int64) (*rotatingFileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}
	return &rotatingFileWriter{
		file:        file,
		path:        path,
		maxSize:     maxSize,
		currentSize: info.Size(),
	}, nil
}

// Write implements io.Writer for rotatingFileWriter
func (w *rotatingFileWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxSize > 0 && w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err = w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

// rotate moves the current file aside and starts a fresh one.
func (w *rotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	backup := fmt.Sprintf("%s.%s", w.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(w.path, backup); err != nil {
		return err
	}
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w.file = file
	w.currentSize = 0
	return nil
}

func (w *rotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
