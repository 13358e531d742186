/**
 * Logger Implementation for StepWatch
 *
 * Structured logging using zerolog with context awareness and
 * configurable output formats for development and production.
 *
 * Author: StepWatch Team
 * Created: 2026-10-15
 */

package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with additional functionality.
type Logger struct {
	logger zerolog.Logger
	config *Config
}

// Config configures the logger behavior.
type Config struct {
	Output        io.Writer
	Fields        map[string]interface{}
	Level         string
	TimeFormat    string
	Pretty        bool
	IncludeCaller bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:         "info",
		Output:        os.Stderr,
		Pretty:        false,
		IncludeCaller: false,
		Fields:        make(map[string]interface{}),
		TimeFormat:    time.RFC3339,
	}
}

// contextKey is used for storing logger in context.
type contextKey struct{}

var loggerKey = contextKey{}

// New creates a new logger instance.
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}

	var output = config.Output
	if config.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        config.Output,
			TimeFormat: config.TimeFormat,
			NoColor:    false,
		}
	}

	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	for k, v := range config.Fields {
		logger = logger.With().Interface(k, v).Logger()
	}

	if config.IncludeCaller {
		logger = logger.With().CallerWithSkipFrameCount(3).Logger()
	}

	return &Logger{
		logger: logger,
		config: config,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop(), config: DefaultConfig()}
}

// WithContext adds the logger to context.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return Nop()
}

// With creates a child logger with additional key-value fields.
func (l *Logger) With(fields ...interface{}) *Logger {
	newLogger := l.logger.With()

	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			newLogger = newLogger.Interface(key, fields[i+1])
		}
	}

	return &Logger{
		logger: newLogger.Logger(),
		config: l.config,
	}
}

// WithField creates a child logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger: l.logger.With().Interface(key, value).Logger(),
		config: l.config,
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.logEvent(l.logger.Debug(), msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.logEvent(l.logger.Info(), msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.logEvent(l.logger.Warn(), msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string, fields ...interface{}) {
	event := l.logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	l.logEvent(event, msg, fields...)
}

// Trace logs a trace message for detailed debugging.
func (l *Logger) Trace(msg string, fields ...interface{}) {
	l.logEvent(l.logger.Trace(), msg, fields...)
}

// logEvent processes field pairs and sends the log event.
func (l *Logger) logEvent(event *zerolog.Event, msg string, fields ...interface{}) {
	for i := 0; i < len(fields)-1; i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		default:
			event = event.Interface(key, v)
		}
	}

	event.Msg(msg)
}

// LogOperation logs the start and end of an operation.
func (l *Logger) LogOperation(op string, fn func() error) error {
	start := time.Now()
	l.Debug("Operation started", "operation", op)

	err := fn()

	duration := time.Since(start)
	if err != nil {
		l.Error(err, "Operation failed",
			"operation", op,
			"duration", duration,
		)
	} else {
		l.Debug("Operation completed",
			"operation", op,
			"duration", duration,
		)
	}

	return err
}

// LogStep logs a step boundary in the tracked operation.
func (l *Logger) LogStep(description string, number, total, ticks int) {
	l.logger.Info().
		Str("step", description).
		Int("step_number", number).
		Int("step_total", total).
		Int("tick_total", ticks).
		Msg("Step started")
}

// StructuredError creates a structured error log entry.
func (l *Logger) StructuredError(err error, fields map[string]interface{}) {
	event := l.logger.Error().Err(err)

	for k, v := range fields {
		event = event.Interface(k, v)
	}

	event.
		Str("error_type", fmt.Sprintf("%T", err)).
		Msg("Structured error occurred")
}

// SetLevel changes the logger level dynamically.
func (l *Logger) SetLevel(level string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	l.logger = l.logger.Level(parsedLevel)
	return nil
}

// NewDevelopmentConfig creates a config suitable for development.
func NewDevelopmentConfig() *Config {
	return &Config{
		Level:         "debug",
		Output:        os.Stderr,
		Pretty:        true,
		IncludeCaller: true,
		Fields: map[string]interface{}{
			"env": "development",
		},
		TimeFormat: "15:04:05",
	}
}

// NewProductionConfig creates a config suitable for production.
func NewProductionConfig() *Config {
	return &Config{
		Level:         "info",
		Output:        os.Stderr,
		Pretty:        false,
		IncludeCaller: false,
		Fields: map[string]interface{}{
			"env": "production",
		},
		TimeFormat: time.RFC3339,
	}
}

// FileWriter is an io.Writer over a log file with size-based rotation.
type FileWriter struct {
	file       *os.File
	filename   string
	maxSize    int64
	maxBackups int
}

// NewFileWriter creates a new file writer. maxSize is in bytes.
func NewFileWriter(filename string, maxSize int64, maxBackups int) (*FileWriter, error) {
	fw := &FileWriter{
		filename:   filename,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}

	if err := fw.openFile(); err != nil {
		return nil, err
	}

	return fw, nil
}

// Write implements io.Writer.
func (fw *FileWriter) Write(p []byte) (n int, err error) {
	if fw.file != nil && fw.maxSize > 0 {
		info, err := fw.file.Stat()
		if err == nil && info.Size()+int64(len(p)) > fw.maxSize {
			if err := fw.rotate(); err != nil {
				return 0, err
			}
		}
	}

	return fw.file.Write(p)
}

// Close closes the file writer.
func (fw *FileWriter) Close() error {
	if fw.file != nil {
		return fw.file.Close()
	}
	return nil
}

func (fw *FileWriter) openFile() error {
	dir := filepath.Dir(fw.filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(fw.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	fw.file = file
	return nil
}

func (fw *FileWriter) rotate() error {
	if err := fw.file.Close(); err != nil {
		return err
	}

	for i := fw.maxBackups - 1; i > 0; i-- {
		oldName := fmt.Sprintf("%s.%d", fw.filename, i)
		newName := fmt.Sprintf("%s.%d", fw.filename, i+1)
		_ = os.Rename(oldName, newName)
	}

	if err := os.Rename(fw.filename, fw.filename+".1"); err != nil {
		return err
	}

	return fw.openFile()
}
