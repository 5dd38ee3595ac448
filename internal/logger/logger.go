package logger

import (
	"io"
	stdlog "log"
	"strings"

	"github.com/rs/zerolog"
	"github.com/webrewind/webrewind/internal/errorwrapper"
)

// LogFormat represents available log formats.
type LogFormat int

const (
	FormatConsole LogFormat = iota
	FormatJSON
)

// String returns string representation of LogFormat.
func (lf LogFormat) String() string {
	if lf == FormatJSON {
		return "json"
	}
	return "console"
}

// LoggerConfig holds configuration for logger setup.
type LoggerConfig struct {
	Level         zerolog.Level
	Format        LogFormat
	EnableConsole bool
	EnableFile    bool
	FilePath      string
	MaxSizeMB     int
	MaxBackups    int
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:         zerolog.InfoLevel,
		Format:        FormatConsole,
		EnableConsole: true,
		EnableFile:    false,
		MaxSizeMB:     100,
		MaxBackups:    3,
	}
}

// LoggerBuilder provides a fluent interface for building loggers.
type LoggerBuilder struct {
	config  LoggerConfig
	factory *WriterFactory
}

// NewLoggerBuilder creates a new logger builder.
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:  DefaultLoggerConfig(),
		factory: NewWriterFactory(),
	}
}

// WithLevel sets the minimum level from its string form.
func (lb *LoggerBuilder) WithLevel(levelStr string) *LoggerBuilder {
	if level, err := zerolog.ParseLevel(strings.ToLower(levelStr)); err == nil {
		lb.config.Level = level
	}
	return lb
}

// WithFormat sets the output format from its string form.
func (lb *LoggerBuilder) WithFormat(formatStr string) *LoggerBuilder {
	if strings.ToLower(formatStr) == "json" {
		lb.config.Format = FormatJSON
	} else {
		lb.config.Format = FormatConsole
	}
	return lb
}

// WithFile enables rotated file output at the given path.
func (lb *LoggerBuilder) WithFile(path string, maxSizeMB, maxBackups int) *LoggerBuilder {
	lb.config.EnableFile = path != ""
	lb.config.FilePath = path
	if maxSizeMB > 0 {
		lb.config.MaxSizeMB = maxSizeMB
	}
	if maxBackups > 0 {
		lb.config.MaxBackups = maxBackups
	}
	return lb
}

// WithConsole toggles console output.
func (lb *LoggerBuilder) WithConsole(enabled bool) *LoggerBuilder {
	lb.config.EnableConsole = enabled
	return lb
}

// Build creates the logger instance.
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if lb.config.EnableFile && lb.config.FilePath == "" {
		return zerolog.Nop(), errorwrapper.NewValidationError("file_path", lb.config.FilePath, "file path required when file logging enabled")
	}

	var writers []io.Writer
	if lb.config.EnableConsole {
		writers = append(writers, lb.factory.CreateConsoleWriter(lb.config.Format))
	}
	if lb.config.EnableFile {
		writers = append(writers, lb.factory.CreateFileWriter(lb.config))
	}
	if len(writers) == 0 {
		return zerolog.Nop(), errorwrapper.NewError("no output writers configured")
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	instance := zerolog.New(multiWriter).
		Level(lb.config.Level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(instance)
	stdlog.SetFlags(0)

	return instance, nil
}
