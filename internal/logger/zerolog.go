package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements Logger on top of zerolog. Every event carries the
// component that emitted it.
type ZerologAdapter struct {
	logger zerolog.Logger
}

func NewZerolog(writer io.Writer, level zerolog.Level) *ZerologAdapter {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldInteger = true

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

// NewConsoleLogger writes human readable lines to stderr so stdout stays
// reserved for the batch summary.
func NewConsoleLogger(level zerolog.Level) *ZerologAdapter {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			"component",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"component"},
	}
	return NewZerolog(consoleWriter, level)
}

// ParseLevel accepts debug, info, warn, error and disabled
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	emit(z.logger.Info(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	emit(z.logger.Error(), component, fields).Err(err).Msg("operation failed")
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	emit(z.logger.Warn(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	emit(z.logger.Debug(), component, fields).Msg(message)
}

// Skipped logs at warn level with the file, the failure class and the cause
func (z *ZerologAdapter) Skipped(component, file, reason string, err error) {
	emit(z.logger.Warn(), component, nil).
		Str("file", file).
		Str("reason", reason).
		Err(err).
		Msg("skipping file")
}

// emit attaches the component and fields to e. Errors and Stringers are
// written as text; a disabled event is returned untouched.
func emit(e *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	if !e.Enabled() {
		return e
	}
	e = e.Str("component", component)
	for k, v := range fields {
		switch v := v.(type) {
		case error:
			e = e.AnErr(k, v)
		case fmt.Stringer:
			e = e.Stringer(k, v)
		default:
			e = e.Interface(k, v)
		}
	}
	return e
}
