package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// Options configures SetupLogger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// Path, when set, additionally writes JSON logs to a rotated file.
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stdout and Stderr default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// SetupLogger installs the default slog logger and routes library warnings
// through zerolog on stderr.
func SetupLogger(opts Options) error {
	level, err := ToLogLevel(opts.Level)
	if err != nil {
		return err
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var out io.Writer = stdout
	if opts.Path != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		out = io.MultiWriter(stdout, &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		})
	}

	ops := slog.HandlerOptions{
		AddSource: level == slog.LevelDebug,
		Level:     level,
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{Key: "severity", Value: attr.Value}
			case slog.MessageKey:
				attr = slog.Attr{Key: "message", Value: attr.Value}
			case slog.SourceKey:
				attr = slog.Attr{Key: "logging.googleapis.com/sourceLocation", Value: attr.Value}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(out, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))

	warnLogger := zerolog.New(stderr).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(NewZerologWarnFunc(warnLogger))
	return nil
}

// NewZerologWarnFunc returns a warning sink that writes one structured
// zerolog event per warning. Warnings implementing zerolog.LogObjectMarshaler
// contribute their own fields.
func NewZerologWarnFunc(logger zerolog.Logger) func(error) {
	return func(w error) {
		event := logger.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			event = event.EmbedObject(m)
		}
		event.Msg(w.Error())
	}
}

// ToLogLevel parses a level name.
func ToLogLevel(level string) (slog.Level, error) {
	switch level {
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.NewValidationError("log.level", fmt.Sprintf("invalid log level %q", level), level)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
