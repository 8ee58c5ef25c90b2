package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
)

// Setup installs a JSON logger on stdout at the given level as the slog
// default and returns it.
func Setup(level string) *slog.Logger {
	logger := slog.New(NewJSONHandler(os.Stdout, level))
	slog.SetDefault(logger)
	return logger
}

func NewJSONHandler(w io.Writer, level string) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogError logs err at error level, lifting the code and context of oops
// errors into attributes.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs = append(attrs, "error", err.Error())
	if oe, ok := oops.AsOops(err); ok {
		if code := oe.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		for k, v := range oe.Context() {
			attrs = append(attrs, k, v)
		}
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
