package zaplogger

import (
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logger struct{ l *zap.Logger }

// Wrap adapts an already configured zap logger (see logging.NewLogger) to observability.Logger.
func Wrap(l *zap.Logger, fixed ...observability.Field) observability.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	// Skip the level method and write so callers report the application frame.
	l = l.WithOptions(zap.AddCallerSkip(2))
	if len(fixed) > 0 {
		l = l.With(toZapFields(fixed)...)
	}
	return &logger{l: l}
}

func (z *logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return z
	}
	return &logger{l: z.l.With(toZapFields(fields)...)}
}

func (z *logger) Debug(msg string, fields ...observability.Field) {
	z.write(zapcore.DebugLevel, msg, fields)
}
func (z *logger) Info(msg string, fields ...observability.Field) {
	z.write(zapcore.InfoLevel, msg, fields)
}
func (z *logger) Warn(msg string, fields ...observability.Field) {
	z.write(zapcore.WarnLevel, msg, fields)
}
func (z *logger) Error(msg string, fields ...observability.Field) {
	z.write(zapcore.ErrorLevel, msg, fields)
}

// write converts fields only when the level is enabled.
func (z *logger) write(lvl zapcore.Level, msg string, fields []observability.Field) {
	if ce := z.l.Check(lvl, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func (z *logger) Sync() error {
	return z.l.Sync()
}

func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		out = append(out, toZapField(f))
	}
	return out
}

func toZapField(f observability.Field) zap.Field {
	switch v := f.Value.(type) {
	case error:
		return zap.NamedError(f.Key, v)
	case string:
		return zap.String(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case int64:
		return zap.Int64(f.Key, v)
	case float64:
		return zap.Float64(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case time.Time:
		return zap.Time(f.Key, v)
	case []string:
		return zap.Strings(f.Key, v)
	case fmt.Stringer:
		// money.Money, order.Status and friends log as their text form.
		return zap.Stringer(f.Key, v)
	default:
		return zap.Any(f.Key, v)
	}
}
