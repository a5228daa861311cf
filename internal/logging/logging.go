package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It is a no-op until InitLogger runs so
// packages can log from tests without setup.
var Logger = zap.NewNop()

// InitLogger builds a JSON logger writing to stdout and to a rotating file
// under logDir. level is one of DEBUG, INFO, WARN, ERROR.
func InitLogger(logDir, level string) error {
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	lvl := ParseLevel(level)
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename: filepath.Join(logDir, "healthgenie.log"),
		MaxSize:  100,
		MaxAge:   28,
		Compress: true,
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lvl),
		zapcore.NewCore(encoder, fileSink, lvl),
	)
	Logger = zap.New(core, zap.AddCaller())
	return nil
}

// ParseLevel maps a LOG_LEVEL string to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zap.DebugLevel
	case "WARN", "WARNING":
		return zap.WarnLevel
	case "ERROR":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Sync flushes buffered entries; call on shutdown.
func Sync() {
	_ = Logger.Sync()
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	sessionID, _ := ctx.Value(sessionIDKey{}).(string)

	return func() {
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if sessionID != "" {
			fields = append(fields, zap.String("session_id", sessionID))
		}
		Logger.Debug("Function timed", fields...)
	}
}

type sessionIDKey struct{}

// WithSessionID tags ctx so LogDuration and FromContext include the session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// FromContext returns Logger annotated with the session id carried by ctx, if any.
func FromContext(ctx context.Context) *zap.Logger {
	if sessionID, ok := ctx.Value(sessionIDKey{}).(string); ok && sessionID != "" {
		return Logger.With(zap.String("session_id", sessionID))
	}
	return Logger
}
