// Package logging provides structured logging configuration.
package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration options.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|console
}

// New creates a new configured zap logger.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
			return nil, err
		}
	}

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "json"
	}

	var zcfg zap.Config
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	return logger.With(zap.String("service", "bipagem")), nil
}

// Sync flushes any buffered log entries.
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Level:  getenv("BIPAGEM_LOG_LEVEL", "info"),
		Format: getenv("BIPAGEM_LOG_FORMAT", "json"),
	}
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Port returns a zap field for the port number.
func Port(port int) zap.Field { return zap.Int("port", port) }

// Addr returns a zap field for an address.
func Addr(addr string) zap.Field { return zap.String("addr", addr) }

// Platform returns a zap field for a marketplace platform id.
func Platform(platform string) zap.Field { return zap.String("platform", platform) }

// Barcode returns a zap field for a scanned code.
func Barcode(code string) zap.Field { return zap.String("barcode", code) }

// Source returns a zap field for a data source id.
func Source(id string) zap.Field { return zap.String("source", id) }

// OrderID returns a zap field for a marketplace order id.
func OrderID(id string) zap.Field { return zap.String("order_id", id) }

// RequestID returns a zap field for a request correlation id.
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// Method returns a zap field for an HTTP method.
func Method(method string) zap.Field { return zap.String("method", method) }

// Path returns a zap field for a URL path.
func Path(path string) zap.Field { return zap.String("path", path) }

// Status returns a zap field for an HTTP status code.
func Status(code int) zap.Field { return zap.Int("status", code) }

// Latency returns a zap field for a request duration.
func Latency(d time.Duration) zap.Field { return zap.Duration("latency", d) }

// TLSMode returns a zap field for TLS mode.
func TLSMode(mode string) zap.Field { return zap.String("tls_mode", mode) }
