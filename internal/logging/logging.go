// Package logging builds the zap logger shared by binaries.
package logging

import (
	"fmt"
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config mirrors the log: block of the YAML configuration.
type Config struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	FileName   string `yaml:"file-name"`
	MaxSize    int    `yaml:"max-size" validate:"gte=0"`
	MaxBackups int    `yaml:"max-backups" validate:"gte=0"`
	MaxAge     int    `yaml:"max-age" validate:"gte=0"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
	JSON       bool   `yaml:"json"`
}

// DefaultConfig logs info and above to the console.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Console:    true,
	}
}

// New builds a logger writing to the rotating file, the console, or both.
// With neither configured it writes to stderr.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	newEncoder := func() zapcore.Encoder {
		if cfg.JSON {
			return zapcore.NewJSONEncoder(encCfg)
		}
		return zapcore.NewConsoleEncoder(encCfg)
	}

	var cores []zapcore.Core
	if cfg.FileName != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.FileName,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		// Files always get JSON so they can be shipped as-is.
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level))
	}
	if cfg.Console || cfg.FileName == "" {
		cores = append(cores, zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
