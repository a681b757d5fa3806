// Package logging builds the zap loggers used by the wasmship binaries.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wasmship/wasmship/errors"
)

// Config selects log level, console output and an optional rotating file.
type Config struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
	// File enables a rotating log file in addition to the console.
	File       string `yaml:"file,omitempty"`
	MaxSize    int    `yaml:"max_size_mb,omitempty" validate:"gte=0"`
	MaxAge     int    `yaml:"max_age_days,omitempty" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"gte=0"`
	Compress   bool   `yaml:"compress,omitempty"`
	// DisableConsole mutes stderr output, e.g. for the interactive client.
	DisableConsole bool `yaml:"disable_console,omitempty"`
}

// Default logs info and above to stderr.
func Default() Config {
	return Config{Level: "info", Format: "console"}
}

// New builds a logger from cfg. The returned closer flushes the logger and
// closes the log file.
func New(cfg Config) (*zap.Logger, io.Closer, error) {
	return newWithConsole(cfg, os.Stderr)
}

func newWithConsole(cfg Config, console zapcore.WriteSyncer) (*zap.Logger, io.Closer, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, errors.Config("log level "+cfg.Level, err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if !cfg.DisableConsole {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(encoder(cfg.Format, consoleCfg), zapcore.Lock(console), level))
	}

	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,    // megabytes
			MaxAge:     cfg.MaxAge,     // days
			MaxBackups: cfg.MaxBackups, // files
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, &closer{logger: logger, file: file}, nil
}

func encoder(format string, cfg zapcore.EncoderConfig) zapcore.Encoder {
	if format == "json" {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}

type closer struct {
	logger *zap.Logger
	file   *lumberjack.Logger
}

func (c *closer) Close() error {
	// Sync on a terminal stderr reports EINVAL on some platforms.
	_ = c.logger.Sync()
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}
