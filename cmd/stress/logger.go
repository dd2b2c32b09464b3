package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var errInvalidLogLevel = errors.New("invalid log level")

func newLogger(cfg logConfig) (*zap.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = defaultLogLevel
	}

	atomicLevel := zap.NewAtomicLevel()

	err := atomicLevel.UnmarshalText([]byte(level))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.LevelKey = "level"
	encoderCfg.CallerKey = "caller"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.File == "" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = atomicLevel
		zapCfg.EncoderConfig = encoderCfg

		logger, err := zapCfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build zap logger: %w", err)
		}

		return logger, nil
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, atomicLevel)

	return zap.New(core, zap.AddCaller()), nil
}
