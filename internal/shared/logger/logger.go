package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// File configura a cópia do log em arquivo rotacionado; Path vazio desliga
type File struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func New(serviceName string, env string) (*zap.Logger, error) {
	return NewWithFile(serviceName, env, File{})
}

// NewWithFile igual a New, mas duplica as entradas em JSON num arquivo com rotação
func NewWithFile(serviceName string, env string, f File) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	// sempre garantir que serviço e env entrem como campos padrão
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	opts := []zap.Option{
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	}
	if f.Path != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(cfg.EncoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   f.Path,
				MaxSize:    f.MaxSizeMB,
				MaxBackups: f.MaxBackups,
				MaxAge:     f.MaxAgeDays,
				Compress:   true,
			}),
			cfg.Level,
		)
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	l, err := cfg.Build(opts...)
	if err != nil {
		return nil, err
	}
	return l, nil
}
