package utils

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig configures InitLogger.
type LoggerConfig struct {
	// Format is "json" or "console".
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// EnableColors colours level names in console output.
	EnableColors bool
	Level        zapcore.Level
}

// InitLogger builds the process logger.
func InitLogger(config ...LoggerConfig) *zap.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		if cfg.EnableColors {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(cfg.Output), zap.NewAtomicLevelAt(cfg.Level))
	return zap.New(core, zap.AddCaller()).Named("learnflow")
}
