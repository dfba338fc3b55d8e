package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output io.Writer
}

// New builds the process logger. Unknown levels fall back to info and any
// format other than console is json.
func New(cfg Config) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(cfg.Level)))); err != nil {
		level = zapcore.InfoLevel
	}

	console := strings.EqualFold(strings.TrimSpace(cfg.Format), "console")
	var encoderConfig zapcore.EncoderConfig
	if console {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if console {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}
