package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging facade used across the service so that business
// packages never import zap directly.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	With(args ...interface{}) Logger
}

type Config struct {
	Level      string
	Encoding   string
	TimeFormat string
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func New(cfg Config) (Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	if cfg.TimeFormat != "" {
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	} else {
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return &zapLogger{sugar: l.Sugar()}, nil
}

func (l *zapLogger) Debug(args ...interface{})                  { l.sugar.Debug(args...) }
func (l *zapLogger) Debugf(t string, args ...interface{})       { l.sugar.Debugf(t, args...) }
func (l *zapLogger) Info(args ...interface{})                   { l.sugar.Info(args...) }
func (l *zapLogger) Infof(t string, args ...interface{})        { l.sugar.Infof(t, args...) }
func (l *zapLogger) Warn(args ...interface{})                   { l.sugar.Warn(args...) }
func (l *zapLogger) Warnf(t string, args ...interface{})        { l.sugar.Warnf(t, args...) }
func (l *zapLogger) Error(args ...interface{})                  { l.sugar.Error(args...) }
func (l *zapLogger) Errorf(t string, args ...interface{})       { l.sugar.Errorf(t, args...) }
func (l *zapLogger) Fatal(args ...interface{})                  { l.sugar.Fatal(args...) }
func (l *zapLogger) Fatalf(t string, args ...interface{})       { l.sugar.Fatalf(t, args...) }
func (l *zapLogger) With(args ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(args...)}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}
