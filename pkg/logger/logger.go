package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	once         sync.Once
)

// Init initialise le logger global (une seule fois).
func Init(level string) error {
	var err error
	once.Do(func() {
		globalLogger, err = newLogger(level)
	})
	return err
}

// Get renvoie le logger global, initialisé au niveau LOG_LEVEL si besoin.
func Get() *zap.Logger {
	if globalLogger == nil {
		_ = Init(getDefaultLevel())
	}
	return globalLogger
}

// Sync vide les entrées en attente.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	// stdout reste réservé au résumé du rapport
	config.OutputPaths = []string{"stderr"}

	return config.Build()
}

func getDefaultLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}

// Debug journalise au niveau debug via le logger global.
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Info journalise au niveau info via le logger global.
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn journalise au niveau warn via le logger global.
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Error journalise au niveau error via le logger global.
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// Fatal journalise puis termine le processus.
func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
}
