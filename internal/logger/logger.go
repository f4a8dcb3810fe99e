package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger глобальный логгер сервиса
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init настраивает глобальный логгер
func Init(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	var output io.Writer = os.Stdout

	// Читаемый вывод при локальной разработке
	if os.Getenv("ENV") == "development" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Str("service", "ecoport").
		Logger()

	Logger.Info().
		Str("level", logLevel.String()).
		Msg("logger initialized")
}

// WithComponent возвращает логгер с полем component
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithCycle возвращает логгер с идентификатором цикла обновления
func WithCycle(component, cycleID string) zerolog.Logger {
	return Logger.With().Str("component", component).Str("cycle_id", cycleID).Logger()
}
