// Package logging собирает zerolog-логгер по конфигурации.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type Config struct {
	Level   string `yaml:"level" env:"LEVEL" validate:"omitempty,oneof=trace debug info warn warning error disabled TRACE DEBUG INFO WARN WARNING ERROR DISABLED"`
	Console bool   `yaml:"console" env:"CONSOLE"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Console: true}
}

// New возвращает логгер, пишущий в w (nil - stderr).
// Console - человекочитаемый вывод, иначе JSON по строке на событие.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg.Level, zerolog.InfoLevel)).
		With().Timestamp().
		Logger()
}

// ParseLevel разбирает имя уровня без учёта регистра; неизвестное имя даёт def.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED":
		return zerolog.Disabled
	default:
		return def
	}
}
