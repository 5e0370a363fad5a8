package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger for the given environment.
// Production emits JSON lines; everything else gets the console writer.
func SetupLogger(environment string) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch environment {
	case "production":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	case "test":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
