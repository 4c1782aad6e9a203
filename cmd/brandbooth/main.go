// Command brandbooth runs the generation and quota service behind the
// kids' entrepreneurship toolkit.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := newLogger()

	root := &cobra.Command{
		Use:           "brandbooth",
		Short:         "Logo generation and quota service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(os.Getenv("BRANDBOOTH_LOG_LEVEL")); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
