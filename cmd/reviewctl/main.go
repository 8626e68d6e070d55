package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"hostaway_reviews/internal/adapters/observability"
	"hostaway_reviews/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
