// Command musees is the command-line client of the museum directory.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"museum_directory/internal/adapters/cli"
	"museum_directory/internal/adapters/observability"
	"museum_directory/internal/app"
	"museum_directory/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewCLILogger(cfg.AppEnv == "dev")

	catalog, err := shared.NewCatalog(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog setup failed")
	}
	q := app.NewQueryService(catalog, shared.NewCache(cfg), cfg.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(q).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
