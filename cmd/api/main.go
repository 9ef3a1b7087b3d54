package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "museum_directory/internal/adapters/http_server"
	"museum_directory/internal/adapters/observability"
	"museum_directory/internal/app"
	"museum_directory/internal/shared"
	mysqlrepo "museum_directory/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	catalog, err := shared.NewCatalog(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog setup failed")
	}
	q := app.NewQueryService(catalog, shared.NewCache(cfg), cfg.CacheTTL)
	h := &server.Handlers{Catalog: q}

	// favorites need MySQL; the catalog works without it
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		h.Favorites = app.NewFavoritesService(mysqlrepo.New(db), q)
	} else {
		log.Warn().Msg("MYSQL_DSN is empty, favorites disabled")
	}

	srv := server.New(15 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("schema", string(cfg.CatalogSchema)).
			Bool("mock_fallback", cfg.MockFallback).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("API stopped")
}
