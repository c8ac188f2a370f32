package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/composite"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/imageproc"
	"server/internal/infra"
	"server/internal/jobs"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var store storage.ObjectStore
	staticDir := ""
	switch cfg.StorageBackend {
	case infra.StorageBackendS3:
		s3store, err := storage.NewS3Store(ctx, cfg.AWSS3Bucket, cfg.AWSRegion, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure s3 storage")
		}
		store = s3store
	case infra.StorageBackendFile:
		fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure file storage")
		}
		store = fileStore
		staticDir = fileStore.BasePath()
	}

	fetcher := imageproc.NewFetcher(cfg.FetchTimeout)

	var remover imageproc.Remover
	if cfg.RemBGURL != "" {
		remover = imageproc.NewHTTPRemover(cfg.RemBGURL, cfg.FetchTimeout*3)
	} else {
		logger.Warn().Msg("REMBG_URL not set, backgrounds will pass through unchanged")
		remover = imageproc.PassthroughRemover{}
	}

	cache := imageproc.NewCache(store, fetcher, remover, cfg.ImagePrefix, logger)
	batch := imageproc.NewBatchRunner(cache, cfg.BatchMaxItems)
	engine := composite.NewEngine(store, fetcher, cfg.CompositePrefix, logger)
	tracker := jobs.NewTracker()

	app := handlers.NewApp(cache, batch, engine, tracker, logger, cfg.BatchMaxItems)
	router := httpapi.NewRouter(app, cfg.AllowedOrigins, staticDir, cfg.RateLimitPerMin)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
