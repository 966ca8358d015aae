package main

import (
	"context"
	"net/http"

	"mclink/internal/application"
	"mclink/internal/authority"
	"mclink/internal/clock"
	"mclink/internal/delivery/ingest"
	"mclink/internal/delivery/telegram"
	"mclink/internal/ratelimit"
	"mclink/internal/repository"
	"mclink/pkg/config"
	"mclink/pkg/logger"
	service "mclink/pkg/services"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.ReadEnvConfig(&cfg); err != nil {
		panic(err)
	}

	log := logger.NewLogger(&logger.Config{Level: cfg.LogLevel})
	clk := clock.New()

	repos, err := repository.NewRepository(&cfg.Store, afero.NewOsFs(), clk, log)
	if err != nil {
		log.Error("failed to init storage: %s", err.Error())
		return
	}
	defer repos.Close()

	log.Info("Serving %d links from %s", len(repos.Links.All()), repos.Links.Path())

	auth, err := authority.New(&cfg.Auth, repos.Codes, &http.Client{}, log)
	if err != nil {
		log.Error("failed to init verification: %s", err.Error())
		return
	}
	log.Info("Verification mode: %s", auth.Mode())

	limiter := ratelimit.NewSlidingWindow(cfg.RateLimitMax, cfg.RateLimitWindow, clk)
	services := application.NewService(repos, auth, limiter, clk, cfg.CodeTTL, log)

	manager := service.NewManager(log)
	manager.AddService(telegram.NewBot(cfg.BotToken, services.LinkService, log))

	if cfg.Ingest.Enabled() {
		if auth.Mode() == authority.ModeLocal {
			manager.AddService(ingest.NewServer(&cfg.Ingest, services.CodeService, log))
		} else {
			log.Warn("INGEST_ADDR is ignored in remote mode")
		}
	}

	if err := manager.Run(context.Background()); err != nil {
		log.Error("failed to start services: %s", err.Error())
	}

	if err := repos.Links.Save(); err != nil {
		log.Error("failed to save links on shutdown: %s", err.Error())
	}
	log.Info("Bot Stopped")
}
