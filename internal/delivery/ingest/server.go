// Package ingest is the HTTP API the game-server plugin uses in local mode:
// it hands newly issued codes to the bot and looks up existing links.
package ingest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mclink/internal/application"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type Config struct {
	Addr   string  `env:"ADDR" envDefault:""`
	APIKey string  `env:"API_KEY" envDefault:""`
	RPS    float64 `env:"RPS" envDefault:"20"`
	Burst  int     `env:"BURST" envDefault:"40"`
}

// Enabled reports whether the API should be served at all
func (c *Config) Enabled() bool {
	return c.Addr != ""
}

type Server struct {
	cfg    *Config
	codes  application.CodeService
	logger application.Logger
	server *http.Server
}

func NewServer(cfg *Config, codes application.CodeService, logger application.Logger) *Server {
	return &Server{
		cfg:    cfg,
		codes:  codes,
		logger: logger,
	}
}

func (s *Server) Init() error {
	if s.cfg.APIKey == "" {
		return errors.New("ingest api key is not set")
	}

	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           NewRouter(s.cfg, s.codes, s.logger),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}
	return nil
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("Ingest API listening on %s", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("ingest server error: %s", err.Error())
	}
}

func (s *Server) Stop() {
	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shut down ingest server: %s", err.Error())
		return
	}
	s.logger.Info("Ingest API stopped")
}
