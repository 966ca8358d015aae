package application

import (
	"time"

	"mclink/internal/authority"
	"mclink/internal/clock"
	"mclink/internal/repository"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Limiter throttles requests per chat identity
type Limiter interface {
	Allow(identity int64) bool
	RetryAfter(identity int64) time.Duration
}

type Service struct {
	LinkService LinkService
	CodeService CodeService
}

func NewService(repos *repository.Repository, auth authority.Authority, limiter Limiter, clk clock.Clock, codeTTL time.Duration, logger Logger) *Service {
	return &Service{
		LinkService: NewLinkServiceImpl(repos.Links, auth, limiter, clk, codeTTL, logger),
		CodeService: NewCodeServiceImpl(repos.Codes, repos.Links, clk, codeTTL, logger),
	}
}
