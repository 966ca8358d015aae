package service

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

type (
	Service interface {
		Init() error
		Run(ctx context.Context)
		Stop()
	}
	Services interface {
		AddService(service ...Service)
		Run(ctx context.Context) error
	}
	Manager struct {
		log      Logger
		services []Service
		wg       sync.WaitGroup
	}
)

func NewManager(log Logger) Services {
	return &Manager{log: log}
}

func (s *Manager) AddService(service ...Service) {
	s.services = append(s.services, service...)
}

// Run starts every service and blocks until ctx is done or the process
// receives SIGINT or SIGTERM. Services started before a failed Init are
// stopped again.
func (s *Manager) Run(ctx context.Context) error {
	s.log.Info("going to start services")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for count, service := range s.services {
		if err := service.Init(); err != nil {
			cancel()
			for i := count - 1; i >= 0; i-- {
				s.services[i].Stop()
			}
			s.wg.Wait()
			return err
		}

		s.wg.Add(1)
		go func(service Service) {
			defer s.wg.Done()
			service.Run(ctx)
		}(service)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		s.log.Info("received signal %s", sig.String())
	case <-ctx.Done():
	}

	cancel()
	s.stop()
	return nil
}

func (s *Manager) stop() {
	s.log.Info("going to stop")
	for i := len(s.services) - 1; i >= 0; i-- {
		s.services[i].Stop()
	}
	s.wg.Wait()
}
