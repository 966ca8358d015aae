package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mclink/internal/application"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	pollTimeout    = 60
	handlerTimeout = 30 * time.Second
)

// botAPI is the part of *tgbotapi.BotAPI the bot relies on
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api      botAPI
	token    string
	links    application.LinkService
	logger   application.Logger
	location *time.Location

	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

func NewBot(token string, links application.LinkService, logger application.Logger) *Bot {
	return &Bot{
		token:    token,
		links:    links,
		logger:   logger,
		location: time.Local,
	}
}

func (b *Bot) Init() error {
	if b.api != nil {
		return nil
	}

	api, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.api = api

	b.logger.Info("Telegram bot authorized on account %s", api.Self.UserName)
	return nil
}

// Run polls for updates until ctx is done or Stop is called. Each message is
// handled in its own goroutine so a slow verification never blocks others.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot started")

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			if !b.track() {
				return
			}
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()

				hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
				defer cancel()
				b.handleMessage(hctx, msg)
			}(update.Message)
		}
	}
}

// track registers a new handler unless Stop has begun.
func (b *Bot) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopping {
		return false
	}
	b.wg.Add(1)
	return true
}

// Stop ends polling and waits for in-flight handlers.
func (b *Bot) Stop() {
	b.mu.Lock()
	if b.stopping {
		b.mu.Unlock()
		return
	}
	b.stopping = true
	b.mu.Unlock()

	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	b.wg.Wait()
	b.logger.Info("Telegram bot stopped")
}
