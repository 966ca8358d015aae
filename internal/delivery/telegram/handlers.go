package telegram

import (
	"context"
	"errors"
	"strings"

	"mclink/internal/application"
	"mclink/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := chatID
	username := ""
	if msg.From != nil {
		userID = msg.From.ID
		username = msg.From.UserName
	}

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, chatID, userID, username)
	case "link":
		b.handleLink(ctx, chatID, userID, msg.CommandArguments())
	case "status":
		b.handleStatus(ctx, chatID, userID)
	case "unlink":
		b.handleUnlink(ctx, chatID, userID)
	case "help":
		b.sendMessage(chatID, helpMessage(b.links.Help(ctx)))
	default:
		b.logger.Debug("Ignoring unknown command /%s from %d", msg.Command(), userID)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64, username string) {
	report, err := b.links.Start(ctx, userID)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}
	b.sendMessage(chatID, welcomeMessage(username, report))
}

func (b *Bot) handleLink(ctx context.Context, chatID, userID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.sendMessage(chatID, linkUsageMessage)
		return
	}
	code := fields[0]

	// only a request that will actually be verified gets the "checking" notice
	if _, ok := application.CanonicalCode(code); !ok || b.links.RetryAfter(userID) > 0 {
		b.sendMessage(chatID, b.linkReply(ctx, userID, code))
		return
	}

	checking := b.sendMessage(chatID, checkingCodeMessage)
	b.editMessage(chatID, checking, b.linkReply(ctx, userID, code))
}

func (b *Bot) linkReply(ctx context.Context, userID int64, code string) string {
	record, err := b.links.Link(ctx, userID, code)
	if err != nil {
		if errors.Is(err, models.ErrRateLimited) {
			b.logger.Warn("Rate limited link attempt by %d", userID)
		}
		return errorMessage(err, b.links.RetryAfter(userID))
	}
	return linkSuccessMessage(record)
}

func (b *Bot) handleStatus(ctx context.Context, chatID, userID int64) {
	report, err := b.links.Status(ctx, userID)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}
	b.sendMessage(chatID, statusMessage(report, b.location))
}

func (b *Bot) handleUnlink(ctx context.Context, chatID, userID int64) {
	result, err := b.links.Unlink(ctx, userID)
	if err != nil {
		b.sendError(chatID, userID, err)
		return
	}
	b.sendMessage(chatID, unlinkMessage(result))
}
