package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// sendMessage replies with Markdown text and returns the sent message id,
// zero when sending failed.
func (b *Bot) sendMessage(chatID int64, text string) int {
	if text == "" {
		return 0
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Error("failed to send message to %d: %s", chatID, err.Error())
		return 0
	}
	return sent.MessageID
}

// editMessage replaces a previously sent message, or sends a new one when
// there is nothing to edit.
func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.sendMessage(chatID, text)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message %d in %d: %s", messageID, chatID, err.Error())
	}
}

func (b *Bot) sendError(chatID, userID int64, err error) {
	b.sendMessage(chatID, errorMessage(err, b.links.RetryAfter(userID)))
}
