package telegram

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"mclink/internal/application"
	"mclink/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	statusTimeLayout = "02.01.2006 15:04"

	checkingCodeMessage = "🔄 *Проверяю код...*"
	linkUsageMessage    = "❌ *Неверный формат команды!*\n\nИспользуйте: `/link ВАШ_КОД`"

	retryInstructions = "🔄 Попробуйте еще раз:\n" +
		"1. Зайдите на сервер\n" +
		"2. Получите новый код привязки\n" +
		"3. Отправьте: `/link НОВЫЙ_КОД`"

	commandsLinked = "📋 *Доступные команды:*\n" +
		"/help - показать помощь\n" +
		"/status - проверить статус привязки\n" +
		"/unlink - отвязать аккаунт"

	commandsUnlinked = "📋 *Доступные команды:*\n" +
		"/help - показать помощь\n" +
		"/status - проверить статус привязки"
)

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

func welcomeMessage(username string, report *application.StatusReport) string {
	if report.Linked() {
		if username == "" {
			username = "Неизвестно"
		}
		return fmt.Sprintf("👋 *Добро пожаловать, %s!*\n\n"+
			"✅ Ваш аккаунт уже привязан к игроку: *%s*\n\n%s",
			escape(username), escape(report.Record.PlayerName), commandsLinked)
	}

	return "👋 *Добро пожаловать в бота привязки аккаунтов!*\n\n" +
		"❌ Ваш Telegram не привязан к игровому аккаунту.\n\n" +
		"🎮 *Чтобы привязать аккаунт:*\n" +
		"1. Зайдите на сервер Minecraft\n" +
		"2. Получите код привязки (вас кикнет с кодом)\n" +
		"3. Отправьте команду: `/link ВАШ_КОД`\n\n" +
		commandsUnlinked
}

func linkSuccessMessage(record *models.LinkRecord) string {
	return fmt.Sprintf("✅ *Привязка успешна!*\n\n"+
		"🎮 Ваш Telegram привязан к игроку: *%s*\n\n"+
		"Теперь вы можете заходить на сервер!", escape(record.PlayerName))
}

func statusMessage(report *application.StatusReport, loc *time.Location) string {
	if !report.Linked() {
		return "❌ *Статус привязки: Не привязан*\n\n" +
			"🎮 Ваш Telegram не привязан к игровому аккаунту.\n\n" +
			"Для привязки используйте команду /help"
	}

	return fmt.Sprintf("✅ *Статус привязки: Активна*\n\n"+
		"🎮 Привязанный игрок: *%s*\n"+
		"🕐 Проверено: %s\n"+
		"🔗 Сервер: %s",
		escape(report.Record.PlayerName),
		report.CheckedAt.In(loc).Format(statusTimeLayout),
		availability(report.AuthorityUp))
}

func unlinkMessage(result *application.UnlinkResult) string {
	if !result.LocalOnly {
		return fmt.Sprintf("✅ *Аккаунт отвязан*\n\n"+
			"🎮 Привязка к игроку *%s* удалена.\n\n"+
			"Чтобы привязать аккаунт снова, получите новый код на сервере.",
			escape(result.PlayerName))
	}

	return fmt.Sprintf("⚠️ *Внимание!*\n\n"+
		"🎮 Найдена привязка к игроку: *%s*\n\n"+
		"❗ Отвязка происходит на сервере автоматически при следующем входе.\n"+
		"Локальный кеш бота очищен.\n\n"+
		"⚠️ При следующем входе на сервер потребуется заново привязать аккаунт.",
		escape(result.PlayerName))
}

func helpMessage(info *application.HelpInfo) string {
	return fmt.Sprintf("🤖 *Помощь по боту привязки аккаунтов*\n\n"+
		"📋 *Доступные команды:*\n"+
		"/start - приветствие и информация\n"+
		"/link КОД - привязать аккаунт по коду\n"+
		"/help - показать эту помощь\n"+
		"/status - проверить статус привязки\n"+
		"/unlink - отвязать аккаунт\n\n"+
		"🎮 *Как привязать аккаунт:*\n"+
		"1. Попробуйте зайти на сервер\n"+
		"2. Вас кикнет с кодом привязки\n"+
		"3. Отправьте боту: `/link ВАШ_КОД`\n"+
		"4. Заходите на сервер!\n\n"+
		"⚠️ Коды действительны только %d мин.!\n\n"+
		"🔗 *Статус сервера:* %s",
		int(info.CodeTTL.Minutes()), availability(info.AuthorityUp))
}

func errorMessage(err error, retryAfter time.Duration) string {
	var (
		already  *models.AlreadyLinkedError
		rejected *models.RemoteRejectedError
	)

	switch {
	case errors.Is(err, models.ErrRateLimited):
		return fmt.Sprintf("⚠️ *Слишком много запросов!*\n\nПодождите %d сек. перед следующей командой.", seconds(retryAfter))
	case errors.Is(err, models.ErrInvalidCodeFormat):
		return "❌ *Неверный формат кода!*\n\nКод должен содержать только латинские буквы и цифры (8 символов)."
	case errors.As(err, &already):
		return fmt.Sprintf("⚠️ Ваш Telegram уже привязан к игроку: *%s*\n\nИспользуйте /unlink чтобы отвязать аккаунт.", escape(already.PlayerName))
	case errors.Is(err, models.ErrAlreadyLinked):
		return "⚠️ Ваш Telegram уже привязан к игроку.\n\nИспользуйте /unlink чтобы отвязать аккаунт."
	case errors.Is(err, models.ErrNotLinked):
		return "❌ *Ваш Telegram не привязан к игровому аккаунту!*"
	case errors.Is(err, models.ErrCodeExpired):
		return "❌ *Срок действия кода истек*\n\n" + retryInstructions
	case errors.Is(err, models.ErrCodeNotFound):
		return "❌ *Неверный или истекший код*\n\n" + retryInstructions
	case errors.As(err, &rejected):
		reason := strings.TrimSpace(rejected.Reason)
		if reason == "" {
			reason = "Неверный или истекший код"
		}
		return fmt.Sprintf("❌ *%s*\n\n%s", escape(reason), retryInstructions)
	case errors.Is(err, models.ErrRemoteUnavailable):
		return "❌ *Сервер недоступен!*\n\nПопробуйте позже или обратитесь к администратору."
	default:
		return "❌ *Ошибка сервера!*\n\nПопробуйте позже или обратитесь к администратору."
	}
}

func availability(up bool) string {
	if up {
		return "🟢 Доступен"
	}
	return "🔴 Недоступен"
}

// seconds rounds d up to whole seconds, never below one
func seconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
