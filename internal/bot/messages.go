// Package bot – user-facing texts
//
// The audience is bilingual, so fixed texts mix Russian and English the
// way the community writes. Validation and denial messages carry both
// languages at once; generation-failure messages follow the provider's
// failure class.
package bot

import (
	"fmt"
	"strings"

	"github.com/pepemp3/shillbot/internal/admission"
	"github.com/pepemp3/shillbot/internal/generator"
)

const welcomeMessage = `🐸 Привет! Я ShillBot - генератор изображений Pepe с промо-сообщениями для $PEPE.MP3!

🎨 **Как пользоваться:**
• Просто напишите мне, что должен делать Pepe
• Пример: "Pepe играет в игры" или "Pepe coding"
• Я создам изображение + промо-сообщение + кнопки для шэринга

🎯 **Система баллов:**
• 🫂 Поделиться в Telegram: +1 балл
• 🐦 Поделиться в Twitter: +2 балла
• /leaderboard - таблица лидеров

🌟 **Дополнительные команды:**
• /moods - список всех настроений
• /promo - получить промо-сообщение

Попробуйте написать что-то вроде "грустный Pepe" или "happy Pepe cooking"!`

const moodsMessage = `🎭 **Доступные настроения:**

🇺🇸 **English:** cheerful, rich, cool, angry, sad, emotionless
🇷🇺 **Русский:** веселый, богатый, крутой, злой, грустный, безэмоциональный

💡 **Как использовать:**
• Включите любое настроение в ваш запрос
• Пример: "cool Pepe at work" или "грустный Pepe дома"
• Если не указать настроение, я выберу случайное из 6 вариантов!`

const (
	generatingMessage       = "🎨 Генерирую изображение и промо-сообщение..."
	promoFailedMessage      = "❌ Ошибка при генерации промо-сообщения. Попробуйте позже."
	shareNotFoundMessage    = "Сообщение не найдено"
	leaderboardEmptyMessage = "🏆 Таблица лидеров пуста! Начните делиться контентом, чтобы заработать очки!"

	sharePickChatMessage = "📤 Нажмите кнопку ниже, чтобы поделиться этим контентом в любом чате:"
	shareOpeningTwitter  = "Открываю Twitter для публикации..."
	alreadyCountedNotice = "Эта публикация уже засчитана!"

	btnShareTelegram  = "🫂 Поделиться в Telegram"
	btnShareTwitter   = "🐦 Поделиться в Twitter"
	btnPickChat       = "📤 Выбрать чат для отправки"
	btnConfirmTwitter = "✅ Подтвердить публикацию (+2 балла)"
)

// validationMessage maps prompt validation errors to their bilingual texts.
func validationMessage(err error) string {
	switch err {
	case generator.ErrPromptEmpty:
		return "❌ Image description cannot be empty / Описание изображения не может быть пустым"
	case generator.ErrPromptTooShort:
		return "❌ Description too short (minimum 3 characters) / Описание слишком короткое (минимум 3 символа)"
	case generator.ErrPromptTooLong:
		return "❌ Description too long (maximum 500 characters) / Описание слишком длинное (максимум 500 символов)"
	default:
		return "❌ Invalid description / Некорректное описание"
	}
}

// denialMessage names the exact admission gate that rejected the request.
func denialMessage(d *admission.Denial, requiredChannel string) string {
	switch d.Reason {
	case admission.DeniedMembership:
		if requiredChannel != "" {
			return fmt.Sprintf("🔒 Генерация доступна только подписчикам %s. Подпишитесь и попробуйте снова! / Generation is for %s members only. Join and try again!", requiredChannel, requiredChannel)
		}
		return "🔒 Не удалось проверить подписку. Попробуйте позже. / Could not verify membership. Try again later."
	case admission.DeniedQuota:
		return fmt.Sprintf("📅 Дневной лимит исчерпан (%d генераций). Возвращайтесь завтра! / Daily limit of %d generations reached. Come back tomorrow!", d.Limit, d.Limit)
	case admission.DeniedCooldown:
		return fmt.Sprintf("⏳ Слишком быстро! Подождите ещё %d сек. / Too fast! Wait %d more seconds.", d.WaitSeconds(), d.WaitSeconds())
	case admission.DeniedInFlight:
		return "🎨 Предыдущая генерация ещё выполняется. Дождитесь результата! / Your previous generation is still running. Wait for it to finish!"
	default:
		return "❌ Запрос отклонён. Попробуйте позже. / Request rejected. Try again later."
	}
}

// generationFailureMessage maps a provider failure class to its user text.
func generationFailureMessage(class generator.FailureClass) string {
	switch class {
	case generator.FailureSafety:
		return "🚫 Sorry, I can't generate this image due to safety policies. The requested content might be:\n" +
			"• Inappropriate or harmful\n" +
			"• Against content guidelines\n" +
			"• Potentially unsafe\n\n" +
			"Please try a different, family-friendly prompt! 😊"
	case generator.FailureRate:
		return "⏰ Too many requests! Please wait a moment and try again."
	case generator.FailureAuth:
		return "🔑 API configuration error. Please contact the bot administrator."
	default:
		return "❌ Произошла ошибка при генерации. Попробуйте еще раз."
	}
}

// pointsAwardedNotice is the callback answer after a successful award.
func pointsAwardedNotice(points, total int) string {
	if points == 1 {
		return fmt.Sprintf("+1 очко! У вас %d очков. Выберите чат для отправки!", total)
	}
	return fmt.Sprintf("+%d очка! У вас теперь %d очков за публикацию в Twitter!", points, total)
}

// twitterShareMessage is the reply carrying the tweet-intent link.
func twitterShareMessage(intentURL string) string {
	return fmt.Sprintf("🐦 **Поделиться в Twitter:**\n\n1. [Открыть Twitter и опубликовать](%s)\n2. После публикации нажмите кнопку ниже", intentURL)
}

// leaderboardMessage renders the top entries with medal markers.
func leaderboardMessage(entries []leaderboardEntry) string {
	if len(entries) == 0 {
		return leaderboardEmptyMessage
	}
	var b strings.Builder
	b.WriteString("🏆 **Топ-10 лидеров по очкам:**\n\n")
	for i, e := range entries {
		medal := "📍"
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		fmt.Fprintf(&b, "%s %d. %s: **%d** очков\n", medal, i+1, e.Name, e.Points)
	}
	b.WriteString("\n💡 Делитесь контентом, чтобы заработать больше очков!")
	return b.String()
}

type leaderboardEntry struct {
	Name   string
	Points int
}
