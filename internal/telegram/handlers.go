package telegramBot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/utils/logger/sl"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	// maxCaptionRunes — ограничение Telegram на подпись к фото.
	maxCaptionRunes = 1024
	// maxDescriptionRunes — сколько описания попадает в анонс.
	maxDescriptionRunes = 600
	maxTitleRunes       = 200

	callbackPublish = "publish_"
	callbackReject  = "reject_"
)

var ErrNoChannels = errors.New("no telegram channels configured")

type sendFunction func(inputMsg *tgbotapi.Message, replyText string) error

func (bot *Bot) commandHandler(_ context.Context, update *tgbotapi.Update, sendFunc sendFunction) error {
	op := "bot.commandHandler"
	log := bot.log.With(
		slog.String("op", op),
	)

	msg := update.Message

	log.Debug("command received",
		slog.String("command", msg.Command()),
		slog.Int64("chatID", msg.Chat.ID),
	)

	switch msg.Command() {
	case "start", "help":
		replyText := "Я публикую события, импортированные со страниц Facebook.\n" +
			"Модераторы могут опубликовать или отклонить событие кнопками под анонсом.\n\n" +
			"/whoami — показать ваш Telegram ID"
		if err := sendFunc(msg, replyText); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	case "whoami":
		if msg.From == nil {
			return nil
		}
		replyText := fmt.Sprintf("Ваш ID: <code>%d</code>", msg.From.ID)
		if bot.isAdmin(msg.From.ID) {
			replyText += "\nВы модератор."
		}
		if err := sendFunc(msg, replyText); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	default:
		if err := sendFunc(msg, "Неизвестная команда"); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// SendEvent отправляет анонс события во все каналы из конфига.
// Для новых событий добавляет кнопки модерации.
func (bot *Bot) SendEvent(ctx context.Context, event domain.Event) error {
	op := "bot.SendEvent()"
	log := bot.log.With(
		slog.String("op", op),
		slog.String("slug", event.Slug),
	)

	channelIDs := bot.cfg.BotConfig.ChannelIDs
	if len(channelIDs) == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoChannels)
	}

	messageText := formatEventMessage(event)

	var errs []error
	for _, channelID := range channelIDs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		var err error

		// Если есть картинка, отправляем с фото
		if event.ImageURL != "" && strings.HasPrefix(event.ImageURL, "http") {
			photo := tgbotapi.NewPhoto(channelID, tgbotapi.FileURL(event.ImageURL))
			photo.Caption = messageText
			photo.ParseMode = tgbotapi.ModeHTML
			if event.Status == domain.EventStatusNew {
				photo.ReplyMarkup = createModerationKeyboard(event.ID)
			}
			if _, err = bot.tgbot.Send(photo); err != nil {
				// Telegram не смог скачать картинку, например локальную ссылку /uploads
				log.Warn("failed to send photo, falling back to text",
					slog.Int64("channelID", channelID),
					sl.Err(err),
				)
				err = bot.sendEventText(channelID, event, messageText)
			}
		} else {
			err = bot.sendEventText(channelID, event, messageText)
		}

		if err != nil {
			log.Error("failed to send event to channel",
				slog.Int64("channelID", channelID),
				sl.Err(err),
			)
			errs = append(errs, fmt.Errorf("channel %d: %w", channelID, err))
			continue
		}

		log.Debug("event sent to channel", slog.Int64("channelID", channelID))
	}

	if len(errs) == len(channelIDs) {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	return nil
}

func (bot *Bot) sendEventText(channelID int64, event domain.Event, text string) error {
	msg := tgbotapi.NewMessage(channelID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if event.Status == domain.EventStatusNew {
		msg.ReplyMarkup = createModerationKeyboard(event.ID)
	}
	_, err := bot.tgbot.Send(msg)
	return err
}

// formatEventMessage форматирует событие в HTML-текст для Telegram.
// Текст укладывается в лимит подписи к фото.
func formatEventMessage(event domain.Event) string {
	text := buildEventMessage(event, maxTitleRunes, maxDescriptionRunes)
	if len([]rune(text)) <= maxCaptionRunes {
		return text
	}
	// режем исходные поля, а не готовый HTML
	return buildEventMessage(event, maxTitleRunes/2, maxDescriptionRunes/4)
}

func buildEventMessage(event domain.Event, titleRunes, descriptionRunes int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>%s</b>\n\n", html.EscapeString(truncate(event.Title, titleRunes)))

	if event.EventDate != "" {
		when := event.EventDate
		if event.EventTime != "" {
			when += " at " + event.EventTime
		}
		fmt.Fprintf(&sb, "📅 %s\n", html.EscapeString(when))
	}

	if event.VenueName != "" {
		fmt.Fprintf(&sb, "📍 %s\n", html.EscapeString(event.VenueName))
	}

	if len(event.Promoters) > 0 {
		fmt.Fprintf(&sb, "🎤 %s\n", html.EscapeString(strings.Join(event.Promoters, ", ")))
	}

	if event.Genre != "" {
		fmt.Fprintf(&sb, "🏷 %s\n", html.EscapeString(event.Genre))
	}

	if event.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", html.EscapeString(truncate(event.Description, descriptionRunes)))
	}

	sb.WriteString("\n")

	if event.TicketURL != "" {
		fmt.Fprintf(&sb, "🎟 <a href=\"%s\">Билеты</a>\n", html.EscapeString(event.TicketURL))
	}

	if event.FacebookURL != "" {
		fmt.Fprintf(&sb, "🔗 <a href=\"%s\">Facebook</a>\n", html.EscapeString(event.FacebookURL))
	}

	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

// createModerationKeyboard создаёт inline keyboard для модерации события.
func createModerationKeyboard(eventID uuid.UUID) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Publish", callbackPublish+eventID.String()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", callbackReject+eventID.String()),
		),
	)
}

// parseModeration разбирает data кнопки модерации.
func parseModeration(data string) (uuid.UUID, domain.EventStatus, bool) {
	var status domain.EventStatus
	var rawID string

	if after, ok := strings.CutPrefix(data, callbackPublish); ok {
		status, rawID = domain.EventStatusPublished, after
	} else if after, ok := strings.CutPrefix(data, callbackReject); ok {
		status, rawID = domain.EventStatusRejected, after
	} else {
		return uuid.Nil, "", false
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, status, true
}

func (bot *Bot) handleCallbackQuery(ctx context.Context, update *tgbotapi.Update) {
	op := "bot.handleCallbackQuery"
	log := bot.log.With(
		slog.String("op", op),
	)

	callback := update.CallbackQuery

	id, status, ok := parseModeration(callback.Data)
	if !ok {
		log.Warn("unknown callback", slog.String("data", callback.Data))
		bot.sendCallbackResponse(callback, "Неизвестное действие")
		return
	}

	if callback.From == nil || !bot.isAdmin(callback.From.ID) {
		bot.sendCallbackResponse(callback, "⛔ Только модераторы могут это делать")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	log = log.With(
		slog.String("eventID", id.String()),
		slog.String("status", string(status)),
	)

	if err := bot.repository.UpdateEventStatus(ctx, id, status); err != nil {
		log.Error("failed to update event status", sl.Err(err))
		bot.sendCallbackResponse(callback, "❌ Не удалось изменить статус события")
		return
	}

	log.Info("event moderated")
	if status == domain.EventStatusPublished {
		bot.sendCallbackResponse(callback, "✅ Событие опубликовано")
	} else {
		bot.sendCallbackResponse(callback, "❌ Событие отклонено")
	}
	bot.removeModerationKeyboard(callback)
}

// sendCallbackResponse отправляет всплывающее уведомление в ответ на callback.
func (bot *Bot) sendCallbackResponse(callback *tgbotapi.CallbackQuery, text string) {
	callbackConfig := tgbotapi.NewCallback(callback.ID, text)
	callbackConfig.ShowAlert = true
	_, _ = bot.tgbot.Request(callbackConfig)
}

// removeModerationKeyboard удаляет inline keyboard из сообщения после модерации.
func (bot *Bot) removeModerationKeyboard(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}

	editMsg := tgbotapi.NewEditMessageReplyMarkup(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	_, _ = bot.tgbot.Send(editMsg)
}
