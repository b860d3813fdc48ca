package telegramBot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"eventsImporter/internal/config"
	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/utils/logger/sl"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Repository — то, что боту нужно от хранилища для модерации.
type Repository interface {
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) error
}

// Bot анонсирует новые события в каналы и принимает решения модераторов.
type Bot struct {
	log        *slog.Logger
	cfg        *config.Config
	tgbot      *tgbotapi.BotAPI
	repository Repository
	stopOnce   sync.Once
	done       chan struct{}
}

// New подключается к Telegram Bot API.
func New(log *slog.Logger, cfg *config.Config, repository Repository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotConfig.TgbotApiToken)
	if err != nil {
		return nil, fmt.Errorf("telegram.New: %w", err)
	}

	return NewWithAPI(log, cfg, api, repository), nil
}

// NewWithAPI собирает бота поверх готового клиента API.
func NewWithAPI(log *slog.Logger, cfg *config.Config, api *tgbotapi.BotAPI, repository Repository) *Bot {
	log.Info("telegram bot authorized", slog.String("username", api.Self.UserName))

	return &Bot{
		log:        log,
		cfg:        cfg,
		tgbot:      api,
		repository: repository,
		done:       make(chan struct{}),
	}
}

// Start читает обновления long polling'ом до вызова Shutdown.
func (bot *Bot) Start(timeout int) {
	op := "bot.Start"
	log := bot.log.With(
		slog.String("op", op),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout

	updates := bot.tgbot.GetUpdatesChan(u)
	log.Info("telegram bot started")

	for {
		select {
		case <-bot.done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			bot.handleUpdate(update)
		}
	}
}

func (bot *Bot) handleUpdate(update tgbotapi.Update) {
	op := "bot.handleUpdate"
	log := bot.log.With(
		slog.String("op", op),
	)

	ctx := context.Background()

	switch {
	case update.CallbackQuery != nil:
		bot.handleCallbackQuery(ctx, &update)
	case update.Message != nil && update.Message.IsCommand():
		if err := bot.commandHandler(ctx, &update, bot.sendReplyMessage); err != nil {
			log.Error("command failed", sl.Err(err))
		}
	}
}

func (bot *Bot) sendReplyMessage(inputMsg *tgbotapi.Message, replyText string) error {
	msg := tgbotapi.NewMessage(inputMsg.Chat.ID, replyText)
	msg.ReplyToMessageID = inputMsg.MessageID
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := bot.tgbot.Send(msg); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (bot *Bot) isAdmin(userID int64) bool {
	return slices.Contains(bot.cfg.BotConfig.AdminIDs, userID)
}

// Shutdown останавливает приём обновлений.
func (bot *Bot) Shutdown(_ context.Context) error {
	bot.stopOnce.Do(func() {
		bot.tgbot.StopReceivingUpdates()
		close(bot.done)
	})
	return nil
}
