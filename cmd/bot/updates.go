package main

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func logUpdate(logger *slog.Logger, update *tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		logger.Info("Получено сообщение",
			slog.Int64("chat_id", update.Message.Chat.ID),
			slog.Int64("user_id", update.Message.From.ID),
			slog.String("text", update.Message.Text),
			slog.Int("photos", len(update.Message.Photo)))
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		logger.Info("Получен callback",
			slog.Int64("chat_id", update.CallbackQuery.Message.Chat.ID),
			slog.Int64("user_id", update.CallbackQuery.From.ID),
			slog.String("data", update.CallbackQuery.Data))
	}
}
