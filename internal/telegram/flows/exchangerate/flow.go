package exchangerate

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"cnorder-bot/internal/stories/pricing"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
	"cnorder-bot/internal/telegram/states"
)

// Handler - админ задаёт курс юаня с наценкой
type Handler struct {
	bot          botApi
	stateManager stateManager
	settings     settingsService
	logger       *slog.Logger
}

func NewHandler(bot botApi, sm stateManager, settings settingsService, logger *slog.Logger) *Handler {
	return &Handler{
		bot:          bot,
		stateManager: sm,
		settings:     settings,
		logger:       logger,
	}
}

func (h *Handler) Start(ctx context.Context, chatID int64) error {
	current, err := h.settings.ExchangeRate(ctx)
	if err != nil {
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrap(err, "get exchange rate")
	}

	sent, err := h.bot.Send(flows.NewHTML(chatID, messages.FormatRatePrompt(current.String())))
	if err != nil {
		return err
	}

	h.stateManager.SetState(chatID, states.RateWaitValue, &flows.ExchangeRateFlowData{PromptMessageID: sent.MessageID})
	return nil
}

// Handle обрабатывает текущее состояние
func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	if update.Message == nil {
		return nil
	}

	switch state {
	case states.RateWaitValue:
		return h.handleRate(ctx, update.Message)
	default:
		return fmt.Errorf("unknown state: %s", state)
	}
}

func (h *Handler) handleRate(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	rate, err := pricing.ParseAmount(msg.Text)
	if err != nil {
		_, err = h.bot.Send(flows.NewHTMLReply(chatID, msg.MessageID, messages.RateInvalid))
		return err
	}

	if err := h.settings.SetExchangeRate(ctx, rate); err != nil {
		h.stateManager.Clear(chatID)
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrap(err, "set exchange rate")
	}
	h.stateManager.Clear(chatID)

	h.logger.Info("exchange rate updated", "rate", rate.String(), "admin_id", msg.From.ID)

	_, err = h.bot.Send(flows.NewHTMLReply(chatID, msg.MessageID, messages.RateSaved))
	return err
}
