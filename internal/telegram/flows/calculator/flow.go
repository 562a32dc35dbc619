package calculator

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cnorder-bot/internal/stories/pricing"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
	"cnorder-bot/internal/telegram/states"
)

// Handler - пересчёт цены из юаней в рубли по текущему курсу
type Handler struct {
	bot          botApi
	stateManager stateManager
	rates        rateService
	feePercent   decimal.Decimal
	logger       *slog.Logger
}

func NewHandler(bot botApi, sm stateManager, rates rateService, feePercent float64, logger *slog.Logger) *Handler {
	return &Handler{
		bot:          bot,
		stateManager: sm,
		rates:        rates,
		feePercent:   decimal.NewFromFloat(feePercent),
		logger:       logger,
	}
}

// Start показывает курс и ждёт цену в юанях
func (h *Handler) Start(ctx context.Context, chatID int64) error {
	rate, err := h.rates.ExchangeRate(ctx)
	if err != nil {
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrap(err, "get exchange rate")
	}

	sent, err := h.bot.Send(flows.NewHTML(chatID, messages.FormatCalculatorPrompt(rate.String())))
	if err != nil {
		return err
	}

	h.stateManager.SetState(chatID, states.CalcWaitPrice, &flows.CalculatorFlowData{PromptMessageID: sent.MessageID})
	return nil
}

// Handle обрабатывает текущее состояние
func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	if update.Message == nil {
		return nil
	}

	switch state {
	case states.CalcWaitPrice:
		return h.handlePrice(ctx, update.Message)
	default:
		return fmt.Errorf("unknown state: %s", state)
	}
}

func (h *Handler) handlePrice(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	source, err := pricing.ParseAmount(msg.Text)
	if err != nil {
		_, err = h.bot.Send(flows.NewHTMLReply(chatID, msg.MessageID, messages.CalcInvalid))
		return err
	}

	rate, err := h.rates.ExchangeRate(ctx)
	if err != nil {
		h.stateManager.Clear(chatID)
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrap(err, "get exchange rate")
	}

	quote, err := pricing.Calculate(source, rate, h.feePercent)
	if err != nil {
		_, err = h.bot.Send(flows.NewHTMLReply(chatID, msg.MessageID, messages.CalcInvalid))
		return err
	}
	h.stateManager.Clear(chatID)

	_, err = h.bot.Send(flows.NewHTMLReply(chatID, msg.MessageID, messages.FormatCalculatorResult(quote)))
	return err
}
