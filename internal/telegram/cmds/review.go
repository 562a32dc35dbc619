package cmds

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/stories/pricing"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
		Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	}

	reviewService interface {
		FindByMessage(ctx context.Context, ref orders.MessageRef, role orders.MessageRole) (*orders.Order, error)
		Accept(ctx context.Context, orderID, amount, total int64, rate decimal.Decimal, origin orders.MessageRef) (*orders.Order, error)
		Deny(ctx context.Context, orderID int64, origin orders.MessageRef) (*orders.Order, error)
	}

	rateService interface {
		ExchangeRate(ctx context.Context) (decimal.Decimal, error)
	}
)

// ReviewCommand - /accept и /deny ответом на карточку заказа в чате админов
type ReviewCommand struct {
	bot        botApi
	orders     reviewService
	rates      rateService
	feePercent decimal.Decimal
	cardOn     bool
	wallets    []config.Wallet
	logger     *slog.Logger
}

func NewReviewCommand(bot botApi, orderService reviewService, rates rateService, cfg config.PaymentConfig, logger *slog.Logger) *ReviewCommand {
	return &ReviewCommand{
		bot:        bot,
		orders:     orderService,
		rates:      rates,
		feePercent: decimal.NewFromFloat(cfg.FeePercent),
		cardOn:     cfg.CardNumber != "",
		wallets:    cfg.Wallets(),
		logger:     logger,
	}
}

// Accept выставляет цену: аргумент - сумма заказа в юанях
func (c *ReviewCommand) Accept(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.ReplyToMessage == nil {
		return c.reply(msg, messages.ReviewNeedReply)
	}

	source, err := pricing.ParseAmount(msg.CommandArguments())
	if err != nil {
		return c.reply(msg, messages.ReviewNeedAmount)
	}

	order, err := c.findOrder(ctx, msg, orders.EventAccept)
	if err != nil || order == nil {
		return err
	}

	rate, err := c.rates.ExchangeRate(ctx)
	if err != nil {
		_ = c.reply(msg, messages.Error)
		return errors.Wrap(err, "get exchange rate")
	}
	quote, err := pricing.Calculate(source, rate, c.feePercent)
	if err != nil {
		return c.reply(msg, messages.ReviewNeedAmount)
	}

	priced := *order
	priced.Amount = quote.Price
	priced.Total = quote.Total
	customer := messages.Customer{ID: order.CustomerID}

	customerMsg := flows.NewHTML(order.CustomerID,
		messages.FormatAcceptedCustomer(&priced, quote.FeePercent.String(), c.wallets))
	customerMsg.ReplyMarkup = flows.PaymentKeyboard(order.ID, c.cardOn, len(c.wallets) > 0)
	origin, err := flows.Replace(c.bot, order.OriginMessage, customerMsg)
	if err != nil {
		_ = c.reply(msg, messages.Error)
		return errors.Wrap(err, "send priced order")
	}

	if _, err := c.orders.Accept(ctx, order.ID, quote.Price, quote.Total, quote.Rate, flows.Ref(origin, order.CustomerID)); err != nil {
		_ = c.reply(msg, messages.Error)
		return errors.Wrapf(err, "accept order %d", order.ID)
	}

	cancel := flows.CancelKeyboard(order.ID)
	c.editStatus(order, messages.FormatAcceptedAdmin(&priced, customer, quote), &cancel)

	c.logger.Info("order accepted",
		"order_id", order.ID,
		"source", quote.Source.String(),
		"rate", quote.Rate.String(),
		"total", quote.Total,
		"admin_id", msg.From.ID)

	return c.reply(msg, messages.FormatAcceptReply(order.ID, quote))
}

// Deny отклоняет заказ с причиной
func (c *ReviewCommand) Deny(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.ReplyToMessage == nil {
		return c.reply(msg, messages.ReviewNeedReply)
	}

	reason := strings.TrimSpace(msg.CommandArguments())
	if reason == "" {
		return c.reply(msg, messages.ReviewNeedReason)
	}

	order, err := c.findOrder(ctx, msg, orders.EventDeny)
	if err != nil || order == nil {
		return err
	}

	origin, err := flows.Replace(c.bot, order.OriginMessage,
		flows.NewHTML(order.CustomerID, messages.FormatDeniedCustomer(order, reason)))
	if err != nil {
		_ = c.reply(msg, messages.Error)
		return errors.Wrap(err, "send denial")
	}

	if _, err := c.orders.Deny(ctx, order.ID, flows.Ref(origin, order.CustomerID)); err != nil {
		_ = c.reply(msg, messages.Error)
		return errors.Wrapf(err, "deny order %d", order.ID)
	}

	customer := messages.Customer{ID: order.CustomerID}
	c.editStatus(order, messages.FormatDeniedAdmin(order, customer, reason), nil)

	c.logger.Info("order denied", "order_id", order.ID, "admin_id", msg.From.ID)

	return c.reply(msg, messages.FormatDenyReply(order.ID))
}

// findOrder ищет заказ по карточке, на которую ответили, и проверяет переход.
// nil без ошибки - админу уже отправлена подсказка.
func (c *ReviewCommand) findOrder(ctx context.Context, msg *tgbotapi.Message, event orders.Event) (*orders.Order, error) {
	ref := orders.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ReplyToMessage.MessageID}

	order, err := c.orders.FindByMessage(ctx, ref, orders.MessageRoleStatus)
	if errors.Is(err, orders.ErrNoOrderForMessage) {
		return nil, c.reply(msg, messages.ReviewNoOrder)
	}
	if err != nil {
		_ = c.reply(msg, messages.Error)
		return nil, err
	}

	if _, err := orders.Next(order.Status, event); err != nil {
		return nil, c.reply(msg, messages.ReviewWrongStatus)
	}
	return order, nil
}

func (c *ReviewCommand) editStatus(order *orders.Order, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if order.StatusMessage == nil {
		return
	}

	edit := tgbotapi.NewEditMessageText(order.StatusMessage.ChatID, order.StatusMessage.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = keyboard
	if _, err := c.bot.Request(edit); err != nil {
		c.logger.Warn("failed to edit status message", "order_id", order.ID, "error", err)
	}
}

func (c *ReviewCommand) reply(msg *tgbotapi.Message, text string) error {
	_, err := c.bot.Send(flows.NewHTMLReply(msg.Chat.ID, msg.MessageID, text))
	return err
}
