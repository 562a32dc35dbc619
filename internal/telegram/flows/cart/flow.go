package cart

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"cnorder-bot/internal/infra/linkcheck"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
	"cnorder-bot/internal/telegram/states"
)

// Handler - оформление заказа: сбор ссылок в корзину и checkout
type Handler struct {
	bot          botApi
	stateManager stateManager
	orders       orderService
	links        linkChecker
	adminChatID  int64
	logger       *slog.Logger
}

func NewHandler(
	bot botApi,
	sm stateManager,
	orderService orderService,
	links linkChecker,
	adminChatID int64,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:          bot,
		stateManager: sm,
		orders:       orderService,
		links:        links,
		adminChatID:  adminChatID,
		logger:       logger,
	}
}

// Start просит первую ссылку
func (h *Handler) Start(chatID int64) error {
	h.stateManager.SetState(chatID, states.CartWaitFirstItem, &flows.CartFlowData{})

	_, err := h.bot.Send(flows.NewHTML(chatID, messages.CartPrompt))
	return err
}

// Handle обрабатывает текущее состояние
func (h *Handler) Handle(ctx context.Context, update *tgbotapi.Update, state states.State) error {
	if update.Message == nil {
		return nil
	}

	switch state {
	case states.CartWaitFirstItem, states.CartWaitItems:
		return h.handleLink(ctx, update.Message)
	default:
		return fmt.Errorf("unknown state: %s", state)
	}
}

func (h *Handler) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	data, err := h.stateManager.GetCartData(chatID)
	if err != nil {
		h.stateManager.Clear(chatID)
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return err
	}

	link, err := h.links.Check(ctx, msg.Text)
	switch {
	case errors.Is(err, linkcheck.ErrUnreachable):
		h.logger.Debug("link is unreachable", "chat_id", chatID, "error", err)
		_, err = h.bot.Send(flows.NewHTML(chatID, messages.CartLinkUnreachable))
		return err
	case err != nil:
		_, err = h.bot.Send(flows.NewHTML(chatID, messages.CartInvalidLink))
		return err
	}

	if data.OrderID == 0 {
		return h.startCart(ctx, msg, data, link)
	}
	return h.addItem(ctx, chatID, data, link)
}

func (h *Handler) startCart(ctx context.Context, msg *tgbotapi.Message, data *flows.CartFlowData, link string) error {
	chatID := msg.Chat.ID

	order, err := h.orders.StartCart(ctx, msg.From.ID, link)
	if err != nil {
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrap(err, "start cart")
	}

	cartMsg := flows.NewHTML(chatID, messages.FormatCart(order.URLs()))
	cartMsg.ReplyMarkup = flows.CheckoutKeyboard()
	sent, err := h.bot.Send(cartMsg)
	if err != nil {
		return err
	}

	data.OrderID = order.ID
	data.CartMessageID = sent.MessageID
	h.stateManager.SetState(chatID, states.CartWaitItems, data)

	h.logger.Info("cart started", "order_id", order.ID, "customer_id", order.CustomerID)
	return nil
}

func (h *Handler) addItem(ctx context.Context, chatID int64, data *flows.CartFlowData, link string) error {
	order, err := h.orders.AddItem(ctx, data.OrderID, link)
	if errors.Is(err, orders.ErrInvalidTransition) || errors.Is(err, orders.ErrOrderNotFound) {
		h.stateManager.Clear(chatID)
		_, err = h.bot.Send(flows.NewHTML(chatID, messages.CartExpired))
		return err
	}
	if err != nil {
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrap(err, "add item")
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, data.CartMessageID,
		messages.FormatCart(order.URLs()), flows.CheckoutKeyboard())
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	_, err = h.bot.Send(edit)
	return err
}

// Checkout оформляет корзину по кнопке под ней
func (h *Handler) Checkout(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	chatID := query.Message.Chat.ID

	data, err := h.stateManager.GetCartData(chatID)
	if h.stateManager.GetState(chatID) != states.CartWaitItems || err != nil || data.OrderID == 0 {
		_, _ = h.bot.Request(tgbotapi.NewCallback(query.ID, messages.CartExpired))
		return nil
	}

	order, err := h.orders.Get(ctx, data.OrderID)
	if err != nil {
		h.stateManager.Clear(chatID)
		_, _ = h.bot.Request(tgbotapi.NewCallback(query.ID, messages.CartExpired))
		return errors.Wrap(err, "get cart order")
	}
	if _, err := orders.Next(order.Status, orders.EventCheckout); err != nil {
		h.stateManager.Clear(chatID)
		_, _ = h.bot.Request(tgbotapi.NewCallback(query.ID, messages.CartExpired))
		return nil
	}

	_, _ = h.bot.Request(tgbotapi.NewCallback(query.ID, messages.CartCheckoutDone))

	flows.Delete(h.bot, &orders.MessageRef{ChatID: chatID, MessageID: data.CartMessageID})
	h.stateManager.Clear(chatID)

	customerMsg := flows.NewHTML(chatID, messages.FormatCheckoutCustomer(order))
	customerMsg.ReplyMarkup = flows.CancelKeyboard(order.ID)
	origin, err := h.bot.Send(customerMsg)
	if err != nil {
		return errors.Wrap(err, "send checkout confirmation")
	}

	adminMsg := flows.NewHTML(h.adminChatID, messages.FormatNewOrderAdmin(order, flows.Customer(query.From)))
	adminMsg.ReplyMarkup = flows.CancelKeyboard(order.ID)
	status, err := h.bot.Send(adminMsg)
	if err != nil {
		return errors.Wrap(err, "send new order notice")
	}

	if _, err := h.orders.Checkout(ctx, order.ID, flows.Ref(origin, chatID), flows.Ref(status, h.adminChatID)); err != nil {
		_, _ = h.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrapf(err, "checkout order %d", order.ID)
	}

	h.logger.Info("order checked out", "order_id", order.ID, "items", len(order.Items))
	return nil
}
