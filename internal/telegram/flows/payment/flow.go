package payment

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
)

const qrSize = 512

// Handler - отмена заказа, выбор способа оплаты, доказательства оплаты и их проверка админами
type Handler struct {
	bot         botApi
	orders      orderService
	cfg         config.PaymentConfig
	wallets     []config.Wallet
	feePercent  string
	adminChatID int64
	logger      *slog.Logger
}

func NewHandler(
	bot botApi,
	orderService orderService,
	cfg config.PaymentConfig,
	adminChatID int64,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:         bot,
		orders:      orderService,
		cfg:         cfg,
		wallets:     cfg.Wallets(),
		feePercent:  decimal.NewFromFloat(cfg.FeePercent).String(),
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// HandleCallback обрабатывает кнопки ord_<action>:<id>
func (h *Handler) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	action, orderID, err := callbacks.ParseOrder(query.Data)
	if err != nil {
		h.answer(query, messages.Error)
		return err
	}

	order, err := h.orders.Get(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		h.answer(query, messages.OrderNotFound)
		return nil
	}
	if err != nil {
		h.answer(query, messages.Error)
		return err
	}

	switch action {
	case callbacks.OrderCancel:
		return h.cancel(ctx, query, order)
	case callbacks.OrderPayCard:
		return h.chooseMethod(ctx, query, order, orders.PaymentMethodCard)
	case callbacks.OrderPayCrypto:
		return h.chooseMethod(ctx, query, order, orders.PaymentMethodCrypto)
	case callbacks.OrderPaid:
		return h.confirm(ctx, query, order)
	case callbacks.OrderUnpaidCard:
		return h.reject(ctx, query, order, orders.PaymentMethodCard)
	case callbacks.OrderUnpaidCrypto:
		return h.reject(ctx, query, order, orders.PaymentMethodCrypto)
	default:
		h.answer(query, messages.Error)
		return fmt.Errorf("unhandled order action: %s", action)
	}
}

func (h *Handler) cancel(ctx context.Context, query *tgbotapi.CallbackQuery, order *orders.Order) error {
	byAdmin := h.fromAdminChat(query)
	if !byAdmin && query.From.ID != order.CustomerID {
		h.answer(query, messages.OrderNotYours)
		return nil
	}
	if _, err := orders.Next(order.Status, orders.EventCancel); err != nil {
		h.answer(query, messages.PaymentNotAvailable)
		return nil
	}

	deleted, err := h.orders.Cancel(ctx, order.ID)
	if err != nil {
		return h.failed(query, err)
	}
	h.answer(query, messages.OrderCancelled)

	customerMsg := flows.NewHTML(deleted.CustomerID, messages.FormatCancelledCustomer(deleted))
	if _, err := flows.Replace(h.bot, deleted.OriginMessage, customerMsg); err != nil {
		h.logger.Warn("failed to notify customer about cancel", "order_id", deleted.ID, "error", err)
	}

	flows.Delete(h.bot, deleted.StatusMessage)
	notice := messages.FormatCancelledAdmin(deleted.ID, flows.Customer(query.From), byAdmin)
	if _, err := h.bot.Send(flows.NewHTML(h.adminChatID, notice)); err != nil {
		return errors.Wrap(err, "send cancel notice")
	}

	h.logger.Info("order cancelled", "order_id", deleted.ID, "by", query.From.ID, "by_admin", byAdmin)
	return nil
}

func (h *Handler) chooseMethod(ctx context.Context, query *tgbotapi.CallbackQuery, order *orders.Order, method orders.PaymentMethod) error {
	if query.From.ID != order.CustomerID {
		h.answer(query, messages.OrderNotYours)
		return nil
	}
	if _, err := orders.Next(order.Status, orders.ChooseEvent(method)); err != nil {
		h.answer(query, messages.PaymentNotAvailable)
		return nil
	}
	if !h.methodAvailable(method) {
		h.answer(query, messages.PaymentMethodDisabled)
		return nil
	}

	instructions, err := h.instructions(order, method, false)
	if err != nil {
		return h.failed(query, err)
	}
	h.answer(query, messages.PaymentFollowInstructions)

	sent, err := flows.Replace(h.bot, order.OriginMessage, instructions)
	if err != nil {
		return errors.Wrap(err, "send payment instructions")
	}

	if _, err := h.orders.ChooseMethod(ctx, order.ID, method, flows.Ref(sent, order.CustomerID)); err != nil {
		return errors.Wrapf(err, "choose %s for order %d", method, order.ID)
	}

	h.logger.Info("payment method chosen", "order_id", order.ID, "method", method)
	return nil
}

// HandleCardProof принимает фото квитанции ответом на инструкцию
func (h *Handler) HandleCardProof(ctx context.Context, msg *tgbotapi.Message) error {
	if len(msg.Photo) == 0 {
		return nil
	}
	// самое большое превью идёт последним
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	return h.submitProof(ctx, msg, orders.PaymentMethodCard, messages.PaymentProofPhotoNoReply,
		func(order *orders.Order) tgbotapi.Chattable {
			photo := tgbotapi.NewPhoto(h.adminChatID, tgbotapi.FileID(fileID))
			photo.Caption, _ = messages.FitCaption(order, func(order *orders.Order) string {
				return messages.FormatProofAdmin(order, flows.Customer(msg.From), h.feePercent, orders.PaymentMethodCard, "")
			})
			photo.ParseMode = tgbotapi.ModeHTML
			photo.ReplyMarkup = flows.ConfirmKeyboard(order.ID, orders.PaymentMethodCard)
			return photo
		})
}

// HandleCryptoProof принимает TxID текстом ответом на инструкцию
func (h *Handler) HandleCryptoProof(ctx context.Context, msg *tgbotapi.Message) error {
	return h.submitProof(ctx, msg, orders.PaymentMethodCrypto, messages.PaymentProofTextNoReply,
		func(order *orders.Order) tgbotapi.Chattable {
			text := messages.FormatProofAdmin(order, flows.Customer(msg.From), h.feePercent, orders.PaymentMethodCrypto, msg.Text)
			adminMsg := flows.NewHTML(h.adminChatID, text)
			adminMsg.ReplyMarkup = flows.ConfirmKeyboard(order.ID, orders.PaymentMethodCrypto)
			return adminMsg
		})
}

func (h *Handler) submitProof(
	ctx context.Context,
	msg *tgbotapi.Message,
	method orders.PaymentMethod,
	noReplyText string,
	adminProof func(order *orders.Order) tgbotapi.Chattable,
) error {
	chatID := msg.Chat.ID
	if msg.ReplyToMessage == nil {
		return h.reply(msg, noReplyText)
	}

	ref := orders.MessageRef{ChatID: chatID, MessageID: msg.ReplyToMessage.MessageID}
	order, err := h.orders.FindByMessage(ctx, ref, orders.MessageRoleOrigin)
	if errors.Is(err, orders.ErrNoOrderForMessage) {
		return h.reply(msg, noReplyText)
	}
	if err != nil {
		_ = h.reply(msg, messages.Error)
		return err
	}
	if order.CustomerID != msg.From.ID {
		return h.reply(msg, messages.OrderNotYours)
	}

	if _, err := orders.Next(order.Status, orders.ProofEvent(method)); err != nil {
		if order.Status == orders.StatusAwaitingCardProof || order.Status == orders.StatusAwaitingCryptoProof {
			return h.reply(msg, messages.PaymentProofWrongMethod)
		}
		return h.reply(msg, messages.PaymentProofNotExpected)
	}

	// старые сообщения удаляются только когда новые отправлены и сохранены
	sentStatus, err := h.bot.Send(adminProof(order))
	if err != nil {
		_ = h.reply(msg, messages.Error)
		return errors.Wrap(err, "send proof to admins")
	}
	status := flows.Ref(sentStatus, h.adminChatID)

	sentOrigin, err := h.bot.Send(flows.NewHTML(chatID, messages.FormatAwaitingConfirmationCustomer(order)))
	if err != nil {
		flows.Delete(h.bot, &status)
		_ = h.reply(msg, messages.Error)
		return errors.Wrap(err, "send awaiting confirmation")
	}
	origin := flows.Ref(sentOrigin, chatID)

	if _, err := h.orders.SubmitProof(ctx, order.ID, method, origin, status); err != nil {
		flows.Delete(h.bot, &status)
		flows.Delete(h.bot, &origin)
		return errors.Wrapf(err, "submit %s proof for order %d", method, order.ID)
	}
	flows.Delete(h.bot, order.OriginMessage)
	flows.Delete(h.bot, order.StatusMessage)

	h.logger.Info("payment proof submitted", "order_id", order.ID, "method", method)
	return nil
}

func (h *Handler) confirm(ctx context.Context, query *tgbotapi.CallbackQuery, order *orders.Order) error {
	if !h.fromAdminChat(query) {
		h.answer(query, messages.NoPermissions)
		return nil
	}
	if _, err := orders.Next(order.Status, orders.EventConfirmPayment); err != nil {
		h.answer(query, messages.PaymentNotAvailable)
		return nil
	}

	status := h.statusRef(order, query)
	origin, err := flows.Replace(h.bot, order.OriginMessage, flows.NewHTML(order.CustomerID, messages.FormatPaidCustomer(order)))
	if err != nil {
		return h.failed(query, errors.Wrap(err, "notify customer about payment"))
	}

	if _, err := h.orders.ConfirmPayment(ctx, order.ID, flows.Ref(origin, order.CustomerID), status); err != nil {
		return h.failed(query, errors.Wrapf(err, "confirm payment for order %d", order.ID))
	}
	h.answer(query, messages.PaymentConfirmed)

	customer := messages.Customer{ID: order.CustomerID}
	if err := h.editStatus(order, status, func(order *orders.Order) string {
		return messages.FormatPaidAdmin(order, customer, h.feePercent)
	}); err != nil {
		h.logger.Warn("failed to edit status message", "order_id", order.ID, "error", err)
	}

	h.logger.Info("payment confirmed", "order_id", order.ID, "total", order.Total, "admin_id", query.From.ID)
	return nil
}

func (h *Handler) reject(ctx context.Context, query *tgbotapi.CallbackQuery, order *orders.Order, method orders.PaymentMethod) error {
	if !h.fromAdminChat(query) {
		h.answer(query, messages.NoPermissions)
		return nil
	}
	if _, err := orders.Next(order.Status, orders.RejectEvent(method)); err != nil {
		h.answer(query, messages.PaymentNotAvailable)
		return nil
	}

	instructions, err := h.instructions(order, method, true)
	if err != nil {
		return h.failed(query, err)
	}

	status := h.statusRef(order, query)
	origin, err := flows.Replace(h.bot, order.OriginMessage, instructions)
	if err != nil {
		return h.failed(query, errors.Wrap(err, "resend payment instructions"))
	}

	if _, err := h.orders.RejectPayment(ctx, order.ID, method, flows.Ref(origin, order.CustomerID), status); err != nil {
		return h.failed(query, errors.Wrapf(err, "reject payment for order %d", order.ID))
	}
	h.answer(query, messages.PaymentRejected)

	customer := messages.Customer{ID: order.CustomerID}
	if err := h.editStatus(order, status, func(order *orders.Order) string {
		return messages.FormatPaymentRejectedAdmin(order, customer, h.feePercent)
	}); err != nil {
		h.logger.Warn("failed to edit status message", "order_id", order.ID, "error", err)
	}

	h.logger.Info("payment rejected", "order_id", order.ID, "method", method, "admin_id", query.From.ID)
	return nil
}

// instructions собирает инструкцию по оплате с кнопками смены способа и отмены
func (h *Handler) instructions(order *orders.Order, method orders.PaymentMethod, rejected bool) (tgbotapi.Chattable, error) {
	keyboard := flows.PaymentKeyboard(order.ID,
		method != orders.PaymentMethodCard && h.methodAvailable(orders.PaymentMethodCard),
		method != orders.PaymentMethodCrypto && h.methodAvailable(orders.PaymentMethodCrypto))

	if method == orders.PaymentMethodCard {
		msg := flows.NewHTML(order.CustomerID, messages.FormatCardInstructions(order, h.cfg.CardNumber, rejected))
		msg.ReplyMarkup = keyboard
		return msg, nil
	}

	caption, fits := messages.FitCaption(order, func(order *orders.Order) string {
		return messages.FormatCryptoInstructions(order, h.wallets, rejected)
	})
	// длинный список кошельков не помещается в подпись, шлём текстом без QR
	if !fits {
		msg := flows.NewHTML(order.CustomerID, caption)
		msg.ReplyMarkup = keyboard
		return msg, nil
	}

	png, err := qrcode.Encode(h.wallets[0].Address, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(err, "encode wallet qr")
	}

	photo := tgbotapi.NewPhoto(order.CustomerID, tgbotapi.FileBytes{Name: "wallet.png", Bytes: png})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	photo.ReplyMarkup = keyboard
	return photo, nil
}

func (h *Handler) methodAvailable(method orders.PaymentMethod) bool {
	if method == orders.PaymentMethodCrypto {
		return len(h.wallets) > 0
	}
	return h.cfg.CardNumber != ""
}

// fromAdminChat - кнопка нажата под сообщением в админском чате.
// У кнопок из inline-режима Message нет.
func (h *Handler) fromAdminChat(query *tgbotapi.CallbackQuery) bool {
	return query.Message != nil && query.Message.Chat != nil && query.Message.Chat.ID == h.adminChatID
}

// statusRef - карточка заказа у админов; если связь потеряна, используем сообщение с кнопкой
func (h *Handler) statusRef(order *orders.Order, query *tgbotapi.CallbackQuery) orders.MessageRef {
	if order.StatusMessage != nil {
		return *order.StatusMessage
	}
	if query.Message == nil || query.Message.Chat == nil {
		return orders.MessageRef{ChatID: h.adminChatID}
	}
	return orders.MessageRef{ChatID: query.Message.Chat.ID, MessageID: query.Message.MessageID}
}

// editStatus меняет карточку заказа: у фото с квитанцией редактируется подпись
func (h *Handler) editStatus(order *orders.Order, ref orders.MessageRef, render func(order *orders.Order) string) error {
	if ref.MessageID == 0 {
		return nil
	}

	if order.PaymentMethod != nil && *order.PaymentMethod == orders.PaymentMethodCard {
		caption, _ := messages.FitCaption(order, render)
		edit := tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, caption)
		edit.ParseMode = tgbotapi.ModeHTML
		_, err := h.bot.Request(edit)
		return err
	}

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, render(order))
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	_, err := h.bot.Request(edit)
	return err
}

func (h *Handler) answer(query *tgbotapi.CallbackQuery, text string) {
	_, _ = h.bot.Request(tgbotapi.NewCallback(query.ID, text))
}

func (h *Handler) reply(msg *tgbotapi.Message, text string) error {
	_, err := h.bot.Send(flows.NewHTMLReply(msg.Chat.ID, msg.MessageID, text))
	return err
}

func (h *Handler) failed(query *tgbotapi.CallbackQuery, err error) error {
	h.answer(query, messages.Error)
	return err
}
