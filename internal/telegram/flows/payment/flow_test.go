package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/flows/flowtest"
	"cnorder-bot/internal/telegram/messages"
)

const (
	customerID  = int64(42)
	adminChatID = int64(-1001)
	adminID     = int64(7)
)

type fixture struct {
	handler *Handler
	bot     *flowtest.MockBotApi
	orders  *orders.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	svc := flowtest.NewServices(t)
	bot := &flowtest.MockBotApi{}
	cfg := config.PaymentConfig{
		FeePercent:    10,
		CardNumber:    "2200 0000 0000 0000",
		CryptoWallets: []string{"USDT-TRC20:TXyz123", "BTC:bc1qabc"},
	}

	return fixture{
		handler: NewHandler(bot, svc.Orders, cfg, adminChatID, slog.Default()),
		bot:     bot,
		orders:  svc.Orders,
	}
}

// acceptedOrder - заказ, которому админ уже выставил цену
func (f fixture) acceptedOrder(t *testing.T) *orders.Order {
	t.Helper()
	ctx := context.Background()

	order, err := f.orders.StartCart(ctx, customerID, "https://item.taobao.com/1")
	require.NoError(t, err)
	order, err = f.orders.Checkout(ctx, order.ID,
		orders.MessageRef{ChatID: customerID, MessageID: 500},
		orders.MessageRef{ChatID: adminChatID, MessageID: 501})
	require.NoError(t, err)
	order, err = f.orders.Accept(ctx, order.ID, 367, 404, decimal.RequireFromString("11"), orders.MessageRef{ChatID: customerID, MessageID: 502})
	require.NoError(t, err)
	return order
}

func (f fixture) press(t *testing.T, userID, chatID int64, messageID int, data string) {
	t.Helper()
	require.NoError(t, f.handler.HandleCallback(context.Background(), flowtest.Callback(userID, chatID, messageID, data)))
}

func (f fixture) status(t *testing.T, orderID int64) orders.Status {
	t.Helper()
	order, err := f.orders.Get(context.Background(), orderID)
	require.NoError(t, err)
	return order.Status
}

func photoReply(replyTo int) *tgbotapi.Message {
	msg := flowtest.PrivateMessage(customerID, "")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}
	if replyTo != 0 {
		msg.ReplyToMessage = &tgbotapi.Message{MessageID: replyTo}
	}
	return msg
}

func TestCardPaymentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.acceptedOrder(t)

	f.press(t, customerID, customerID, 502, callbacks.Order(callbacks.OrderPayCard, order.ID))
	require.Equal(t, orders.StatusAwaitingCardProof, f.status(t, order.ID))
	require.Contains(t, f.bot.Deleted(), 502)
	require.Contains(t, flowtest.Text(f.bot.Last()), "2200 0000 0000 0000")
	require.Contains(t, flowtest.Text(f.bot.Last()), "Номер заказа:")
	instructionsID := len(f.bot.SentMessages)

	// фото без ответа
	require.NoError(t, f.handler.HandleCardProof(ctx, photoReply(0)))
	require.Equal(t, messages.PaymentProofPhotoNoReply, flowtest.Text(f.bot.Last()))

	// ответ на устаревшее сообщение
	require.NoError(t, f.handler.HandleCardProof(ctx, photoReply(502)))
	require.Equal(t, messages.PaymentProofPhotoNoReply, flowtest.Text(f.bot.Last()))
	require.Equal(t, orders.StatusAwaitingCardProof, f.status(t, order.ID))

	require.NoError(t, f.handler.HandleCardProof(ctx, photoReply(instructionsID)))
	require.Equal(t, orders.StatusAwaitingPaymentConfirmation, f.status(t, order.ID))
	require.Contains(t, flowtest.Text(f.bot.Last()), "ожидает подтверждения")

	// квитанция уходит админам раньше сообщения клиенту
	proof, ok := f.bot.SentMessages[len(f.bot.SentMessages)-2].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, adminChatID, proof.ChatID)
	require.Equal(t, tgbotapi.FileID("big"), proof.File)
	require.Contains(t, proof.Caption, "банковским переводом")
	require.Contains(t, f.bot.Deleted(), 501)

	updated, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	statusID := updated.StatusMessage.MessageID
	originID := updated.OriginMessage.MessageID

	// кнопку "оплачено" нажали не в админском чате
	f.press(t, customerID, customerID, statusID, callbacks.Order(callbacks.OrderPaid, order.ID))
	require.Equal(t, orders.StatusAwaitingPaymentConfirmation, f.status(t, order.ID))

	f.press(t, adminID, adminChatID, statusID, callbacks.Order(callbacks.OrderPaid, order.ID))
	require.Equal(t, orders.StatusPaid, f.status(t, order.ID))
	require.Contains(t, flowtest.Text(f.bot.Last()), "подтверждена")
	require.Equal(t, customerID, flowtest.ChatOf(f.bot.Last()))
	require.Contains(t, f.bot.Deleted(), originID)

	paid, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, statusID, paid.StatusMessage.MessageID)

	summary, err := f.orders.Summary(ctx, paid.CreatedAt.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Equal(t, 1, summary.PaidCount)
	require.Equal(t, int64(404), summary.PaidTotal)

	// доказательство для оплаченного заказа не принимается
	require.NoError(t, f.handler.HandleCardProof(ctx, photoReply(paid.OriginMessage.MessageID)))
	require.Equal(t, messages.PaymentProofNotExpected, flowtest.Text(f.bot.Last()))
	require.Equal(t, orders.StatusPaid, f.status(t, order.ID))
}

func TestCryptoPaymentRejectedAndResubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.acceptedOrder(t)

	f.press(t, customerID, customerID, 502, callbacks.Order(callbacks.OrderPayCrypto, order.ID))
	require.Equal(t, orders.StatusAwaitingCryptoProof, f.status(t, order.ID))

	qr, ok := f.bot.Last().(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Contains(t, qr.Caption, "TXyz123")
	require.Contains(t, qr.Caption, "bc1qabc")
	file, ok := qr.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	require.NotEmpty(t, file.Bytes)
	instructionsID := len(f.bot.SentMessages)

	// фото вместо TxID
	require.NoError(t, f.handler.HandleCardProof(ctx, photoReply(instructionsID)))
	require.Equal(t, messages.PaymentProofWrongMethod, flowtest.Text(f.bot.Last()))

	txMsg := flowtest.PrivateMessage(customerID, "0xdeadbeef")
	txMsg.ReplyToMessage = &tgbotapi.Message{MessageID: instructionsID}
	require.NoError(t, f.handler.HandleCryptoProof(ctx, txMsg))
	require.Equal(t, orders.StatusAwaitingPaymentConfirmation, f.status(t, order.ID))
	require.Contains(t, flowtest.Text(f.bot.SentMessages[len(f.bot.SentMessages)-2]), "0xdeadbeef")

	updated, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)

	f.press(t, adminID, adminChatID, updated.StatusMessage.MessageID, callbacks.Order(callbacks.OrderUnpaidCrypto, order.ID))
	require.Equal(t, orders.StatusAwaitingCryptoProof, f.status(t, order.ID))
	require.Contains(t, flowtest.Text(f.bot.Last()), "не подтверждён")

	// кнопка от другого способа не подходит к текущему статусу
	f.press(t, adminID, adminChatID, updated.StatusMessage.MessageID, callbacks.Order(callbacks.OrderUnpaidCard, order.ID))
	require.Equal(t, orders.StatusAwaitingCryptoProof, f.status(t, order.ID))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.acceptedOrder(t)

	// чужой заказ
	f.press(t, 99, 99, 502, callbacks.Order(callbacks.OrderCancel, order.ID))
	require.Equal(t, orders.StatusAwaitingPaymentMethod, f.status(t, order.ID))

	f.press(t, customerID, customerID, 502, callbacks.Order(callbacks.OrderCancel, order.ID))

	_, err := f.orders.Get(ctx, order.ID)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	require.Contains(t, f.bot.Deleted(), 501)
	require.Equal(t, adminChatID, flowtest.ChatOf(f.bot.Last()))
	require.Contains(t, flowtest.Text(f.bot.Last()), "отменил заказ")

	// повторное нажатие
	f.press(t, customerID, customerID, 502, callbacks.Order(callbacks.OrderCancel, order.ID))
	answer, ok := f.bot.Requests[len(f.bot.Requests)-1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	require.Equal(t, messages.OrderNotFound, answer.Text)
}

func TestMalformedCallback(t *testing.T) {
	f := newFixture(t)

	err := f.handler.HandleCallback(context.Background(), flowtest.Callback(customerID, customerID, 1, "ord_pay:abc"))
	require.ErrorIs(t, err, callbacks.ErrMalformed)
	require.Empty(t, f.bot.SentMessages)
}

var errTelegram = errors.New("Bad Request: message caption is too long")

func TestChooseMethodSendFailureKeepsOrigin(t *testing.T) {
	f := newFixture(t)
	order := f.acceptedOrder(t)
	f.bot.FailSend = func(tgbotapi.Chattable) error { return errTelegram }

	err := f.handler.HandleCallback(context.Background(), flowtest.Callback(customerID, customerID, 502, callbacks.Order(callbacks.OrderPayCrypto, order.ID)))
	require.ErrorIs(t, err, errTelegram)

	require.NotContains(t, f.bot.Deleted(), 502)
	require.Equal(t, orders.StatusAwaitingPaymentMethod, f.status(t, order.ID))
	got, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, 502, got.OriginMessage.MessageID)
}

func TestSubmitProofSendFailureKeepsMessages(t *testing.T) {
	tests := []struct {
		name     string
		failChat int64
	}{
		{"admin chat unreachable", adminChatID},
		{"customer chat unreachable", customerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			order := f.acceptedOrder(t)

			f.press(t, customerID, customerID, 502, callbacks.Order(callbacks.OrderPayCard, order.ID))
			instructionsID := len(f.bot.SentMessages)

			f.bot.FailSend = func(c tgbotapi.Chattable) error {
				if flowtest.ChatOf(c) == tt.failChat {
					return errTelegram
				}
				return nil
			}
			require.ErrorIs(t, f.handler.HandleCardProof(ctx, photoReply(instructionsID)), errTelegram)

			require.Equal(t, orders.StatusAwaitingCardProof, f.status(t, order.ID))
			require.NotContains(t, f.bot.Deleted(), instructionsID)
			require.NotContains(t, f.bot.Deleted(), 501)

			got, err := f.orders.Get(ctx, order.ID)
			require.NoError(t, err)
			require.Equal(t, instructionsID, got.OriginMessage.MessageID)
			require.Equal(t, 501, got.StatusMessage.MessageID)

			// после сбоя можно отправить квитанцию ещё раз
			f.bot.FailSend = nil
			require.NoError(t, f.handler.HandleCardProof(ctx, photoReply(instructionsID)))
			require.Equal(t, orders.StatusAwaitingPaymentConfirmation, f.status(t, order.ID))
			require.Contains(t, f.bot.Deleted(), instructionsID)
			require.Contains(t, f.bot.Deleted(), 501)
		})
	}
}

func TestCardProofCaptionFitsWithManyItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.StartCart(ctx, customerID, "https://item.taobao.com/item.htm?id=0")
	require.NoError(t, err)
	for i := 1; i < 30; i++ {
		order, err = f.orders.AddItem(ctx, order.ID, fmt.Sprintf("https://item.taobao.com/item.htm?id=%d&spm=a21n57.1.0.0.abcdef", i))
		require.NoError(t, err)
	}
	order, err = f.orders.Checkout(ctx, order.ID,
		orders.MessageRef{ChatID: customerID, MessageID: 500},
		orders.MessageRef{ChatID: adminChatID, MessageID: 501})
	require.NoError(t, err)
	order, err = f.orders.Accept(ctx, order.ID, 367, 404, decimal.RequireFromString("11"), orders.MessageRef{ChatID: customerID, MessageID: 502})
	require.NoError(t, err)

	f.press(t, customerID, customerID, 502, callbacks.Order(callbacks.OrderPayCard, order.ID))
	require.NoError(t, f.handler.HandleCardProof(ctx, photoReply(len(f.bot.SentMessages))))
	require.Equal(t, orders.StatusAwaitingPaymentConfirmation, f.status(t, order.ID))

	var proof tgbotapi.PhotoConfig
	for _, c := range f.bot.SentMessages {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			proof = p
		}
	}
	require.LessOrEqual(t, utf8.RuneCountInString(proof.Caption), messages.CaptionLimit)
	require.Contains(t, proof.Caption, "товаров: 30")

	updated, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	f.press(t, adminID, adminChatID, updated.StatusMessage.MessageID, callbacks.Order(callbacks.OrderPaid, order.ID))

	var edited bool
	for _, r := range f.bot.Requests {
		if e, ok := r.(tgbotapi.EditMessageCaptionConfig); ok {
			edited = true
			require.LessOrEqual(t, utf8.RuneCountInString(e.Caption), messages.CaptionLimit)
		}
	}
	require.True(t, edited)
}

func TestCallbackWithoutMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.acceptedOrder(t)

	f.press(t, customerID, customerID, 502, callbacks.Order(callbacks.OrderPayCrypto, order.ID))
	txMsg := flowtest.PrivateMessage(customerID, "0xdeadbeef")
	txMsg.ReplyToMessage = &tgbotapi.Message{MessageID: len(f.bot.SentMessages)}
	require.NoError(t, f.handler.HandleCryptoProof(ctx, txMsg))

	// кнопка из inline-режима приходит без Message
	inline := func(userID int64, data string) *tgbotapi.CallbackQuery {
		query := flowtest.Callback(userID, userID, 0, data)
		query.Message = nil
		query.InlineMessageID = "inline-1"
		return query
	}

	require.NoError(t, f.handler.HandleCallback(ctx, inline(adminID, callbacks.Order(callbacks.OrderPaid, order.ID))))
	require.Equal(t, orders.StatusAwaitingPaymentConfirmation, f.status(t, order.ID))
	answer, ok := f.bot.Requests[len(f.bot.Requests)-1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	require.Equal(t, messages.NoPermissions, answer.Text)

	require.NoError(t, f.handler.HandleCallback(ctx, inline(adminID, callbacks.Order(callbacks.OrderUnpaidCrypto, order.ID))))
	require.Equal(t, orders.StatusAwaitingPaymentConfirmation, f.status(t, order.ID))

	// владелец может отменить неоплаченный заказ и без Message
	other := newFixture(t)
	pending := other.acceptedOrder(t)
	require.NoError(t, other.handler.HandleCallback(ctx, inline(customerID, callbacks.Order(callbacks.OrderCancel, pending.ID))))
	_, err := other.orders.Get(ctx, pending.ID)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	require.Contains(t, flowtest.Text(other.bot.Last()), "отменил заказ")
}
