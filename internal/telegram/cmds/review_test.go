package cmds

import (
	"context"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/flows/flowtest"
	"cnorder-bot/internal/telegram/messages"
)

const (
	customerID  = int64(42)
	adminChatID = int64(-1001)
	adminID     = int64(7)
)

type reviewFixture struct {
	cmd    *ReviewCommand
	bot    *flowtest.MockBotApi
	orders *orders.Service
}

func newReviewFixture(t *testing.T) reviewFixture {
	t.Helper()

	svc := flowtest.NewServices(t)
	require.NoError(t, svc.Settings.SetExchangeRate(context.Background(), decimal.RequireFromString("11")))

	bot := &flowtest.MockBotApi{}
	cfg := config.PaymentConfig{FeePercent: 10, CardNumber: "2200", CryptoWallets: []string{"USDT:addr"}}

	return reviewFixture{
		cmd:    NewReviewCommand(bot, svc.Orders, svc.Settings, cfg, slog.Default()),
		bot:    bot,
		orders: svc.Orders,
	}
}

// reviewedOrder - оформленный заказ с карточкой 501 в админском чате
func (f reviewFixture) reviewedOrder(t *testing.T) *orders.Order {
	t.Helper()
	ctx := context.Background()

	order, err := f.orders.StartCart(ctx, customerID, "https://item.taobao.com/1")
	require.NoError(t, err)
	order, err = f.orders.Checkout(ctx, order.ID,
		orders.MessageRef{ChatID: customerID, MessageID: 500},
		orders.MessageRef{ChatID: adminChatID, MessageID: 501})
	require.NoError(t, err)
	return order
}

func (f reviewFixture) status(t *testing.T, id int64) orders.Status {
	t.Helper()
	order, err := f.orders.Get(context.Background(), id)
	require.NoError(t, err)
	return order.Status
}

func TestAcceptPricesOrder(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	order := f.reviewedOrder(t)

	require.NoError(t, f.cmd.Accept(ctx, flowtest.Command(adminID, adminChatID, "/accept 33,3", 501)))

	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusAwaitingPaymentMethod, got.Status)
	require.Equal(t, int64(367), got.Amount)
	require.Equal(t, int64(404), got.Total)
	require.Equal(t, int64(37), got.Fee())

	// клиент получил цену с кнопками оплаты вместо старого сообщения
	require.Contains(t, f.bot.Deleted(), 500)
	priced, ok := f.bot.SentMessages[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, customerID, priced.ChatID)
	require.Contains(t, priced.Text, "подтверждён")
	require.Contains(t, priced.Text, "404 руб.")
	keyboard, ok := priced.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 3)
	require.Equal(t, 1, got.OriginMessage.MessageID)

	reply := flowtest.Text(f.bot.Last())
	require.Contains(t, reply, "33.3 юаней = 367 руб.")
	require.Contains(t, reply, "Комиссия (10%): 37 руб.")

	var edited bool
	for _, r := range f.bot.Requests {
		if e, ok := r.(tgbotapi.EditMessageTextConfig); ok && e.MessageID == 501 {
			edited = true
			require.Contains(t, e.Text, "#ожидание_оплаты")
		}
	}
	require.True(t, edited)
}

func TestReviewGuidance(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		replyTo int // 0 - команда без ответа
		want    string
	}{
		{
			name:    "accept without reply",
			text:    "/accept 100",
			replyTo: 0,
			want:    messages.ReviewNeedReply,
		},
		{
			name:    "accept without amount",
			text:    "/accept",
			replyTo: 501,
			want:    messages.ReviewNeedAmount,
		},
		{
			name:    "accept with garbage amount",
			text:    "/accept сто",
			replyTo: 501,
			want:    messages.ReviewNeedAmount,
		},
		{
			name:    "accept with two amounts",
			text:    "/accept 12 34",
			replyTo: 501,
			want:    messages.ReviewNeedAmount,
		},
		{
			name:    "accept with amount out of range",
			text:    "/accept 99999999999999999999",
			replyTo: 501,
			want:    messages.ReviewNeedAmount,
		},
		{
			name:    "accept on unrelated message",
			text:    "/accept 100",
			replyTo: 999,
			want:    messages.ReviewNoOrder,
		},
		{
			name:    "deny without reply",
			text:    "/deny нет в наличии",
			replyTo: 0,
			want:    messages.ReviewNeedReply,
		},
		{
			name:    "deny without reason",
			text:    "/deny   ",
			replyTo: 501,
			want:    messages.ReviewNeedReason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture(t)
			ctx := context.Background()
			order := f.reviewedOrder(t)

			msg := flowtest.Command(adminID, adminChatID, tt.text, tt.replyTo)
			var err error
			if msg.Command() == "accept" {
				err = f.cmd.Accept(ctx, msg)
			} else {
				err = f.cmd.Deny(ctx, msg)
			}
			require.NoError(t, err)

			require.Len(t, f.bot.SentMessages, 1)
			require.Equal(t, tt.want, flowtest.Text(f.bot.Last()))
			require.Empty(t, f.bot.Requests)
			require.Equal(t, orders.StatusAwaitingReview, f.status(t, order.ID))
		})
	}
}

func TestDenyIsFinal(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	order := f.reviewedOrder(t)

	require.NoError(t, f.cmd.Deny(ctx, flowtest.Command(adminID, adminChatID, "/deny товара нет <в наличии>", 501)))
	require.Equal(t, orders.StatusDenied, f.status(t, order.ID))

	denial := flowtest.Text(f.bot.SentMessages[0])
	require.Contains(t, denial, "ОТКЛОНЁН")
	require.Contains(t, denial, "товара нет &lt;в наличии&gt;")
	require.Equal(t, messages.FormatDenyReply(order.ID), flowtest.Text(f.bot.Last()))

	// повторное рассмотрение не меняет заказ
	require.NoError(t, f.cmd.Accept(ctx, flowtest.Command(adminID, adminChatID, "/accept 10", 501)))
	require.Equal(t, messages.ReviewWrongStatus, flowtest.Text(f.bot.Last()))
	require.Equal(t, orders.StatusDenied, f.status(t, order.ID))
}
