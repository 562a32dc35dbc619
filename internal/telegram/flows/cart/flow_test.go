package cart

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"cnorder-bot/internal/infra/linkcheck"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/flows/flowtest"
	"cnorder-bot/internal/telegram/messages"
	"cnorder-bot/internal/telegram/states"
)

const (
	customerID  = int64(42)
	adminChatID = int64(-1001)
)

// syntaxOnly проверяет ссылки без сети
type syntaxOnly struct {
	unreachable map[string]bool
}

func (s syntaxOnly) Check(_ context.Context, raw string) (string, error) {
	u, err := linkcheck.Parse(raw)
	if err != nil {
		return "", err
	}
	if s.unreachable[u.String()] {
		return "", linkcheck.ErrUnreachable
	}
	return u.String(), nil
}

type fixture struct {
	handler *Handler
	bot     *flowtest.MockBotApi
	sm      *states.Manager
	orders  *orders.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	svc := flowtest.NewServices(t)
	bot := &flowtest.MockBotApi{}
	sm := states.NewManager()
	links := syntaxOnly{unreachable: map[string]bool{"https://gone.example.com": true}}

	return fixture{
		handler: NewHandler(bot, sm, svc.Orders, links, adminChatID, slog.Default()),
		bot:     bot,
		sm:      sm,
		orders:  svc.Orders,
	}
}

func (f fixture) send(t *testing.T, text string) {
	t.Helper()
	update := &tgbotapi.Update{Message: flowtest.PrivateMessage(customerID, text)}
	require.NoError(t, f.handler.Handle(context.Background(), update, f.sm.GetState(customerID)))
}

func TestCartCollectsItemsAndChecksOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.handler.Start(customerID))
	require.Equal(t, states.CartWaitFirstItem, f.sm.GetState(customerID))
	require.Equal(t, messages.CartPrompt, flowtest.Text(f.bot.Last()))

	f.send(t, "item.taobao.com/item.htm?id=1")
	require.Equal(t, states.CartWaitItems, f.sm.GetState(customerID))

	data, err := f.sm.GetCartData(customerID)
	require.NoError(t, err)
	require.NotZero(t, data.OrderID)
	cartMessageID := data.CartMessageID

	f.send(t, "https://detail.1688.com/offer/2.html")

	edit, ok := f.bot.Last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	require.Equal(t, cartMessageID, edit.MessageID)
	require.Contains(t, edit.Text, "https://item.taobao.com/item.htm?id=1")
	require.Contains(t, edit.Text, "https://detail.1688.com/offer/2.html")

	query := flowtest.Callback(customerID, customerID, cartMessageID, callbacks.CartCheckout)
	require.NoError(t, f.handler.Checkout(ctx, query))

	require.Equal(t, states.StateNone, f.sm.GetState(customerID))
	require.Contains(t, f.bot.Deleted(), cartMessageID)

	order, err := f.orders.Get(ctx, data.OrderID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusAwaitingReview, order.Status)
	require.Len(t, order.Items, 2)
	require.NotNil(t, order.StatusMessage)
	require.Equal(t, adminChatID, order.StatusMessage.ChatID)
	require.Equal(t, customerID, order.OriginMessage.ChatID)

	adminNotice := f.bot.Last()
	require.Equal(t, adminChatID, flowtest.ChatOf(adminNotice))
	require.Contains(t, flowtest.Text(adminNotice), "Новый заказ")
	require.Contains(t, flowtest.Text(adminNotice), "tg://user?id=42")

	found, err := f.orders.FindByMessage(ctx, *order.StatusMessage, orders.MessageRoleStatus)
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)
}

func TestCartRejectsBadLinks(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.handler.Start(customerID))

	f.send(t, "не ссылка")
	require.Equal(t, messages.CartInvalidLink, flowtest.Text(f.bot.Last()))
	require.Equal(t, states.CartWaitFirstItem, f.sm.GetState(customerID))

	f.send(t, "https://gone.example.com")
	require.Equal(t, messages.CartLinkUnreachable, flowtest.Text(f.bot.Last()))
	require.Equal(t, states.CartWaitFirstItem, f.sm.GetState(customerID))

	data, err := f.sm.GetCartData(customerID)
	require.NoError(t, err)
	require.Zero(t, data.OrderID)

	list, err := f.orders.List(context.Background(), orders.ListCriteria{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCheckoutOutsideCartIsIgnored(t *testing.T) {
	f := newFixture(t)

	query := flowtest.Callback(customerID, customerID, 7, callbacks.CartCheckout)
	require.NoError(t, f.handler.Checkout(context.Background(), query))

	require.Empty(t, f.bot.SentMessages)
	require.Len(t, f.bot.Requests, 1)
	answer, ok := f.bot.Requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	require.True(t, strings.Contains(answer.Text, "Корзина"))
}
