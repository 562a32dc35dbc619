package cmds

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/flows/flowtest"
	"cnorder-bot/internal/telegram/messages"
)

func TestBuildWorkbook(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	list := []*orders.Order{
		{
			ID:            1,
			CustomerID:    42,
			Amount:        367,
			Total:         404,
			Status:        orders.StatusPaid,
			PaymentMethod: lo.ToPtr(orders.PaymentMethodCard),
			Items: []orders.Item{
				{OrderID: 1, URL: "https://a.example.com", CreatedAt: created},
				{OrderID: 1, URL: "https://b.example.com", CreatedAt: created},
			},
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:         2,
			CustomerID: 43,
			Status:     orders.StatusAwaitingReview,
			Items:      []orders.Item{{OrderID: 2, URL: "https://c.example.com", CreatedAt: created}},
			CreatedAt:  created,
			UpdatedAt:  created,
		},
	}

	buf, err := BuildWorkbook(list)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{ordersSheet, itemsSheet}, f.GetSheetList())

	rows, err := f.GetRows(ordersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "№", rows[0][0])
	require.Equal(t, []string{"1", "42", "Оплачен", "card", "367", "37", "404", "2", "01.03.2026 12:30", "01.03.2026 12:30"}, rows[1])
	require.Equal(t, "Ожидает рассмотрения", rows[2][2])

	items, err := f.GetRows(itemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.Equal(t, []string{"2", "https://c.example.com", "01.03.2026 12:30"}, items[3])
}

func TestExportEmpty(t *testing.T) {
	svc := flowtest.NewServices(t)
	bot := &flowtest.MockBotApi{}
	cmd := NewExportCommand(bot, svc.Orders, slog.Default())

	require.NoError(t, cmd.Execute(context.Background(), 7))
	require.Equal(t, messages.ExportEmpty, flowtest.Text(bot.Last()))
}

func TestExportSendsDocument(t *testing.T) {
	ctx := context.Background()
	svc := flowtest.NewServices(t)
	_, err := svc.Orders.StartCart(ctx, 42, "https://a.example.com")
	require.NoError(t, err)

	bot := &flowtest.MockBotApi{}
	cmd := NewExportCommand(bot, svc.Orders, slog.Default())
	cmd.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, cmd.Execute(ctx, 7))

	doc, ok := bot.Last().(tgbotapi.DocumentConfig)
	require.True(t, ok)
	require.Equal(t, messages.ExportCaption, doc.Caption)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	require.Equal(t, "orders_20260301_090000.xlsx", file.Name)
	require.NotEmpty(t, file.Bytes)
}
