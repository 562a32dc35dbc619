package cmds

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/messages"
)

const (
	ordersSheet = "Заказы"
	itemsSheet  = "Товары"
	exportDate  = "02.01.2006 15:04"
)

type listService interface {
	List(ctx context.Context, criteria orders.ListCriteria) ([]*orders.Order, error)
}

// ExportCommand - выгрузка всех заказов в xlsx
type ExportCommand struct {
	bot    botApi
	orders listService
	logger *slog.Logger
	now    func() time.Time
}

func NewExportCommand(bot botApi, orderService listService, logger *slog.Logger) *ExportCommand {
	return &ExportCommand{
		bot:    bot,
		orders: orderService,
		logger: logger,
		now:    time.Now,
	}
}

func (c *ExportCommand) Execute(ctx context.Context, chatID int64) error {
	list, err := c.orders.List(ctx, orders.ListCriteria{})
	if err != nil {
		_, _ = c.bot.Send(tgbotapi.NewMessage(chatID, messages.Error))
		return errors.Wrap(err, "list orders")
	}
	if len(list) == 0 {
		_, err = c.bot.Send(tgbotapi.NewMessage(chatID, messages.ExportEmpty))
		return err
	}

	buf, err := BuildWorkbook(list)
	if err != nil {
		_, _ = c.bot.Send(tgbotapi.NewMessage(chatID, messages.Error))
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("orders_%s.xlsx", c.now().Format("20060102_150405")),
		Bytes: buf.Bytes(),
	})
	doc.Caption = messages.ExportCaption
	if _, err := c.bot.Send(doc); err != nil {
		return errors.Wrap(err, "send export")
	}

	c.logger.Info("orders exported", "chat_id", chatID, "orders", len(list))
	return nil
}

// BuildWorkbook собирает книгу: лист заказов и лист со ссылками на товары
func BuildWorkbook(list []*orders.Order) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		return nil, errors.Wrap(err, "create orders sheet")
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, errors.Wrap(err, "create items sheet")
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(err, "delete default sheet")
	}
	f.SetActiveSheet(index)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}

	orderHeaders := []interface{}{"№", "Клиент", "Статус", "Способ оплаты", "Стоимость, руб.", "Комиссия, руб.", "Итого, руб.", "Товаров", "Создан", "Обновлён"}
	itemHeaders := []interface{}{"№ заказа", "Ссылка", "Добавлен"}

	if err := writeRow(f, ordersSheet, 1, orderHeaders); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, itemHeaders); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(ordersSheet, 1, 1, bold); err != nil {
		return nil, errors.Wrap(err, "style orders header")
	}
	if err := f.SetRowStyle(itemsSheet, 1, 1, bold); err != nil {
		return nil, errors.Wrap(err, "style items header")
	}

	itemRow := 2
	for i, order := range list {
		method := ""
		if order.PaymentMethod != nil {
			method = string(*order.PaymentMethod)
		}

		row := []interface{}{
			order.ID,
			order.CustomerID,
			messages.StatusTitle(order.Status),
			method,
			order.Amount,
			order.Fee(),
			order.Total,
			len(order.Items),
			order.CreatedAt.Format(exportDate),
			order.UpdatedAt.Format(exportDate),
		}
		if err := writeRow(f, ordersSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, item := range order.Items {
			if err := writeRow(f, itemsSheet, itemRow, []interface{}{order.ID, item.URL, item.CreatedAt.Format(exportDate)}); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	if err := f.SetColWidth(itemsSheet, "B", "B", 60); err != nil {
		return nil, errors.Wrap(err, "set column width")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "write %s row %d", sheet, row)
	}
	return nil
}
