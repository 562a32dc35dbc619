package cmds

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
)

type summaryService interface {
	Summary(ctx context.Context, since time.Time) (*orders.Summary, error)
}

// StatsCommand - заказы по статусам и оплаченные суммы за всё время
type StatsCommand struct {
	bot    botApi
	orders summaryService
	l10n   localizer
}

func NewStatsCommand(bot botApi, orderService summaryService, l10n localizer) *StatsCommand {
	return &StatsCommand{
		bot:    bot,
		orders: orderService,
		l10n:   l10n,
	}
}

func (c *StatsCommand) Execute(ctx context.Context, chatID int64) error {
	text, err := c.text(ctx)
	if err != nil {
		_, _ = c.bot.Send(flows.NewHTML(chatID, messages.Error))
		return err
	}

	msg := flows.NewHTML(chatID, text)
	msg.ReplyMarkup = statsKeyboard()
	_, err = c.bot.Send(msg)
	return err
}

// Refresh перерисовывает уже отправленную статистику
func (c *StatsCommand) Refresh(ctx context.Context, chatID int64, messageID int) error {
	text, err := c.text(ctx)
	if err != nil {
		return err
	}

	keyboard := statsKeyboard()
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = &keyboard
	_, err = c.bot.Send(edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (c *StatsCommand) text(ctx context.Context) (string, error) {
	summary, err := c.orders.Summary(ctx, time.Time{})
	if err != nil {
		return "", errors.Wrap(err, "get summary")
	}
	return messages.FormatSummary(c.l10n.Text("report.stats_title", nil), summary), nil
}

func statsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", callbacks.StatsRefresh),
		),
	)
}
