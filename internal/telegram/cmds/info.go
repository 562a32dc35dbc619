package cmds

import (
	"context"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
)

type localizer interface {
	Text(key string, params map[string]interface{}) string
}

// InfoCommand - /start, /help, /about и главное меню
type InfoCommand struct {
	bot        botApi
	l10n       localizer
	rates      rateService
	shop       config.ShopConfig
	feePercent string
}

func NewInfoCommand(bot botApi, l10n localizer, rates rateService, shop config.ShopConfig, feePercent float64) *InfoCommand {
	return &InfoCommand{
		bot:        bot,
		l10n:       l10n,
		rates:      rates,
		shop:       shop,
		feePercent: decimal.NewFromFloat(feePercent).String(),
	}
}

// Help - приветствие с меню; админам дополнительно список их команд
func (c *InfoCommand) Help(chatID int64, user *tgbotapi.User, isAdmin bool) error {
	name := ""
	if user != nil {
		name = user.FirstName
	}

	text := c.l10n.Text("info.start", map[string]interface{}{
		"name": html.EscapeString(name),
	})
	text += "\n\n" + c.l10n.Text("info.commands", nil)
	if isAdmin {
		text += "\n\n" + c.l10n.Text("info.admin", nil)
	}

	msg := flows.NewHTML(chatID, text)
	msg.ReplyMarkup = c.menu()
	_, err := c.bot.Send(msg)
	return err
}

// About - кто мы и как работаем
func (c *InfoCommand) About(ctx context.Context, chatID int64) error {
	rate, err := c.rates.ExchangeRate(ctx)
	if err != nil {
		_, _ = c.bot.Send(flows.NewHTML(chatID, messages.Error))
		return errors.Wrap(err, "get exchange rate")
	}

	text := c.l10n.Text("info.about", map[string]interface{}{
		"rate": rate.String(),
		"fee":  c.feePercent,
	})
	_, err = c.bot.Send(flows.NewHTML(chatID, text))
	return err
}

func (c *InfoCommand) menu() tgbotapi.InlineKeyboardMarkup {
	firstRow := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(messages.ButtonAbout, callbacks.InfoAbout),
	)
	if c.shop.FeedbackURL != "" {
		firstRow = append(firstRow, tgbotapi.NewInlineKeyboardButtonURL(messages.ButtonFeedback, c.shop.FeedbackURL))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		firstRow,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCalculator, callbacks.InfoCalculator),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonOrder, callbacks.InfoOrder),
		),
	}
	if c.shop.ContactURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(messages.ButtonContact, c.shop.ContactURL),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
