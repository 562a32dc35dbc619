package flows

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/messages"
)

// Bot - то, что флоу нужно от Telegram API
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// NewHTML создает сообщение с HTML-разметкой без превью ссылок
func NewHTML(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return msg
}

// NewHTMLReply - то же, что NewHTML, но ответом на сообщение
func NewHTMLReply(chatID int64, replyTo int, text string) tgbotapi.MessageConfig {
	msg := NewHTML(chatID, text)
	msg.ReplyToMessageID = replyTo
	return msg
}

// Customer собирает отображаемое имя пользователя
func Customer(u *tgbotapi.User) messages.Customer {
	if u == nil {
		return messages.Customer{}
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.UserName != "" {
		name = "@" + u.UserName
	}
	return messages.Customer{ID: u.ID, Name: name}
}

// Ref - ссылка на отправленное сообщение
func Ref(m tgbotapi.Message, chatID int64) orders.MessageRef {
	if m.Chat != nil {
		chatID = m.Chat.ID
	}
	return orders.MessageRef{ChatID: chatID, MessageID: m.MessageID}
}

// Delete удаляет сообщение, ошибки Telegram (сообщение уже удалено, прошло 48 часов) не важны
func Delete(bot Bot, ref *orders.MessageRef) {
	if ref == nil || ref.MessageID == 0 {
		return
	}
	_, _ = bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
}

// Replace отправляет новое сообщение и только после успешной отправки
// удаляет старое. При ошибке старое сообщение остаётся на месте.
func Replace(bot Bot, old *orders.MessageRef, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	sent, err := bot.Send(msg)
	if err != nil {
		return sent, err
	}
	Delete(bot, old)
	return sent, nil
}

// CancelKeyboard - кнопка отмены под оформленным заказом
func CancelKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCancelOrder, callbacks.Order(callbacks.OrderCancel, orderID)),
		),
	)
}

// PaymentKeyboard - выбор способа оплаты; способ без реквизитов не показывается
func PaymentKeyboard(orderID int64, card, crypto bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 3)
	if card {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonPayCard, callbacks.Order(callbacks.OrderPayCard, orderID)),
		))
	}
	if crypto {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonPayCrypto, callbacks.Order(callbacks.OrderPayCrypto, orderID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCancelOrder, callbacks.Order(callbacks.OrderCancel, orderID)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ConfirmKeyboard - кнопки админа под доказательством оплаты
func ConfirmKeyboard(orderID int64, method orders.PaymentMethod) tgbotapi.InlineKeyboardMarkup {
	unpaid := callbacks.OrderUnpaidCard
	if method == orders.PaymentMethodCrypto {
		unpaid = callbacks.OrderUnpaidCrypto
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonPaid, callbacks.Order(callbacks.OrderPaid, orderID)),
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonNotPaid, callbacks.Order(unpaid, orderID)),
		),
	)
}

// CheckoutKeyboard - кнопка оформления под корзиной
func CheckoutKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCheckout, callbacks.CartCheckout),
		),
	)
}
