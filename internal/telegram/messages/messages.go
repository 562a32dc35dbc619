package messages

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/stories/pricing"
)

// Общие
const (
	Error         = "❌ Ошибка. Пожалуйста, попробуйте позже."
	Cancelled     = "Действие отменено"
	NoPermissions = "❌ У вас нет прав для этой команды"
	CancelHint    = "<i>Чтобы выйти, отправьте /cancel</i>"
)

// Кнопки
const (
	ButtonAbout       = "Информация"
	ButtonFeedback    = "Отзывы"
	ButtonCalculator  = "Калькулятор стоимости"
	ButtonOrder       = "🛒 Сделать заказ"
	ButtonContact     = "Написать нам"
	ButtonCheckout    = "✅ Оформить заказ"
	ButtonCancelOrder = "❌ Отменить заказ"
	ButtonPayCard     = "💳 Банковский перевод"
	ButtonPayCrypto   = "₿ Криптовалюта"
	ButtonPaid        = "✅ Оплачено"
	ButtonNotPaid     = "❌ НЕ оплачено"
)

// Корзина
const (
	CartPrompt          = "Чтобы сделать заказ, отправьте ссылку на товар, который хотите заказать.\n\n" + CancelHint
	CartInvalidLink     = "Пожалуйста, введите существующую ссылку\n\n" + CancelHint
	CartLinkUnreachable = "Не удалось открыть ссылку. Проверьте её и отправьте ещё раз\n\n" + CancelHint
	CartExpired         = "Корзина больше недоступна. Начните новый заказ: /order"
	CartCheckoutDone    = "Заказ оформлен"
)

// Рассмотрение заказа админами
const (
	ReviewNeedReply   = "Пожалуйста, отправьте команду в ответ на сообщение с заказом"
	ReviewNeedAmount  = "Пожалуйста, укажите сумму заказа в юанях: /accept 123"
	ReviewNeedReason  = "Пожалуйста, укажите причину отказа: /deny причина"
	ReviewNoOrder     = "К этому сообщению не привязан заказ. Ответьте на актуальное сообщение с заказом"
	ReviewWrongStatus = "Этот заказ уже рассмотрен"
)

// Оплата
const (
	PaymentFollowInstructions = "Следуйте инструкции по переводу"
	PaymentNotAvailable       = "Это действие сейчас недоступно для заказа"
	PaymentProofPhotoNoReply  = "Если Вы отправили фото с квитанцией перевода, отправьте его заново так, " +
		"чтобы оно было ответом на сообщение с инструкцией по переводу"
	PaymentProofTextNoReply = "Пожалуйста, отправьте TxID в ответ на сообщение с инструкцией по переводу"
	PaymentProofWrongMethod = "Этот заказ ожидает другой способ подтверждения оплаты. Следуйте последней инструкции"
	PaymentProofNotExpected = "Для этого заказа сейчас не требуется подтверждение оплаты"
	PaymentMethodDisabled   = "Этот способ оплаты временно недоступен"
	PaymentConfirmed        = "Оплата подтверждена"
	PaymentRejected         = "Оплата отклонена"
	OrderCancelled          = "Заказ отменён"
	OrderNotYours           = "Это не ваш заказ"
	OrderNotFound           = "Заказ не найден"
)

// Калькулятор и курс
const (
	CalcInvalid   = "Укажите только число, например 33.3\n\n" + CancelHint
	RateInvalid   = "Укажите только положительное число, например 11.5\n\n" + CancelHint
	RateSaved     = "Новый курс установлен!"
	ExportCaption = "Выгрузка заказов"
	ExportEmpty   = "Заказов пока нет"
)

// Customer - как показывать клиента в сообщениях для админов
type Customer struct {
	ID   int64
	Name string
}

func FormatCustomer(c Customer) string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = fmt.Sprintf("id%d", c.ID)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, c.ID, html.EscapeString(name))
}

// FormatItems - список ссылок заказа
func FormatItems(urls []string) string {
	lines := make([]string, 0, len(urls))
	for _, u := range urls {
		lines = append(lines, "- "+html.EscapeString(u))
	}
	return strings.Join(lines, "\n")
}

// CaptionLimit - предел длины подписи к фото в Telegram
const CaptionLimit = 1024

// FitCaption рендерит подпись к фото для заказа. Если подпись не влезает в
// CaptionLimit, список ссылок заменяется количеством товаров.
// ok=false - не влезает даже сокращённый вариант.
func FitCaption(order *orders.Order, render func(order *orders.Order) string) (string, bool) {
	text := render(order)
	if captionLen(text) <= CaptionLimit {
		return text, true
	}

	if items := FormatItems(order.URLs()); items != "" {
		summary := fmt.Sprintf("- товаров: %d", len(order.Items))
		text = strings.Replace(text, items, summary, 1)
	}
	return text, captionLen(text) <= CaptionLimit
}

// длина в UTF-16 вместе с разметкой
func captionLen(text string) int {
	return len(utf16.Encode([]rune(text)))
}

func FormatCart(urls []string) string {
	return fmt.Sprintf("<b>Корзина</b>:\n\n%s\n\n"+
		"Если Вы хотите добавить в заказ ещё один товар, отправьте ссылку на него. "+
		"Чтобы закончить оформление заказа, нажмите на кнопку под этим сообщением.\n\n%s",
		FormatItems(urls), CancelHint)
}

func FormatCheckoutCustomer(order *orders.Order) string {
	return fmt.Sprintf("<b>Ваш заказ № %d оформлен ✅!</b>\n\n%s\n\n"+
		"Мы постараемся как можно быстрее рассмотреть Ваш заказ и определить его итоговую стоимость в рублях. "+
		"Когда мы всё посчитаем, Вам придёт сообщение с суммой заказа и кнопками для оплаты.",
		order.ID, FormatItems(order.URLs()))
}

func FormatNewOrderAdmin(order *orders.Order, customer Customer) string {
	return fmt.Sprintf("<b>Новый заказ (№ %d)</b>\n\n"+
		"<b>Клиент:</b> %s\n"+
		"<b>Состав:</b>\n%s\n\n"+
		"<b>Статус:</b> #новый_заказ\n\n"+
		"Пожалуйста, сходите по ссылкам, удостоверьтесь, что заказ можно обработать, "+
		"и рассчитайте его сумму в юанях. В ответ на это сообщение отправьте\n"+
		"/accept 123, где 123 — сумма заказа в юанях, или\n"+
		"/deny причина — чтобы отказать",
		order.ID, FormatCustomer(customer), FormatItems(order.URLs()))
}

func formatCosts(order *orders.Order, feePercent string) string {
	return fmt.Sprintf("<b>Стоимость:</b> %d руб.\n"+
		"<b>Комиссия (%s%%):</b> %d руб.\n"+
		"<b>Итого:</b> %d руб.",
		order.Amount, feePercent, order.Fee(), order.Total)
}

func formatAdminCard(order *orders.Order, customer Customer, feePercent, status string) string {
	return fmt.Sprintf("<b>Заказ № %d</b>\n\n"+
		"<b>Клиент:</b> %s\n"+
		"<b>Состав:</b>\n%s\n\n"+
		"%s\n"+
		"<b>Статус:</b> %s",
		order.ID, FormatCustomer(customer), FormatItems(order.URLs()),
		formatCosts(order, feePercent), status)
}

func FormatAcceptedAdmin(order *orders.Order, customer Customer, quote pricing.Quote) string {
	return formatAdminCard(order, customer, quote.FeePercent.String(), "#ожидание_оплаты") +
		fmt.Sprintf("\n\nЦена в юанях: %s", quote.Source.String())
}

func FormatAcceptReply(orderID int64, quote pricing.Quote) string {
	return fmt.Sprintf("Заказу № %d установлена цена %s юаней = %d руб. Комиссия (%s%%): %d руб. Итого: %d руб.",
		orderID, quote.Source.String(), quote.Price, quote.FeePercent.String(), quote.Fee, quote.Total)
}

func FormatAcceptedCustomer(order *orders.Order, feePercent string, wallets []config.Wallet) string {
	text := fmt.Sprintf("<b>Ваш заказ № %d подтверждён ✅!</b>\n\n%s\n\n"+
		"Сумма заказа: %d руб.\n"+
		"Комиссия (%s%%): %d руб.\n"+
		"<b>Итого к оплате: %d руб.</b>\n\n"+
		"Пожалуйста, выберите способ оплаты ниже и оплатите заказ.",
		order.ID, FormatItems(order.URLs()), order.Amount, feePercent, order.Fee(), order.Total)

	if len(wallets) > 0 {
		names := make([]string, 0, len(wallets))
		for _, w := range wallets {
			names = append(names, html.EscapeString(w.Name))
		}
		text += fmt.Sprintf("\n\n<b>Принимаемые криптовалюты:</b>\n<i>%s</i>", strings.Join(names, ", "))
	}
	return text
}

func FormatDeniedAdmin(order *orders.Order, customer Customer, reason string) string {
	return fmt.Sprintf("<b>Заказ № %d</b>\n\n"+
		"<b>Клиент:</b> %s\n"+
		"<b>Состав:</b>\n%s\n\n"+
		"<b>Статус:</b> #отклонён\n"+
		"<b>Причина:</b> %s",
		order.ID, FormatCustomer(customer), FormatItems(order.URLs()), html.EscapeString(reason))
}

func FormatDenyReply(orderID int64) string {
	return fmt.Sprintf("Заказ № %d отклонён", orderID)
}

func FormatDeniedCustomer(order *orders.Order, reason string) string {
	return fmt.Sprintf("<b>Ваш заказ № %d ОТКЛОНЁН ❌!</b>\n\n%s\n\n"+
		"Причина: %s\n\n"+
		"Пожалуйста, сделайте новый заказ, приняв во внимание причину отклонения этого.",
		order.ID, FormatItems(order.URLs()), html.EscapeString(reason))
}

func FormatCancelledCustomer(order *orders.Order) string {
	return fmt.Sprintf("<b>Заказ № %d отменён ❌</b>\n\n%s", order.ID, FormatItems(order.URLs()))
}

func FormatCancelledAdmin(orderID int64, by Customer, byAdmin bool) string {
	if byAdmin {
		return fmt.Sprintf("Администратор %s отменил заказ № %d", FormatCustomer(by), orderID)
	}
	return fmt.Sprintf("%s отменил заказ № %d", FormatCustomer(by), orderID)
}

// FormatCardInstructions - инструкция по переводу на карту; rejected - после отклонённой оплаты
func FormatCardInstructions(order *orders.Order, cardNumber string, rejected bool) string {
	title := fmt.Sprintf("<b>Ваш заказ № %d ожидает оплаты</b>", order.ID)
	if rejected {
		title = fmt.Sprintf("<b>Ваш перевод по заказу № %d не подтверждён ❌</b>", order.ID)
	}
	return fmt.Sprintf("%s\n\n%s\n\n"+
		"<b>К оплате: %d руб.</b>\n\n"+
		"Сделайте перевод по указанному номеру карты.\n"+
		"<b>ВАЖНО! Если возможно, в примечании к переводу напишите:</b>\n\n"+
		"<code>Номер заказа: %d</code>\n\n"+
		"<i>Номер карты для перевода:</i> <code>%s</code>\n\n"+
		"После перевода обязательно отправьте <b>в ответ на это сообщение</b> скриншот "+
		"экрана подтверждения платежа или фото квитанции, где видно сумму, дату и время перевода.",
		title, FormatItems(order.URLs()), order.Total, order.ID, html.EscapeString(cardNumber))
}

// FormatCryptoInstructions - подпись к QR-коду первого кошелька
func FormatCryptoInstructions(order *orders.Order, wallets []config.Wallet, rejected bool) string {
	title := fmt.Sprintf("<b>Ваш заказ № %d ожидает оплаты</b>", order.ID)
	if rejected {
		title = fmt.Sprintf("<b>Ваш перевод по заказу № %d не подтверждён ❌</b>", order.ID)
	}

	lines := make([]string, 0, len(wallets))
	for _, w := range wallets {
		lines = append(lines, fmt.Sprintf("<b>%s</b>: <code>%s</code>", html.EscapeString(w.Name), html.EscapeString(w.Address)))
	}

	return fmt.Sprintf("%s\n\n"+
		"<b>К оплате: %d руб.</b>\n\n"+
		"Сделайте перевод на один из указанных кошельков (QR-код для первого из них).\n\n"+
		"<i>Доступные кошельки:</i>\n%s\n\n"+
		"После перевода обязательно отправьте <b>в ответ на это сообщение</b> TxID (идентификатор транзакции).",
		title, order.Total, strings.Join(lines, "\n"))
}

func FormatAwaitingConfirmationCustomer(order *orders.Order) string {
	return fmt.Sprintf("<b>Ваш заказ № %d ожидает подтверждения оплаты</b>\n\n%s\n\n"+
		"Наши операторы проверят факт совершения перевода на нужную сумму. "+
		"Если средства поступят, мы начнём собирать заказ.",
		order.ID, FormatItems(order.URLs()))
}

// FormatProofAdmin - карточка заказа с доказательством оплаты; txID пустой для оплаты картой
func FormatProofAdmin(order *orders.Order, customer Customer, feePercent string, method orders.PaymentMethod, txID string) string {
	text := formatAdminCard(order, customer, feePercent, "#ожидание_подтверждения_оплаты") +
		"\n\nПожалуйста, проверьте факт совершения оплаты.\n"
	if method == orders.PaymentMethodCrypto {
		return text + fmt.Sprintf("Оплата совершена <b>криптовалютой</b>.\nTxID: <code>%s</code>", html.EscapeString(txID))
	}
	return text + "Оплата совершена <b>банковским переводом</b>, квитанция на фото."
}

func FormatPaymentRejectedAdmin(order *orders.Order, customer Customer, feePercent string) string {
	return formatAdminCard(order, customer, feePercent, "#ожидание_оплаты (оплата не подтверждена)")
}

func FormatPaidAdmin(order *orders.Order, customer Customer, feePercent string) string {
	return formatAdminCard(order, customer, feePercent, "#оплачен ✅")
}

func FormatPaidCustomer(order *orders.Order) string {
	return fmt.Sprintf("<b>Оплата заказа № %d подтверждена ✅</b>\n\n%s\n\n"+
		"Спасибо! Мы начинаем собирать Ваш заказ.",
		order.ID, FormatItems(order.URLs()))
}

func FormatCalculatorPrompt(rate string) string {
	return fmt.Sprintf("Чтобы узнать, сколько будет стоить у нас товар в рублях, пришлите его цену в юанях, "+
		"а мы пересчитаем по нашему курсу (%s руб. = 1 юань)\n\n%s", rate, CancelHint)
}

func FormatCalculatorResult(quote pricing.Quote) string {
	return fmt.Sprintf("Стоимость этого товара у нас составит <b>%d</b> руб.\n"+
		"Комиссия (%s%%): %d руб.\n"+
		"<b>Итого: %d руб.</b>",
		quote.Price, quote.FeePercent.String(), quote.Fee, quote.Total)
}

func FormatRatePrompt(current string) string {
	return fmt.Sprintf("Давайте выставим новый курс. Текущий: %s руб. за юань.\n"+
		"Сколько будет стоить 1 юань с наценкой?\n\n%s", current, CancelHint)
}

func FormatSummary(title string, summary *orders.Summary) string {
	statuses := []orders.Status{
		orders.StatusNew,
		orders.StatusAwaitingReview,
		orders.StatusAwaitingPaymentMethod,
		orders.StatusAwaitingCardProof,
		orders.StatusAwaitingCryptoProof,
		orders.StatusAwaitingPaymentConfirmation,
		orders.StatusPaid,
		orders.StatusDenied,
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n\n", html.EscapeString(title)))
	for _, st := range statuses {
		sb.WriteString(fmt.Sprintf("%s: %d\n", StatusTitle(st), summary.ByStatus[st]))
	}
	if summary.Since.IsZero() {
		sb.WriteString(fmt.Sprintf("\n<b>Оплачено за всё время:</b> %d\n", summary.PaidCount))
	} else {
		sb.WriteString(fmt.Sprintf("\n<b>Оплачено с %s:</b> %d\n", summary.Since.Format("02.01.2006 15:04"), summary.PaidCount))
	}
	sb.WriteString(fmt.Sprintf("Оборот: %d руб.\n", summary.PaidTotal))
	sb.WriteString(fmt.Sprintf("Комиссия: %d руб.", summary.FeeTotal))
	return sb.String()
}

// StatusTitle - человекочитаемое название статуса
func StatusTitle(st orders.Status) string {
	switch st {
	case orders.StatusNew:
		return "Корзина"
	case orders.StatusAwaitingReview:
		return "Ожидает рассмотрения"
	case orders.StatusAwaitingPaymentMethod:
		return "Ожидает выбора оплаты"
	case orders.StatusDenied:
		return "Отклонён"
	case orders.StatusAwaitingCardProof:
		return "Ожидает перевода на карту"
	case orders.StatusAwaitingCryptoProof:
		return "Ожидает перевода криптовалютой"
	case orders.StatusAwaitingPaymentConfirmation:
		return "Ожидает подтверждения оплаты"
	case orders.StatusPaid:
		return "Оплачен"
	default:
		return st.String()
	}
}
