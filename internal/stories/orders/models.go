package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

// MessageRole различает сообщение клиента (origin) и карточку заказа в админском чате (status)
type MessageRole string

const (
	MessageRoleOrigin MessageRole = "origin"
	MessageRoleStatus MessageRole = "status"
)

// MessageRef указывает на конкретное сообщение в конкретном чате
type MessageRef struct {
	ChatID    int64
	MessageID int
}

type Item struct {
	ID        int64
	OrderID   int64
	URL       string
	CreatedAt time.Time
}

type Order struct {
	ID            int64
	CustomerID    int64
	Amount        int64
	Total         int64
	ExchangeRate  decimal.Decimal // курс на момент подтверждения цены, ноль до Accept
	Status        Status
	PaymentMethod *PaymentMethod
	OriginMessage *MessageRef
	StatusMessage *MessageRef
	Items         []Item
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Fee возвращает комиссию в рублях
func (o *Order) Fee() int64 {
	return o.Total - o.Amount
}

// URLs возвращает ссылки на товары в порядке добавления
func (o *Order) URLs() []string {
	urls := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		urls = append(urls, item.URL)
	}
	return urls
}

type Stats struct {
	OrderID      int64
	ExchangeRate decimal.Decimal
	Fee          int64
	Total        int64
	CreatedAt    time.Time
}

// Критерии для получения заказа
type GetCriteria struct {
	ID *int64
}

// Критерии для списка заказов
type ListCriteria struct {
	CustomerID *int64
	Statuses   []Status
	Limit      int
	Offset     int
}

// Критерии условного обновления: Status - ожидаемый текущий статус
type UpdateCriteria struct {
	ID     int64
	Status *Status
}

// Параметры для обновления заказа
type UpdateParams struct {
	Status        *Status
	Amount        *int64
	Total         *int64
	ExchangeRate  *decimal.Decimal
	PaymentMethod *PaymentMethod
	OriginMessage *MessageRef
	StatusMessage *MessageRef
	Stats         *Stats
}

// Критерии удаления: Statuses - допустимые текущие статусы
type DeleteCriteria struct {
	ID       int64
	Statuses []Status
}

// Summary - агрегаты по оплаченным заказам
type Summary struct {
	Since     time.Time
	PaidCount int
	PaidTotal int64
	FeeTotal  int64
	ByStatus  map[Status]int
}
