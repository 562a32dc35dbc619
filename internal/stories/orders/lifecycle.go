package orders

import (
	"fmt"
	"slices"
)

// Status - код статуса заказа, хранится в БД как число
type Status int

const (
	StatusNew                         Status = 0
	StatusAwaitingReview              Status = 1
	StatusAwaitingPaymentMethod       Status = 2
	StatusDenied                      Status = 3
	StatusAwaitingCardProof           Status = 4
	StatusAwaitingCryptoProof         Status = 5
	StatusAwaitingPaymentConfirmation Status = 6
	StatusPaid                        Status = 7

	// StatusCancelled никогда не сохраняется: отмена удаляет заказ
	StatusCancelled Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusAwaitingReview:
		return "awaiting_review"
	case StatusAwaitingPaymentMethod:
		return "awaiting_payment_method"
	case StatusDenied:
		return "denied"
	case StatusAwaitingCardProof:
		return "awaiting_card_proof"
	case StatusAwaitingCryptoProof:
		return "awaiting_crypto_proof"
	case StatusAwaitingPaymentConfirmation:
		return "awaiting_payment_confirmation"
	case StatusPaid:
		return "paid"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Valid сообщает, является ли значение одним из сохраняемых статусов
func (s Status) Valid() bool {
	return s >= StatusNew && s <= StatusPaid
}

type Event string

const (
	EventAddItem             Event = "add_item"
	EventCheckout            Event = "checkout"
	EventAccept              Event = "accept"
	EventDeny                Event = "deny"
	EventCancel              Event = "cancel"
	EventChooseCard          Event = "choose_card"
	EventChooseCrypto        Event = "choose_crypto"
	EventSubmitCardProof     Event = "submit_card_proof"
	EventSubmitCryptoProof   Event = "submit_crypto_proof"
	EventRejectCardPayment   Event = "reject_card_payment"
	EventRejectCryptoPayment Event = "reject_crypto_payment"
	EventConfirmPayment      Event = "confirm_payment"
)

type transition struct {
	from []Status
	to   Status
}

var cancellable = []Status{
	StatusNew,
	StatusAwaitingReview,
	StatusAwaitingPaymentMethod,
	StatusAwaitingCardProof,
	StatusAwaitingCryptoProof,
}

var transitions = map[Event]transition{
	EventAddItem:  {from: []Status{StatusNew}, to: StatusNew},
	EventCheckout: {from: []Status{StatusNew}, to: StatusAwaitingReview},
	EventAccept:   {from: []Status{StatusNew, StatusAwaitingReview}, to: StatusAwaitingPaymentMethod},
	EventDeny:     {from: []Status{StatusNew, StatusAwaitingReview}, to: StatusDenied},
	EventCancel:   {from: cancellable, to: StatusCancelled},
	EventChooseCard: {
		from: []Status{StatusAwaitingPaymentMethod, StatusAwaitingCryptoProof},
		to:   StatusAwaitingCardProof,
	},
	EventChooseCrypto: {
		from: []Status{StatusAwaitingPaymentMethod, StatusAwaitingCardProof},
		to:   StatusAwaitingCryptoProof,
	},
	EventSubmitCardProof:     {from: []Status{StatusAwaitingCardProof}, to: StatusAwaitingPaymentConfirmation},
	EventSubmitCryptoProof:   {from: []Status{StatusAwaitingCryptoProof}, to: StatusAwaitingPaymentConfirmation},
	EventRejectCardPayment:   {from: []Status{StatusAwaitingPaymentConfirmation}, to: StatusAwaitingCardProof},
	EventRejectCryptoPayment: {from: []Status{StatusAwaitingPaymentConfirmation}, to: StatusAwaitingCryptoProof},
	EventConfirmPayment:      {from: []Status{StatusAwaitingPaymentConfirmation}, to: StatusPaid},
}

// Next возвращает статус, в который переходит заказ из current по событию event.
// Для недопустимой пары возвращается ErrInvalidTransition.
func Next(current Status, event Event) (Status, error) {
	t, ok := transitions[event]
	if !ok {
		return current, fmt.Errorf("unknown event %q: %w", event, ErrInvalidTransition)
	}
	if !slices.Contains(t.from, current) {
		return current, fmt.Errorf("%s from %s: %w", event, current, ErrInvalidTransition)
	}
	return t.to, nil
}

// AllowedFrom возвращает статусы, из которых допустимо событие
func AllowedFrom(event Event) []Status {
	return slices.Clone(transitions[event].from)
}

// ProofEvent возвращает событие подтверждения оплаты для способа оплаты
func ProofEvent(method PaymentMethod) Event {
	if method == PaymentMethodCrypto {
		return EventSubmitCryptoProof
	}
	return EventSubmitCardProof
}

// RejectEvent возвращает событие отклонения оплаты для способа оплаты
func RejectEvent(method PaymentMethod) Event {
	if method == PaymentMethodCrypto {
		return EventRejectCryptoPayment
	}
	return EventRejectCardPayment
}

// ChooseEvent возвращает событие выбора способа оплаты
func ChooseEvent(method PaymentMethod) Event {
	if method == PaymentMethodCrypto {
		return EventChooseCrypto
	}
	return EventChooseCard
}
