package orders

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Change - необязательные поля, записываемые вместе со сменой статуса
type Change struct {
	Amount        *int64
	Total         *int64
	ExchangeRate  *decimal.Decimal
	PaymentMethod *PaymentMethod
	OriginMessage *MessageRef
	StatusMessage *MessageRef
}

type Service struct {
	storage  Storage
	rates    rateProvider
	observer transitionObserver
	now      func() time.Time
}

func NewService(storage Storage, rates rateProvider, observer transitionObserver) *Service {
	return &Service{
		storage:  storage,
		rates:    rates,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StartCart создаёт новый заказ сразу с первой позицией
func (s *Service) StartCart(ctx context.Context, customerID int64, url string) (*Order, error) {
	order, err := s.storage.CreateOrder(ctx, Order{
		CustomerID: customerID,
		Status:     StatusNew,
	}, []string{url})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	s.observe(EventAddItem, StatusNew, StatusNew)
	return order, nil
}

// AddItem добавляет ссылку в корзину, пока заказ в статусе NEW
func (s *Service) AddItem(ctx context.Context, orderID int64, url string) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(order.Status, EventAddItem); err != nil {
		return nil, err
	}

	if _, err := s.storage.AddOrderItem(ctx, orderID, url); err != nil {
		return nil, errors.Wrap(err, "add order item")
	}
	s.observe(EventAddItem, order.Status, order.Status)

	return s.Get(ctx, orderID)
}

func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	order, err := s.storage.GetOrder(ctx, GetCriteria{ID: lo.ToPtr(orderID)})
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	if order == nil {
		return nil, errors.Wrapf(ErrOrderNotFound, "order %d", orderID)
	}
	return order, nil
}

// FindByMessage находит заказ по отправленному ботом сообщению
func (s *Service) FindByMessage(ctx context.Context, ref MessageRef, role MessageRole) (*Order, error) {
	id, err := s.storage.FindOrderIDByMessage(ctx, ref, role)
	if err != nil {
		return nil, errors.Wrap(err, "find order by message")
	}
	if id == nil {
		return nil, ErrNoOrderForMessage
	}

	order, err := s.Get(ctx, *id)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, ErrNoOrderForMessage
	}
	return order, err
}

func (s *Service) List(ctx context.Context, criteria ListCriteria) ([]*Order, error) {
	list, err := s.storage.ListOrders(ctx, criteria)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return list, nil
}

// Advance переводит заказ по событию event. Обновление условное: если статус
// успел измениться, возвращается ErrStatusChanged и ничего не пишется.
func (s *Service) Advance(ctx context.Context, orderID int64, event Event, change Change) (*Order, error) {
	if event == EventCancel {
		return s.Cancel(ctx, orderID)
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, err := Next(order.Status, event)
	if err != nil {
		return nil, err
	}

	params := UpdateParams{
		Status:        lo.ToPtr(next),
		Amount:        change.Amount,
		Total:         change.Total,
		ExchangeRate:  change.ExchangeRate,
		PaymentMethod: change.PaymentMethod,
		OriginMessage: change.OriginMessage,
		StatusMessage: change.StatusMessage,
	}

	if event == EventConfirmPayment {
		stats, err := s.buildStats(ctx, order)
		if err != nil {
			return nil, err
		}
		params.Stats = stats
	}

	updated, err := s.storage.UpdateOrder(ctx, UpdateCriteria{
		ID:     order.ID,
		Status: lo.ToPtr(order.Status),
	}, params)
	if err != nil {
		return nil, errors.Wrapf(err, "update order %d", order.ID)
	}
	s.observe(event, order.Status, next)

	return updated, nil
}

func (s *Service) Checkout(ctx context.Context, orderID int64, origin, status MessageRef) (*Order, error) {
	return s.Advance(ctx, orderID, EventCheckout, Change{
		OriginMessage: &origin,
		StatusMessage: &status,
	})
}

// Accept выставляет цену: amount - стоимость в рублях, total - с комиссией,
// rate - курс, по которому считалась цена
func (s *Service) Accept(ctx context.Context, orderID, amount, total int64, rate decimal.Decimal, origin MessageRef) (*Order, error) {
	return s.Advance(ctx, orderID, EventAccept, Change{
		Amount:        &amount,
		Total:         &total,
		ExchangeRate:  &rate,
		OriginMessage: &origin,
	})
}

func (s *Service) Deny(ctx context.Context, orderID int64, origin MessageRef) (*Order, error) {
	return s.Advance(ctx, orderID, EventDeny, Change{OriginMessage: &origin})
}

func (s *Service) ChooseMethod(ctx context.Context, orderID int64, method PaymentMethod, origin MessageRef) (*Order, error) {
	return s.Advance(ctx, orderID, ChooseEvent(method), Change{
		PaymentMethod: &method,
		OriginMessage: &origin,
	})
}

func (s *Service) SubmitProof(ctx context.Context, orderID int64, method PaymentMethod, origin, status MessageRef) (*Order, error) {
	return s.Advance(ctx, orderID, ProofEvent(method), Change{
		OriginMessage: &origin,
		StatusMessage: &status,
	})
}

func (s *Service) RejectPayment(ctx context.Context, orderID int64, method PaymentMethod, origin, status MessageRef) (*Order, error) {
	return s.Advance(ctx, orderID, RejectEvent(method), Change{
		PaymentMethod: &method,
		OriginMessage: &origin,
		StatusMessage: &status,
	})
}

func (s *Service) ConfirmPayment(ctx context.Context, orderID int64, origin, status MessageRef) (*Order, error) {
	return s.Advance(ctx, orderID, EventConfirmPayment, Change{
		OriginMessage: &origin,
		StatusMessage: &status,
	})
}

// Cancel удаляет заказ вместе с позициями, привязками сообщений и статистикой.
// Возвращается удалённый заказ, чтобы вызывающий мог убрать его сообщения.
func (s *Service) Cancel(ctx context.Context, orderID int64) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(order.Status, EventCancel); err != nil {
		return nil, err
	}

	deleted, err := s.storage.DeleteOrder(ctx, DeleteCriteria{
		ID:       order.ID,
		Statuses: []Status{order.Status},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "delete order %d", order.ID)
	}
	s.observe(EventCancel, order.Status, StatusCancelled)

	return deleted, nil
}

// Summary считает заказы по статусам и оплаченные суммы начиная с since
func (s *Service) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	byStatus, err := s.storage.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count orders by status")
	}

	count, total, fee, err := s.storage.SumPaidStats(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "sum paid stats")
	}

	return &Summary{
		Since:     since,
		PaidCount: count,
		PaidTotal: total,
		FeeTotal:  fee,
		ByStatus:  byStatus,
	}, nil
}

// buildStats фиксирует курс, по которому заказ был оценён. Текущий курс
// берётся только для заказов, у которых курс не сохранён.
func (s *Service) buildStats(ctx context.Context, order *Order) (*Stats, error) {
	rate := order.ExchangeRate
	if rate.IsZero() {
		current, err := s.rates.ExchangeRate(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "get exchange rate")
		}
		rate = current
	}
	return &Stats{
		OrderID:      order.ID,
		ExchangeRate: rate,
		Fee:          order.Fee(),
		Total:        order.Total,
		CreatedAt:    s.now(),
	}, nil
}

func (s *Service) observe(event Event, from, to Status) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveTransition(event, from, to)
}
