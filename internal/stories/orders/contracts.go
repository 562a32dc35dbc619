package orders

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrNoOrderForMessage = errors.New("no order linked to message")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrStatusChanged     = errors.New("order status changed concurrently")
	ErrEmptyCart         = errors.New("order has no items")
)

type (
	Storage interface {
		CreateOrder(ctx context.Context, order Order, urls []string) (*Order, error)
		GetOrder(ctx context.Context, criteria GetCriteria) (*Order, error)
		ListOrders(ctx context.Context, criteria ListCriteria) ([]*Order, error)
		AddOrderItem(ctx context.Context, orderID int64, url string) (*Item, error)
		UpdateOrder(ctx context.Context, criteria UpdateCriteria, params UpdateParams) (*Order, error)
		DeleteOrder(ctx context.Context, criteria DeleteCriteria) (*Order, error)
		FindOrderIDByMessage(ctx context.Context, ref MessageRef, role MessageRole) (*int64, error)
		CountOrdersByStatus(ctx context.Context) (map[Status]int, error)
		SumPaidStats(ctx context.Context, since time.Time) (count int, total int64, fee int64, err error)
	}

	rateProvider interface {
		ExchangeRate(ctx context.Context) (decimal.Decimal, error)
	}

	transitionObserver interface {
		ObserveTransition(event Event, from, to Status)
	}
)
