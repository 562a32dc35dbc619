package settings

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const exchangeRateVar = "exchange_rate"

var defaultExchangeRate = decimal.NewFromInt(1)

// Service хранит настраиваемые администратором значения в таблице variables
type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// ExchangeRate возвращает текущий курс юаня к рублю.
// Если переменная ещё не задана, используется 1.0.
func (s *Service) ExchangeRate(ctx context.Context) (decimal.Decimal, error) {
	value, err := s.storage.GetVariable(ctx, exchangeRateVar)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get exchange rate")
	}
	if value == nil {
		return defaultExchangeRate, nil
	}

	rate, err := decimal.NewFromString(*value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse stored exchange rate %q", *value)
	}
	return rate, nil
}

func (s *Service) SetExchangeRate(ctx context.Context, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return errors.New("exchange rate must be positive")
	}
	if err := s.storage.SetVariable(ctx, exchangeRateVar, rate.String()); err != nil {
		return errors.Wrap(err, "set exchange rate")
	}
	return nil
}
