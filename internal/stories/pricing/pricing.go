package pricing

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("amount must be a positive number")

	hundred = decimal.NewFromInt(100)

	// MaxAmount - верхняя граница для любого введённого числа
	MaxAmount = decimal.NewFromInt(1_000_000_000_000)

	maxRoubles = decimal.NewFromInt(math.MaxInt64)
)

// Quote - расчёт стоимости заказа в рублях
type Quote struct {
	Source     decimal.Decimal // цена в юанях
	Rate       decimal.Decimal
	FeePercent decimal.Decimal
	Price      int64
	Fee        int64
	Total      int64
}

// Calculate переводит цену в рубли и добавляет комиссию.
// Все округления вверх: price = ceil(source*rate), fee = ceil(price*pct/100),
// total = ceil(price + price*pct/100).
// Если итог не помещается в int64, возвращается ErrInvalidAmount.
func Calculate(source, rate, feePercent decimal.Decimal) (Quote, error) {
	price := source.Mul(rate).Ceil()
	feeRaw := price.Mul(feePercent).Div(hundred)
	fee := feeRaw.Ceil()
	total := price.Add(feeRaw).Ceil()

	for _, v := range []decimal.Decimal{price, fee, total} {
		if v.IsNegative() || v.GreaterThan(maxRoubles) {
			return Quote{}, ErrInvalidAmount
		}
	}

	return Quote{
		Source:     source,
		Rate:       rate,
		FeePercent: feePercent,
		Price:      price.IntPart(),
		Fee:        fee.IntPart(),
		Total:      total.IntPart(),
	}, nil
}

// ParseAmount разбирает число, введённое человеком: пробелы по краям
// обрезаются, запятая допускается как десятичный разделитель.
// Значение должно быть в (0, MaxAmount], пробелы внутри числа и
// экспоненциальная запись не принимаются.
func ParseAmount(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" || strings.ContainsAny(s, " \t\n\r") || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() || d.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
