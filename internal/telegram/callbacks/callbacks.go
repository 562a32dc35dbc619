package callbacks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Кнопки меню
const (
	InfoAbout      = "info_about"
	InfoCalculator = "info_calculator"
	InfoOrder      = "info_order"
	InfoPrefix     = "info_"
)

const (
	CartCheckout = "cart_checkout"
	StatsRefresh = "stats_refresh"
)

// OrderAction - действие над заказом, id заказа передаётся в payload
type OrderAction string

const (
	OrderCancel       OrderAction = "cancel"
	OrderPayCard      OrderAction = "card"
	OrderPayCrypto    OrderAction = "crypto"
	OrderPaid         OrderAction = "paid"
	OrderUnpaidCard   OrderAction = "unpaid_card"
	OrderUnpaidCrypto OrderAction = "unpaid_crypto"

	OrderPrefix = "ord_"
)

var ErrMalformed = errors.New("malformed callback payload")

var knownActions = map[OrderAction]struct{}{
	OrderCancel:       {},
	OrderPayCard:      {},
	OrderPayCrypto:    {},
	OrderPaid:         {},
	OrderUnpaidCard:   {},
	OrderUnpaidCrypto: {},
}

// Order собирает payload вида "ord_<action>:<id>"
func Order(action OrderAction, orderID int64) string {
	return fmt.Sprintf("%s%s:%d", OrderPrefix, action, orderID)
}

// ParseOrder разбирает payload кнопки заказа
func ParseOrder(data string) (OrderAction, int64, error) {
	rest, ok := strings.CutPrefix(data, OrderPrefix)
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, data)
	}

	action, rawID, ok := strings.Cut(rest, ":")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, data)
	}
	if _, known := knownActions[OrderAction(action)]; !known {
		return "", 0, fmt.Errorf("%w: unknown action %q", ErrMalformed, action)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: bad order id %q", ErrMalformed, rawID)
	}

	return OrderAction(action), id, nil
}
