package cart

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/states"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
		Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	}

	stateManager interface {
		GetState(chatID int64) states.State
		SetState(chatID int64, state states.State, data any)
		GetCartData(chatID int64) (*flows.CartFlowData, error)
		Clear(chatID int64)
	}

	orderService interface {
		StartCart(ctx context.Context, customerID int64, url string) (*orders.Order, error)
		AddItem(ctx context.Context, orderID int64, url string) (*orders.Order, error)
		Get(ctx context.Context, orderID int64) (*orders.Order, error)
		Checkout(ctx context.Context, orderID int64, origin, status orders.MessageRef) (*orders.Order, error)
	}

	linkChecker interface {
		Check(ctx context.Context, raw string) (string, error)
	}
)
