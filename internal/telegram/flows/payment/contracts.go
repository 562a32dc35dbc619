package payment

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cnorder-bot/internal/stories/orders"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
		Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	}

	orderService interface {
		Get(ctx context.Context, orderID int64) (*orders.Order, error)
		FindByMessage(ctx context.Context, ref orders.MessageRef, role orders.MessageRole) (*orders.Order, error)
		Cancel(ctx context.Context, orderID int64) (*orders.Order, error)
		ChooseMethod(ctx context.Context, orderID int64, method orders.PaymentMethod, origin orders.MessageRef) (*orders.Order, error)
		SubmitProof(ctx context.Context, orderID int64, method orders.PaymentMethod, origin, status orders.MessageRef) (*orders.Order, error)
		RejectPayment(ctx context.Context, orderID int64, method orders.PaymentMethod, origin, status orders.MessageRef) (*orders.Order, error)
		ConfirmPayment(ctx context.Context, orderID int64, origin, status orders.MessageRef) (*orders.Order, error)
	}
)
