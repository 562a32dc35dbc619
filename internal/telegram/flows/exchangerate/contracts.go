package exchangerate

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/states"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	stateManager interface {
		SetState(chatID int64, state states.State, data any)
		GetExchangeRateData(chatID int64) (*flows.ExchangeRateFlowData, error)
		Clear(chatID int64)
	}

	settingsService interface {
		ExchangeRate(ctx context.Context) (decimal.Decimal, error)
		SetExchangeRate(ctx context.Context, rate decimal.Decimal) error
	}
)
