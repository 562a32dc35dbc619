package calculator

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
		GetCalculatorData(chatID int64) (*flows.CalculatorFlowData, error)
		Clear(chatID int64)
	}

	rateService interface {
		ExchangeRate(ctx context.Context) (decimal.Decimal, error)
	}
)
