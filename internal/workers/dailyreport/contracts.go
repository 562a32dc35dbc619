package dailyreport

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cnorder-bot/internal/stories/orders"
)

type (
	SummaryService interface {
		Summary(ctx context.Context, since time.Time) (*orders.Summary, error)
	}

	Sender interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	Localizer interface {
		Text(key string, params map[string]interface{}) string
	}
)
