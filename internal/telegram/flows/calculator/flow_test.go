package calculator

import (
	"context"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cnorder-bot/internal/telegram/flows/flowtest"
	"cnorder-bot/internal/telegram/messages"
	"cnorder-bot/internal/telegram/states"
)

type fixedRate string

func (r fixedRate) ExchangeRate(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString(string(r)), nil
}

func TestCalculator(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantState states.State
	}{
		{
			name:      "integer price",
			input:     "100",
			want:      "<b>Итого: 1210 руб.</b>",
			wantState: states.StateNone,
		},
		{
			name:      "comma separator and ceil",
			input:     " 33,3 ",
			want:      "<b>Итого: 404 руб.</b>",
			wantState: states.StateNone,
		},
		{
			name:      "not a number",
			input:     "дорого",
			want:      messages.CalcInvalid,
			wantState: states.CalcWaitPrice,
		},
		{
			name:      "zero",
			input:     "0",
			want:      messages.CalcInvalid,
			wantState: states.CalcWaitPrice,
		},
		{
			name:      "out of range",
			input:     "99999999999999999999",
			want:      messages.CalcInvalid,
			wantState: states.CalcWaitPrice,
		},
		{
			name:      "exponent notation",
			input:     "1e18",
			want:      messages.CalcInvalid,
			wantState: states.CalcWaitPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			bot := &flowtest.MockBotApi{}
			sm := states.NewManager()
			h := NewHandler(bot, sm, fixedRate("11"), 10, slog.Default())

			require.NoError(t, h.Start(ctx, 42))
			require.Contains(t, flowtest.Text(bot.Last()), "11 руб. = 1 юань")

			data, err := sm.GetCalculatorData(42)
			require.NoError(t, err)
			require.Equal(t, 1, data.PromptMessageID)

			update := &tgbotapi.Update{Message: flowtest.PrivateMessage(42, tt.input)}
			require.NoError(t, h.Handle(ctx, update, sm.GetState(42)))

			require.Contains(t, flowtest.Text(bot.Last()), tt.want)
			require.Equal(t, tt.wantState, sm.GetState(42))
		})
	}
}
