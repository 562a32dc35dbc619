package cmds

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/localization"
	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/flows/flowtest"
)

func newInfoCommand(t *testing.T, shop config.ShopConfig) (*InfoCommand, *flowtest.MockBotApi) {
	t.Helper()

	l10n, err := localization.NewTexts()
	require.NoError(t, err)

	svc := flowtest.NewServices(t)
	bot := &flowtest.MockBotApi{}
	return NewInfoCommand(bot, l10n, svc.Settings, shop, 10), bot
}

func TestHelp(t *testing.T) {
	tests := []struct {
		name      string
		isAdmin   bool
		shop      config.ShopConfig
		wantAdmin bool
		wantRows  int
	}{
		{
			name:     "customer without links",
			wantRows: 3,
		},
		{
			name:      "admin with links",
			isAdmin:   true,
			shop:      config.ShopConfig{FeedbackURL: "https://t.me/feedback", ContactURL: "https://t.me/support"},
			wantAdmin: true,
			wantRows:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, bot := newInfoCommand(t, tt.shop)

			require.NoError(t, cmd.Help(42, &tgbotapi.User{ID: 42, FirstName: "<Иван>"}, tt.isAdmin))

			msg, ok := bot.Last().(tgbotapi.MessageConfig)
			require.True(t, ok)
			require.Contains(t, msg.Text, "Привет, &lt;Иван&gt;!")
			require.Equal(t, tt.wantAdmin, containsAdminSection(msg.Text))

			keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
			require.True(t, ok)
			require.Len(t, keyboard.InlineKeyboard, tt.wantRows)
			require.Equal(t, callbacks.InfoAbout, *keyboard.InlineKeyboard[0][0].CallbackData)
		})
	}
}

func TestAboutShowsRate(t *testing.T) {
	cmd, bot := newInfoCommand(t, config.ShopConfig{})

	require.NoError(t, cmd.About(context.Background(), 42))
	require.Contains(t, flowtest.Text(bot.Last()), "(1 руб. = 1 юань)")
	require.Contains(t, flowtest.Text(bot.Last()), "комиссией 10%")
}

func containsAdminSection(text string) bool {
	return strings.Contains(text, "/exchange_rate") && strings.Contains(text, "/accept")
}
