package localization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	texts, err := NewTexts()
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"nested key", "report.daily_title", "Отчёт за сутки"},
		{"another section", "report.stats_title", "Статистика заказов"},
		{"missing key returns key", "info.nope", "info.nope"},
		{"key points to section", "info", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, texts.Text(tt.key, nil))
		})
	}
}

func TestTextPlaceholders(t *testing.T) {
	texts, err := NewTexts()
	require.NoError(t, err)

	text := texts.Text("info.about", map[string]interface{}{
		"rate": "11.5",
		"fee":  10,
	})
	require.Contains(t, text, "(11.5 руб. = 1 юань)")
	require.Contains(t, text, "комиссией 10%")
	require.NotContains(t, text, "{{")
}
