// Package flowtest - общие моки и фикстуры для тестов флоу и команд
package flowtest

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"cnorder-bot/internal/infra/sqlite3"
	"cnorder-bot/internal/storage"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/stories/settings"
)

// MockBotApi - мок Telegram Bot API, запоминает всё отправленное
type MockBotApi struct {
	SentMessages []tgbotapi.Chattable
	Requests     []tgbotapi.Chattable

	// FailSend, если задан, решает, какие отправки завершатся ошибкой.
	// Неудачные отправки не попадают в SentMessages.
	FailSend func(c tgbotapi.Chattable) error
}

func (m *MockBotApi) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m.FailSend != nil {
		if err := m.FailSend(c); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	m.SentMessages = append(m.SentMessages, c)
	return tgbotapi.Message{MessageID: len(m.SentMessages)}, nil
}

func (m *MockBotApi) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.Requests = append(m.Requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Last возвращает последнее отправленное сообщение
func (m *MockBotApi) Last() tgbotapi.Chattable {
	if len(m.SentMessages) == 0 {
		return nil
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

// Texts собирает тексты и подписи отправленных сообщений
func (m *MockBotApi) Texts() []string {
	texts := make([]string, 0, len(m.SentMessages))
	for _, c := range m.SentMessages {
		texts = append(texts, Text(c))
	}
	return texts
}

// Deleted возвращает id удалённых сообщений
func (m *MockBotApi) Deleted() []int {
	var ids []int
	for _, c := range m.Requests {
		if d, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			ids = append(ids, d.MessageID)
		}
	}
	return ids
}

// Reset забывает всё отправленное; id сообщений продолжают расти
func (m *MockBotApi) Reset() {
	m.SentMessages = m.SentMessages[:0:0]
	m.Requests = nil
}

// Text достаёт текст из сообщения, редактирования или подписи к фото
func Text(c tgbotapi.Chattable) string {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.Text
	case tgbotapi.EditMessageTextConfig:
		return v.Text
	case tgbotapi.PhotoConfig:
		return v.Caption
	case tgbotapi.DocumentConfig:
		return v.Caption
	default:
		return ""
	}
}

// ChatOf возвращает чат, в который ушло сообщение
func ChatOf(c tgbotapi.Chattable) int64 {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.ChatID
	case tgbotapi.EditMessageTextConfig:
		return v.ChatID
	case tgbotapi.PhotoConfig:
		return v.ChatID
	case tgbotapi.DocumentConfig:
		return v.ChatID
	default:
		return 0
	}
}

// Services - сервисы поверх sqlite в памяти с настоящими миграциями
type Services struct {
	Orders   *orders.Service
	Settings *settings.Service
}

func NewServices(t *testing.T) Services {
	t.Helper()

	db, err := sqlite3.New(context.Background(), sqlite3.WithMigrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st := storage.New(db.DB)
	settingsService := settings.NewService(st)

	return Services{
		Orders:   orders.NewService(st, settingsService, nil),
		Settings: settingsService,
	}
}

// PrivateMessage - текстовое сообщение в личке от пользователя userID
func PrivateMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1000,
		From:      &tgbotapi.User{ID: userID, FirstName: "Иван"},
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		Text:      text,
	}
}

// Callback - нажатие кнопки под сообщением messageID в чате chatID
func Callback(userID, chatID int64, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: userID, FirstName: "Иван"},
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
		Data: data,
	}
}

// Command - команда вида "/accept 100" в чате chatID; replyTo == 0 - без ответа
func Command(userID, chatID int64, text string, replyTo int) *tgbotapi.Message {
	name := text
	if i := strings.IndexByte(text, ' '); i > 0 {
		name = text[:i]
	}

	msg := &tgbotapi.Message{
		MessageID: 2000,
		From:      &tgbotapi.User{ID: userID, FirstName: "Админ"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
	if replyTo != 0 {
		msg.ReplyToMessage = &tgbotapi.Message{MessageID: replyTo, Chat: &tgbotapi.Chat{ID: chatID}}
	}
	return msg
}
