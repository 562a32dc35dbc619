package telegram

import (
	"cnorder-bot/internal/config"
)

// AdminChecker проверяет права: админы по списку id и чат админов для рассмотрения заказов
type AdminChecker struct {
	cfg config.TelegramConfig
}

// NewAdminChecker создает новый проверялка админов
func NewAdminChecker(cfg config.TelegramConfig) *AdminChecker {
	return &AdminChecker{cfg: cfg}
}

// IsAdmin проверяет является ли пользователь с данным Telegram ID админом
func (a *AdminChecker) IsAdmin(telegramID int64) bool {
	return a.cfg.IsAdmin(telegramID)
}

// IsAdminChat проверяет, что сообщение пришло из чата админов
func (a *AdminChecker) IsAdminChat(chatID int64) bool {
	return chatID == a.cfg.AdminChatID
}

func (a *AdminChecker) AdminIDs() []int64 {
	return a.cfg.AdminIDs
}

func (a *AdminChecker) AdminChatID() int64 {
	return a.cfg.AdminChatID
}
