package states

import (
	"fmt"
	"sync"

	"cnorder-bot/internal/telegram/flows"
)

// Manager управляет состояниями диалогов в памяти, по одному на чат
type Manager struct {
	mu         sync.RWMutex
	chatStates map[int64]State
	chatData   map[int64]any
}

// NewManager создает новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		chatStates: make(map[int64]State),
		chatData:   make(map[int64]any),
	}
}

// GetState получает текущее состояние чата
func (m *Manager) GetState(chatID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.chatStates[chatID]
	if !exists {
		return StateNone
	}
	return state
}

// GetData получает данные флоу
func (m *Manager) GetData(chatID int64) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.chatData[chatID]
}

// SetState устанавливает состояние; data == nil оставляет прежние данные
func (m *Manager) SetState(chatID int64, state State, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chatStates[chatID] = state
	if data != nil {
		m.chatData[chatID] = data
	}
}

// Clear очищает состояние чата
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.chatStates, chatID)
	delete(m.chatData, chatID)
}

// GetCartData получает данные флоу оформления заказа
func (m *Manager) GetCartData(chatID int64) (*flows.CartFlowData, error) {
	return getData[*flows.CartFlowData](m, chatID)
}

// GetCalculatorData получает данные флоу калькулятора
func (m *Manager) GetCalculatorData(chatID int64) (*flows.CalculatorFlowData, error) {
	return getData[*flows.CalculatorFlowData](m, chatID)
}

// GetExchangeRateData получает данные флоу изменения курса
func (m *Manager) GetExchangeRateData(chatID int64) (*flows.ExchangeRateFlowData, error) {
	return getData[*flows.ExchangeRateFlowData](m, chatID)
}

func getData[T any](m *Manager, chatID int64) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	data, exists := m.chatData[chatID]
	if !exists {
		return zero, fmt.Errorf("no data for chat %d", chatID)
	}

	flowData, ok := data.(T)
	if !ok {
		return zero, fmt.Errorf("invalid data type for chat %d", chatID)
	}

	return flowData, nil
}
