package flows

// CartFlowData - данные оформления заказа
type CartFlowData struct {
	OrderID       int64 // 0, пока не добавлена первая ссылка
	CartMessageID int   // сообщение с корзиной, которое редактируется
}

// CalculatorFlowData - данные калькулятора
type CalculatorFlowData struct {
	PromptMessageID int
}

// ExchangeRateFlowData - данные изменения курса
type ExchangeRateFlowData struct {
	PromptMessageID int
}
