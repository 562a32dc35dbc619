package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"cnorder-bot/internal/telegram/callbacks"
	"cnorder-bot/internal/telegram/cmds"
	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/flows/calculator"
	"cnorder-bot/internal/telegram/flows/cart"
	"cnorder-bot/internal/telegram/flows/exchangerate"
	"cnorder-bot/internal/telegram/flows/payment"
	"cnorder-bot/internal/telegram/messages"
	"cnorder-bot/internal/telegram/states"
)

type Router struct {
	bot          botApi
	stateManager stateManager
	adminChecker adminChecker
	metrics      updateObserver
	logger       *slog.Logger

	// Handlers
	cartHandler         *cart.Handler
	paymentHandler      *payment.Handler
	calculatorHandler   *calculator.Handler
	exchangeRateHandler *exchangerate.Handler
	reviewCommand       *cmds.ReviewCommand
	infoCommand         *cmds.InfoCommand
	statsCommand        *cmds.StatsCommand
	exportCommand       *cmds.ExportCommand
}

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type stateManager interface {
	GetState(chatID int64) states.State
	Clear(chatID int64)
}

type adminChecker interface {
	IsAdmin(telegramID int64) bool
	IsAdminChat(chatID int64) bool
	AdminIDs() []int64
	AdminChatID() int64
}

type updateObserver interface {
	ObserveUpdate(kind string, err error)
}

// Route обрабатывает одно обновление. Паника в обработчике превращается в ошибку.
func (r *Router) Route(ctx context.Context, update *tgbotapi.Update) (err error) {
	userID := extractUserID(update)
	chatID := extractChatID(update)
	if userID == 0 || chatID == 0 {
		return nil // Некорректный update
	}

	kind := updateKind(update)
	logger := r.logger.With(
		"update_id", update.UpdateID,
		"trace_id", uuid.NewString(),
		"user_id", userID,
		"chat_id", chatID,
		"kind", kind,
	)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in handler: %v", rec)
			logger.Error("handler panicked", "panic", rec, "stack", string(debug.Stack()))
		}
		r.metrics.ObserveUpdate(kind, err)
	}()

	logger.Debug("update received", "state", r.stateManager.GetState(chatID))

	return r.route(ctx, update, userID, chatID)
}

func (r *Router) route(ctx context.Context, update *tgbotapi.Update, userID, chatID int64) error {
	// Глобальная отмена работает из любого состояния
	if msg := update.Message; msg != nil && isCancel(msg) {
		return r.handleGlobalCancel(chatID)
	}

	// ПРИОРИТЕТ: команды отменяют любой флоу
	if update.Message != nil && update.Message.IsCommand() {
		r.stateManager.Clear(chatID)
		return r.handleCommand(ctx, update.Message, userID)
	}

	if update.CallbackQuery != nil {
		return r.handleCallback(ctx, update.CallbackQuery, userID, chatID)
	}

	msg := update.Message
	if msg == nil {
		return nil
	}

	state := r.stateManager.GetState(chatID)
	if state != states.StateNone {
		return r.handleState(ctx, update, state, userID)
	}

	// Вне диалогов в группах бот молчит
	if !msg.Chat.IsPrivate() {
		return nil
	}

	switch {
	case len(msg.Photo) > 0:
		return r.paymentHandler.HandleCardProof(ctx, msg)
	case msg.ReplyToMessage != nil && strings.TrimSpace(msg.Text) != "":
		return r.paymentHandler.HandleCryptoProof(ctx, msg)
	default:
		return r.infoCommand.Help(chatID, msg.From, r.adminChecker.IsAdmin(userID))
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID int64) error {
	chatID := msg.Chat.ID
	private := msg.Chat.IsPrivate()
	isAdmin := r.adminChecker.IsAdmin(userID)

	switch msg.Command() {
	case "accept":
		if !r.adminChecker.IsAdminChat(chatID) {
			return nil
		}
		return r.reviewCommand.Accept(ctx, msg)
	case "deny":
		if !r.adminChecker.IsAdminChat(chatID) {
			return nil
		}
		return r.reviewCommand.Deny(ctx, msg)
	case "stats":
		if !isAdmin {
			return r.sendNoPermissions(chatID)
		}
		return r.statsCommand.Execute(ctx, chatID)
	case "export":
		if !isAdmin {
			return r.sendNoPermissions(chatID)
		}
		return r.exportCommand.Execute(ctx, chatID)
	}

	if !private {
		return nil
	}

	switch msg.Command() {
	case "start", "help":
		return r.infoCommand.Help(chatID, msg.From, isAdmin)
	case "about":
		return r.infoCommand.About(ctx, chatID)
	case "calculator":
		return r.calculatorHandler.Start(ctx, chatID)
	case "order":
		return r.cartHandler.Start(chatID)
	case "exchange_rate":
		if !isAdmin {
			return r.sendNoPermissions(chatID)
		}
		return r.exchangeRateHandler.Start(ctx, chatID)
	default:
		return r.infoCommand.Help(chatID, msg.From, isAdmin)
	}
}

func (r *Router) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64) error {
	data := query.Data

	switch {
	case data == callbacks.StatsRefresh:
		if !r.adminChecker.IsAdmin(userID) {
			r.answer(query, "❌ Нет прав")
			return nil
		}
		r.answer(query, "✅ Обновлено")
		return r.statsCommand.Refresh(ctx, chatID, query.Message.MessageID)
	case strings.HasPrefix(data, callbacks.InfoPrefix):
		return r.handleMenu(ctx, query, chatID)
	case data == callbacks.CartCheckout:
		return r.cartHandler.Checkout(ctx, query)
	case strings.HasPrefix(data, callbacks.OrderPrefix):
		return r.paymentHandler.HandleCallback(ctx, query)
	default:
		r.answer(query, "")
		return fmt.Errorf("unknown callback: %q", data)
	}
}

// handleMenu - кнопки главного меню, повторяют команды
func (r *Router) handleMenu(ctx context.Context, query *tgbotapi.CallbackQuery, chatID int64) error {
	r.answer(query, "")

	switch query.Data {
	case callbacks.InfoAbout:
		return r.infoCommand.About(ctx, chatID)
	case callbacks.InfoCalculator:
		r.stateManager.Clear(chatID)
		return r.calculatorHandler.Start(ctx, chatID)
	case callbacks.InfoOrder:
		r.stateManager.Clear(chatID)
		return r.cartHandler.Start(chatID)
	default:
		return fmt.Errorf("unknown menu callback: %q", query.Data)
	}
}

func (r *Router) handleState(ctx context.Context, update *tgbotapi.Update, state states.State, userID int64) error {
	stateStr := string(state)

	switch {
	case strings.HasPrefix(stateStr, "cart_"):
		return r.cartHandler.Handle(ctx, update, state)
	case strings.HasPrefix(stateStr, "calc_"):
		return r.calculatorHandler.Handle(ctx, update, state)
	case strings.HasPrefix(stateStr, "rate_"):
		if !r.adminChecker.IsAdmin(userID) {
			r.stateManager.Clear(update.Message.Chat.ID)
			return r.sendNoPermissions(update.Message.Chat.ID)
		}
		return r.exchangeRateHandler.Handle(ctx, update, state)
	default:
		r.stateManager.Clear(update.Message.Chat.ID)
		return fmt.Errorf("unknown state: %s", state)
	}
}

// handleGlobalCancel сбрасывает диалог; заказы в базе не трогает
func (r *Router) handleGlobalCancel(chatID int64) error {
	if r.stateManager.GetState(chatID) == states.StateNone {
		return nil
	}
	r.stateManager.Clear(chatID)

	_, err := r.bot.Send(flows.NewHTML(chatID, messages.Cancelled))
	return err
}

func (r *Router) sendNoPermissions(chatID int64) error {
	_, err := r.bot.Send(flows.NewHTML(chatID, messages.NoPermissions))
	return err
}

func (r *Router) answer(query *tgbotapi.CallbackQuery, text string) {
	_, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, text))
}

func isCancel(msg *tgbotapi.Message) bool {
	if msg.IsCommand() {
		return msg.Command() == "cancel"
	}
	return strings.EqualFold(strings.TrimSpace(msg.Text), "cancel")
}

func updateKind(update *tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && update.Message.IsCommand():
		return "command"
	case update.Message != nil && len(update.Message.Photo) > 0:
		return "photo"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}

func extractUserID(update *tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

func extractChatID(update *tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func NewRouter(
	bot botApi,
	stateManager stateManager,
	adminChecker adminChecker,
	metrics updateObserver,
	logger *slog.Logger,
	cartHandler *cart.Handler,
	paymentHandler *payment.Handler,
	calculatorHandler *calculator.Handler,
	exchangeRateHandler *exchangerate.Handler,
	reviewCommand *cmds.ReviewCommand,
	infoCommand *cmds.InfoCommand,
	statsCommand *cmds.StatsCommand,
	exportCommand *cmds.ExportCommand,
) *Router {
	return &Router{
		bot:                 bot,
		stateManager:        stateManager,
		adminChecker:        adminChecker,
		metrics:             metrics,
		logger:              logger,
		cartHandler:         cartHandler,
		paymentHandler:      paymentHandler,
		calculatorHandler:   calculatorHandler,
		exchangeRateHandler: exchangeRateHandler,
		reviewCommand:       reviewCommand,
		infoCommand:         infoCommand,
		statsCommand:        statsCommand,
		exportCommand:       exportCommand,
	}
}

// SetupBotCommands устанавливает команды для меню бота
func (r *Router) SetupBotCommands() error {
	// Команды для всех пользователей
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Главное меню"},
		{Command: "order", Description: "Сделать заказ"},
		{Command: "calculator", Description: "Калькулятор стоимости"},
		{Command: "about", Description: "О нас"},
		{Command: "cancel", Description: "Отменить текущее действие"},
	}
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("set default commands: %w", err)
	}

	adminCommands := append(commands[:len(commands):len(commands)],
		tgbotapi.BotCommand{Command: "exchange_rate", Description: "Установить курс с наценкой"},
		tgbotapi.BotCommand{Command: "stats", Description: "Статистика заказов"},
		tgbotapi.BotCommand{Command: "export", Description: "Выгрузка заказов в Excel"},
	)
	for _, adminID := range r.adminChecker.AdminIDs() {
		scope := tgbotapi.NewBotCommandScopeChat(adminID)
		if _, err := r.bot.Request(tgbotapi.NewSetMyCommandsWithScope(scope, adminCommands...)); err != nil {
			r.logger.Warn("failed to set admin commands", "admin_id", adminID, "error", err)
		}
	}

	reviewCommands := []tgbotapi.BotCommand{
		{Command: "accept", Description: "Подтвердить заказ (сумма в юанях)"},
		{Command: "deny", Description: "Отклонить заказ (причина)"},
		{Command: "stats", Description: "Статистика заказов"},
		{Command: "export", Description: "Выгрузка заказов в Excel"},
	}
	scope := tgbotapi.NewBotCommandScopeChat(r.adminChecker.AdminChatID())
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommandsWithScope(scope, reviewCommands...)); err != nil {
		r.logger.Warn("failed to set admin chat commands", "error", err)
	}

	return nil
}
