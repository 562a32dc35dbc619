package environment

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/localization"
	"cnorder-bot/internal/metrics"
	"cnorder-bot/internal/storage"
	"cnorder-bot/internal/stories/orders"
	"cnorder-bot/internal/stories/settings"
	"cnorder-bot/internal/telegram"
	"cnorder-bot/internal/telegram/cmds"
	"cnorder-bot/internal/telegram/flows/calculator"
	"cnorder-bot/internal/telegram/flows/cart"
	"cnorder-bot/internal/telegram/flows/exchangerate"
	"cnorder-bot/internal/telegram/flows/payment"
	"cnorder-bot/internal/telegram/states"
	"cnorder-bot/internal/workers"
	"cnorder-bot/internal/workers/dailyreport"
)

type Services struct {
	TelegramRouter *telegram.Router
	WorkerService  *workers.Manager
	Metrics        *metrics.Collector
	Registry       *prometheus.Registry
}

func newServices(_ context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	if clients.TelegramBot == nil {
		return nil, errors.New("telegram bot не инициализирован")
	}
	bot := clients.TelegramBot

	s.Registry = prometheus.NewRegistry()
	s.Registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	s.Metrics = metrics.New(s.Registry)

	storageImpl := storage.New(clients.SQLiteDB.DB)

	settingsService := settings.NewService(storageImpl)
	orderService := orders.NewService(storageImpl, settingsService, s.Metrics)

	l10n, err := localization.NewTexts()
	if err != nil {
		return nil, errors.Wrap(err, "load texts")
	}

	stateManager := states.NewManager()
	adminChecker := telegram.NewAdminChecker(cfg.Telegram)
	adminChatID := cfg.Telegram.AdminChatID

	// Флоу
	cartHandler := cart.NewHandler(bot, stateManager, orderService, clients.LinkChecker, adminChatID, logger.With("flow", "cart"))
	paymentHandler := payment.NewHandler(bot, orderService, cfg.Payment, adminChatID, logger.With("flow", "payment"))
	calculatorHandler := calculator.NewHandler(bot, stateManager, settingsService, cfg.Payment.FeePercent, logger.With("flow", "calculator"))
	exchangeRateHandler := exchangerate.NewHandler(bot, stateManager, settingsService, logger.With("flow", "exchange_rate"))

	// Команды
	reviewCommand := cmds.NewReviewCommand(bot, orderService, settingsService, cfg.Payment, logger.With("cmd", "review"))
	infoCommand := cmds.NewInfoCommand(bot, l10n, settingsService, cfg.Shop, cfg.Payment.FeePercent)
	statsCommand := cmds.NewStatsCommand(bot, orderService, l10n)
	exportCommand := cmds.NewExportCommand(bot, orderService, logger.With("cmd", "export"))

	s.TelegramRouter = telegram.NewRouter(
		bot,
		stateManager,
		adminChecker,
		s.Metrics,
		logger,
		cartHandler,
		paymentHandler,
		calculatorHandler,
		exchangeRateHandler,
		reviewCommand,
		infoCommand,
		statsCommand,
		exportCommand,
	)

	s.WorkerService = workers.NewManager(logger,
		dailyreport.NewWorker(orderService, bot, l10n, adminChatID, cfg.Reports.DailyCron, logger.With("worker", "dailyreport")),
	)

	return &s, nil
}
