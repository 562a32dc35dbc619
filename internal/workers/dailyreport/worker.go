package dailyreport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"cnorder-bot/internal/telegram/flows"
	"cnorder-bot/internal/telegram/messages"
)

const (
	reportPeriod = 24 * time.Hour
	runTimeout   = time.Minute
)

// Worker раз в сутки отправляет в чат админов сводку по оплаченным заказам
type Worker struct {
	orders      SummaryService
	bot         Sender
	l10n        Localizer
	adminChatID int64
	schedule    string
	logger      *slog.Logger
	cron        *cron.Cron
	now         func() time.Time
}

func NewWorker(
	orders SummaryService,
	bot Sender,
	l10n Localizer,
	adminChatID int64,
	schedule string,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		orders:      orders,
		bot:         bot,
		l10n:        l10n,
		adminChatID: adminChatID,
		schedule:    schedule,
		logger:      logger,
		cron:        cron.New(),
		now:         time.Now,
	}
}

func (w *Worker) Name() string {
	return "dailyreport"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if err := w.Run(ctx); err != nil {
			w.logger.Error("Daily report failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule daily report %q: %w", w.schedule, err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping daily report worker")
	<-w.cron.Stop().Done()
}

// Run собирает сводку за последние сутки и отправляет её
func (w *Worker) Run(ctx context.Context) error {
	since := w.now().Add(-reportPeriod)

	summary, err := w.orders.Summary(ctx, since)
	if err != nil {
		return fmt.Errorf("summary since %s: %w", since.Format(time.RFC3339), err)
	}

	title := w.l10n.Text("report.daily_title", nil)
	if _, err := w.bot.Send(flows.NewHTML(w.adminChatID, messages.FormatSummary(title, summary))); err != nil {
		return fmt.Errorf("send daily report: %w", err)
	}

	w.logger.Info("Daily report sent",
		"paid_count", summary.PaidCount,
		"paid_total", summary.PaidTotal)
	return nil
}
