package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"cnorder-bot/internal/stories/orders"
)

const orderStatsTable = "order_stats"

func (s *storageImpl) saveStats(ctx context.Context, tx *sqlx.Tx, stats orders.Stats) error {
	q, args, err := s.stmpBuilder().
		Insert(orderStatsTable).
		Options("OR REPLACE").
		SetMap(map[string]interface{}{
			"order_id":      stats.OrderID,
			"exchange_rate": stats.ExchangeRate.String(),
			"fee":           stats.Fee,
			"total":         stats.Total,
			"created_at":    stats.CreatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("tx.ExecContext: %w", err)
	}
	return nil
}

// SumPaidStats считает количество оплат, оборот и комиссию с момента since
func (s *storageImpl) SumPaidStats(ctx context.Context, since time.Time) (int, int64, int64, error) {
	q, args, err := s.stmpBuilder().
		Select("COUNT(*) AS cnt", "COALESCE(SUM(total), 0) AS total", "COALESCE(SUM(fee), 0) AS fee").
		From(orderStatsTable).
		Where(sq.GtOrEq{"created_at": since.UTC()}).
		ToSql()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("build sql query: %w", err)
	}

	var row struct {
		Count int   `db:"cnt"`
		Total int64 `db:"total"`
		Fee   int64 `db:"fee"`
	}
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		return 0, 0, 0, fmt.Errorf("db.GetContext: %w", err)
	}
	return row.Count, row.Total, row.Fee, nil
}
