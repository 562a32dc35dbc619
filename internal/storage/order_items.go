package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"cnorder-bot/internal/stories/orders"
)

const orderItemsTable = "order_items"

var orderItemRowFields = fields(orderItemRow{})

type orderItemRow struct {
	ID        int64     `db:"id"`
	OrderID   int64     `db:"order_id"`
	URL       string    `db:"url"`
	CreatedAt time.Time `db:"created_at"`
}

func (i orderItemRow) ToModel() orders.Item {
	return orders.Item{
		ID:        i.ID,
		OrderID:   i.OrderID,
		URL:       i.URL,
		CreatedAt: i.CreatedAt,
	}
}

func (s *storageImpl) AddOrderItem(ctx context.Context, orderID int64, url string) (*orders.Item, error) {
	var item *orders.Item
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		item, err = s.insertItem(ctx, tx, orderID, url)
		if err != nil {
			return err
		}

		q, args, err := s.stmpBuilder().
			Update(ordersTable).
			Set("updated_at", s.now()).
			Where(sq.Eq{"id": orderID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build sql query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *storageImpl) insertItem(ctx context.Context, tx *sqlx.Tx, orderID int64, url string) (*orders.Item, error) {
	now := s.now()
	q, args, err := s.stmpBuilder().
		Insert(orderItemsTable).
		SetMap(map[string]interface{}{
			"order_id":   orderID,
			"url":        url,
			"created_at": now,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	result, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("tx.ExecContext: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId: %w", err)
	}

	return &orders.Item{ID: id, OrderID: orderID, URL: url, CreatedAt: now}, nil
}

// listItems возвращает позиции заказов, сгруппированные по order_id, в порядке добавления
func (s *storageImpl) listItems(ctx context.Context, ext sqlx.ExtContext, orderIDs []int64) (map[int64][]orders.Item, error) {
	result := make(map[int64][]orders.Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	q, args, err := s.stmpBuilder().
		Select(orderItemRowFields).
		From(orderItemsTable).
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []orderItemRow
	if err := sqlx.SelectContext(ctx, ext, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("sqlx.SelectContext: %w", err)
	}

	for _, row := range rows {
		result[row.OrderID] = append(result[row.OrderID], row.ToModel())
	}
	return result, nil
}
