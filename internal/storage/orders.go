package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"cnorder-bot/internal/stories/orders"
)

const ordersTable = "orders"

var orderRowFields = fields(orderRow{})

type orderRow struct {
	ID            int64          `db:"id"`
	CustomerID    int64          `db:"customer_id"`
	Amount        int64          `db:"amount"`
	Total         int64          `db:"total"`
	ExchangeRate  sql.NullString `db:"exchange_rate"`
	Status        int            `db:"status"`
	PaymentMethod sql.NullString `db:"payment_method"`
	OriginMsg     sql.NullInt64  `db:"origin_msg"`
	StatusMsg     sql.NullInt64  `db:"status_msg"`
	StatusChatID  sql.NullInt64  `db:"status_chat_id"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (o orderRow) ToModel() *orders.Order {
	order := &orders.Order{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Amount:     o.Amount,
		Total:      o.Total,
		Status:     orders.Status(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if o.ExchangeRate.Valid {
		if rate, err := decimal.NewFromString(o.ExchangeRate.String); err == nil {
			order.ExchangeRate = rate
		}
	}
	if o.PaymentMethod.Valid {
		method := orders.PaymentMethod(o.PaymentMethod.String)
		order.PaymentMethod = &method
	}
	// origin всегда в личном чате клиента
	if o.OriginMsg.Valid {
		order.OriginMessage = &orders.MessageRef{ChatID: o.CustomerID, MessageID: int(o.OriginMsg.Int64)}
	}
	if o.StatusMsg.Valid && o.StatusChatID.Valid {
		order.StatusMessage = &orders.MessageRef{ChatID: o.StatusChatID.Int64, MessageID: int(o.StatusMsg.Int64)}
	}
	return order
}

func (s *storageImpl) CreateOrder(ctx context.Context, order orders.Order, urls []string) (*orders.Order, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := s.now()
		params := map[string]interface{}{
			"customer_id": order.CustomerID,
			"amount":      order.Amount,
			"total":       order.Total,
			"status":      int(order.Status),
			"created_at":  now,
			"updated_at":  now,
		}

		q, args, err := s.stmpBuilder().
			Insert(ordersTable).
			SetMap(params).
			ToSql()
		if err != nil {
			return fmt.Errorf("build sql query: %w", err)
		}

		result, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("result.LastInsertId: %w", err)
		}

		for _, url := range urls {
			if _, err := s.insertItem(ctx, tx, id, url); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, orders.GetCriteria{ID: &id})
}

func (s *storageImpl) GetOrder(ctx context.Context, criteria orders.GetCriteria) (*orders.Order, error) {
	return s.getOrder(ctx, s.db, criteria)
}

func (s *storageImpl) getOrder(ctx context.Context, ext sqlx.ExtContext, criteria orders.GetCriteria) (*orders.Order, error) {
	query := s.stmpBuilder().
		Select(orderRowFields).
		From(ordersTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row orderRow
	if err := sqlx.GetContext(ctx, ext, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlx.GetContext: %w", err)
	}

	order := row.ToModel()
	items, err := s.listItems(ctx, ext, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

func (s *storageImpl) ListOrders(ctx context.Context, criteria orders.ListCriteria) ([]*orders.Order, error) {
	query := s.stmpBuilder().
		Select(orderRowFields).
		From(ordersTable)

	if criteria.CustomerID != nil {
		query = query.Where(sq.Eq{"customer_id": *criteria.CustomerID})
	}
	if len(criteria.Statuses) > 0 {
		statuses := make([]int, 0, len(criteria.Statuses))
		for _, st := range criteria.Statuses {
			statuses = append(statuses, int(st))
		}
		query = query.Where(sq.Eq{"status": statuses})
	}

	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]*orders.Order, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.ToModel())
		ids = append(ids, row.ID)
	}

	items, err := s.listItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range result {
		order.Items = items[order.ID]
	}

	return result, nil
}

// UpdateOrder обновляет заказ и привязки сообщений в одной транзакции.
// Если в criteria задан Status, строка обновляется только при совпадении статуса,
// иначе возвращается orders.ErrStatusChanged.
func (s *storageImpl) UpdateOrder(ctx context.Context, criteria orders.UpdateCriteria, params orders.UpdateParams) (*orders.Order, error) {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := s.stmpBuilder().
			Update(ordersTable).
			Set("updated_at", s.now()).
			Where(sq.Eq{"id": criteria.ID})

		if criteria.Status != nil {
			query = query.Where(sq.Eq{"status": int(*criteria.Status)})
		}

		if params.Status != nil {
			query = query.Set("status", int(*params.Status))
		}
		if params.Amount != nil {
			query = query.Set("amount", *params.Amount)
		}
		if params.Total != nil {
			query = query.Set("total", *params.Total)
		}
		if params.ExchangeRate != nil {
			query = query.Set("exchange_rate", params.ExchangeRate.String())
		}
		if params.PaymentMethod != nil {
			query = query.Set("payment_method", string(*params.PaymentMethod))
		}
		if params.OriginMessage != nil {
			query = query.Set("origin_msg", params.OriginMessage.MessageID)
		}
		if params.StatusMessage != nil {
			query = query.
				Set("status_msg", params.StatusMessage.MessageID).
				Set("status_chat_id", params.StatusMessage.ChatID)
		}

		q, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("build sql query: %w", err)
		}

		result, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("result.RowsAffected: %w", err)
		}
		if affected == 0 {
			if criteria.Status != nil {
				return orders.ErrStatusChanged
			}
			return orders.ErrOrderNotFound
		}

		if params.OriginMessage != nil {
			if err := s.linkMessage(ctx, tx, criteria.ID, *params.OriginMessage, orders.MessageRoleOrigin); err != nil {
				return err
			}
		}
		if params.StatusMessage != nil {
			if err := s.linkMessage(ctx, tx, criteria.ID, *params.StatusMessage, orders.MessageRoleStatus); err != nil {
				return err
			}
		}
		if params.Stats != nil {
			if err := s.saveStats(ctx, tx, *params.Stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, orders.GetCriteria{ID: &criteria.ID})
}

// DeleteOrder удаляет заказ вместе с позициями, привязками сообщений и статистикой.
// Возвращает заказ в том виде, каким он был до удаления.
func (s *storageImpl) DeleteOrder(ctx context.Context, criteria orders.DeleteCriteria) (*orders.Order, error) {
	var deleted *orders.Order
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.getOrder(ctx, tx, orders.GetCriteria{ID: &criteria.ID})
		if err != nil {
			return err
		}
		if order == nil {
			return orders.ErrOrderNotFound
		}

		for _, table := range []string{orderItemsTable, orderMessagesTable, orderStatsTable} {
			q, args, err := s.stmpBuilder().
				Delete(table).
				Where(sq.Eq{"order_id": criteria.ID}).
				ToSql()
			if err != nil {
				return fmt.Errorf("build sql query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return fmt.Errorf("tx.ExecContext(%s): %w", table, err)
			}
		}

		query := s.stmpBuilder().
			Delete(ordersTable).
			Where(sq.Eq{"id": criteria.ID})
		if len(criteria.Statuses) > 0 {
			statuses := make([]int, 0, len(criteria.Statuses))
			for _, st := range criteria.Statuses {
				statuses = append(statuses, int(st))
			}
			query = query.Where(sq.Eq{"status": statuses})
		}

		q, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("build sql query: %w", err)
		}

		result, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("tx.ExecContext: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("result.RowsAffected: %w", err)
		}
		// откатываем удаление позиций, если статус успел смениться
		if affected == 0 {
			return orders.ErrStatusChanged
		}

		deleted = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func (s *storageImpl) CountOrdersByStatus(ctx context.Context) (map[orders.Status]int, error) {
	q, args, err := s.stmpBuilder().
		Select("status", "COUNT(*) AS cnt").
		From(ordersTable).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []struct {
		Status int `db:"status"`
		Count  int `db:"cnt"`
	}
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make(map[orders.Status]int, len(rows))
	for _, row := range rows {
		result[orders.Status(row.Status)] = row.Count
	}
	return result, nil
}
