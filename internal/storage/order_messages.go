package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"cnorder-bot/internal/stories/orders"
)

const orderMessagesTable = "order_messages"

// linkMessage привязывает сообщение к заказу. У заказа одна привязка на роль:
// предыдущее сообщение той же роли отвязывается.
func (s *storageImpl) linkMessage(ctx context.Context, tx *sqlx.Tx, orderID int64, ref orders.MessageRef, role orders.MessageRole) error {
	q, args, err := s.stmpBuilder().
		Delete(orderMessagesTable).
		Where(sq.Eq{"order_id": orderID, "role": string(role)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("tx.ExecContext: %w", err)
	}

	q, args, err = s.stmpBuilder().
		Insert(orderMessagesTable).
		Options("OR REPLACE").
		SetMap(map[string]interface{}{
			"chat_id":    ref.ChatID,
			"message_id": ref.MessageID,
			"order_id":   orderID,
			"role":       string(role),
			"created_at": s.now(),
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

// FindOrderIDByMessage возвращает nil, если сообщение не привязано ни к одному заказу
func (s *storageImpl) FindOrderIDByMessage(ctx context.Context, ref orders.MessageRef, role orders.MessageRole) (*int64, error) {
	q, args, err := s.stmpBuilder().
		Select("order_id").
		From(orderMessagesTable).
		Where(sq.Eq{
			"chat_id":    ref.ChatID,
			"message_id": ref.MessageID,
			"role":       string(role),
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}
	return &id, nil
}
