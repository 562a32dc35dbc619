package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const variablesTable = "variables"

func (s *storageImpl) GetVariable(ctx context.Context, name string) (*string, error) {
	q, args, err := s.stmpBuilder().
		Select("value").
		From(variablesTable).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var value string
	if err := s.db.GetContext(ctx, &value, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}
	return &value, nil
}

func (s *storageImpl) SetVariable(ctx context.Context, name, value string) error {
	q, args, err := s.stmpBuilder().
		Insert(variablesTable).
		Options("OR REPLACE").
		Columns("name", "value").
		Values(name, value).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}
	return nil
}
