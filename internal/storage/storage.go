package storage

import (
	"reflect"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"cnorder-bot/internal/infra/sqlite3"
)

type storageImpl struct {
	db     *sqlx.DB
	withTx sqlite3.TxManager
	now    func() time.Time
}

func New(db *sqlx.DB) *storageImpl {
	return &storageImpl{
		db:     db,
		withTx: sqlite3.WithTx(db, nil),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *storageImpl) stmpBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Fields возвращает список всех полей структуры, которые есть в БД.
func fields(data any) string {
	var s string
	r := reflect.TypeOf(data)
	for i := 0; i < r.NumField(); i++ {
		tag := r.Field(i).Tag.Get("db")
		if tag != "" {
			s += tag + ","
		}
	}
	return s[:len(s)-1]
}
