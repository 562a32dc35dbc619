package environment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cnorder-bot/internal/config"
	"cnorder-bot/internal/infra/linkcheck"
	"cnorder-bot/internal/infra/sqlite3"
	"cnorder-bot/internal/infra/telegram"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	TelegramBot *telegram.Client
	LinkChecker *linkcheck.Checker
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	telegramBot, err := telegram.NewClient(cfg.Telegram.BotToken, logger)
	if err != nil {
		_ = sqliteDB.Close()
		return nil, err
	}

	return &Clients{
		SQLiteDB:    sqliteDB,
		TelegramBot: telegramBot,
		LinkChecker: linkcheck.New(
			linkcheck.WithProbe(cfg.LinkCheck.Enabled),
			linkcheck.WithTimeout(cfg.LinkCheck.Timeout),
		),
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, fmt.Errorf("parse DB_MAX_LIFETIME: %w", err)
	}

	opts := []sqlite3.Option{
		sqlite3.WithDSN(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
		sqlite3.WithMigrations(),
	}

	return sqlite3.New(ctx, opts...)
}
