package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	environment "cnorder-bot/internal/env"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := environment.Setup(ctx)
	if err != nil {
		log.Fatalf("Failed to setup environment: %v", err)
	}

	logger := env.Logger
	logger.Info("Starting cnorder-bot")

	go func() {
		srv := env.Servers.HTTP.Observability
		logger.Info("Starting observability server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Observability server error", slog.Any("error", err))
		}
	}()

	var wg sync.WaitGroup
	if err := startTelegramBot(ctx, env, &wg); err != nil {
		logger.Error("Failed to start telegram bot", slog.Any("error", err))
		shutdown(env)
		return
	}

	if err := env.Services.WorkerService.Start(); err != nil {
		logger.Error("Failed to start workers", slog.Any("error", err))
		stop()
	}

	logger.Info("Bot started successfully. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("Shutting down application...")
	env.Services.WorkerService.Stop()
	// Дожидаемся обновления, которое обрабатывается прямо сейчас
	wg.Wait()
	shutdown(env)
}

func shutdown(env *environment.Env) {
	logger := env.Logger

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.Config.ShutdownDuration)
	defer cancel()

	if err := env.Servers.HTTP.Observability.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Observability server shutdown error", slog.Any("error", err))
	}

	for _, closer := range env.Closers {
		closer()
	}

	logger.Info("Application stopped")
}

func startTelegramBot(ctx context.Context, env *environment.Env, wg *sync.WaitGroup) error {
	logger := env.Logger
	bot := env.Clients.TelegramBot
	router := env.Services.TelegramRouter

	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("запуск telegram клиента: %w", err)
	}

	if err := router.SetupBotCommands(); err != nil {
		// Меню команд не критично для работы
		logger.Error("Failed to setup bot commands", slog.Any("error", err))
	} else {
		logger.Info("Bot commands set up successfully")
	}

	updates := bot.GetUpdates()

	// Обновления обрабатываются строго по одному: переходы статусов заказов не гоняются друг с другом
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				bot.Stop()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				logUpdate(logger, &update)

				if err := router.Route(ctx, &update); err != nil {
					logger.Error("Ошибка обработки обновления",
						slog.Int("update_id", update.UpdateID),
						slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}
