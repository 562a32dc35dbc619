package workers

import (
	"fmt"
	"log/slog"
)

// Manager запускает и останавливает фоновые воркеры
type Manager struct {
	workers []Worker
	started []Worker
	logger  *slog.Logger
}

func NewManager(logger *slog.Logger, workers ...Worker) *Manager {
	return &Manager{
		workers: workers,
		logger:  logger,
	}
}

// Start запускает воркеры по очереди; если один не стартовал, уже запущенные останавливаются
func (m *Manager) Start() error {
	for _, worker := range m.workers {
		if err := worker.Start(); err != nil {
			m.Stop()
			return fmt.Errorf("start worker %s: %w", worker.Name(), err)
		}
		m.started = append(m.started, worker)
		m.logger.Info("Worker started", "name", worker.Name())
	}
	return nil
}

// Stop останавливает запущенные воркеры в обратном порядке
func (m *Manager) Stop() {
	for i := len(m.started) - 1; i >= 0; i-- {
		m.started[i].Stop()
		m.logger.Info("Worker stopped", "name", m.started[i].Name())
	}
	m.started = nil
}
