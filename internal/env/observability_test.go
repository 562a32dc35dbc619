package environment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"cnorder-bot/internal/metrics"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

func TestObservabilityRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	collector.ObserveUpdate("message", nil)

	tests := []struct {
		name     string
		db       fakePinger
		path     string
		wantCode int
		wantBody string
	}{
		{"livez", fakePinger{}, "/livez", http.StatusOK, "OK"},
		{"ready", fakePinger{}, "/readyz", http.StatusOK, "Ready"},
		{"db down", fakePinger{err: errors.New("disk I/O error")}, "/readyz", http.StatusServiceUnavailable, "database unavailable"},
		{"metrics", fakePinger{}, "/metrics", http.StatusOK, `cnorder_updates_total{kind="message",result="ok"} 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := observabilityRouter(slog.Default(), tt.db, reg)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
