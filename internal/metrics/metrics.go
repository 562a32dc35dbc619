package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"cnorder-bot/internal/stories/orders"
)

// Collector считает обработанные обновления и переходы статусов заказов
type Collector struct {
	updates     *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cnorder",
			Name:      "updates_total",
			Help:      "Telegram updates processed by kind and result.",
		}, []string{"kind", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cnorder",
			Name:      "order_transitions_total",
			Help:      "Order status transitions by event.",
		}, []string{"event", "from", "to"}),
	}
	reg.MustRegister(c.updates, c.transitions)
	return c
}

// ObserveUpdate учитывает обновление; kind - message/callback/other
func (c *Collector) ObserveUpdate(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.updates.WithLabelValues(kind, result).Inc()
}

func (c *Collector) ObserveTransition(event orders.Event, from, to orders.Status) {
	c.transitions.WithLabelValues(string(event), from.String(), to.String()).Inc()
}
