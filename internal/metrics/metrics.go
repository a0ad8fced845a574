// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts orders created, labeled by source channel.
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dinehub_orders_created_total",
		Help: "Total number of orders created.",
	}, []string{"source"})

	// StatusTransitions counts order status transitions, labeled by the
	// status the order moved to.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dinehub_order_status_transitions_total",
		Help: "Total number of order status transitions.",
	}, []string{"to_status"})

	// RealtimeSubscribers tracks currently connected realtime clients.
	RealtimeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dinehub_realtime_subscribers",
		Help: "Number of connected realtime order-board subscribers.",
	})

	// InvitationsSent counts staff invitations created.
	InvitationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dinehub_staff_invitations_sent_total",
		Help: "Total number of staff invitations created.",
	})
)
