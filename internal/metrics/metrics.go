// Package metrics holds the relay's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_messages_relayed_total",
		Help: "Frames delivered to room members.",
	})
	MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_messages_dropped_total",
		Help: "Frames dropped because a member's outbound queue was full.",
	})
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signalhub_rooms_active",
		Help: "Rooms currently in the registry.",
	})
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signalhub_connections_active",
		Help: "Open signaling connections.",
	})
	RoomsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signalhub_rooms_reaped_total",
		Help: "Rooms removed by the reaper.",
	})
)

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
