package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// transfer metrics
	// ============================================
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfers_total",
			Help: "Total number of ERC-20 transfers by outcome",
		},
		[]string{"chain_id", "outcome"},
	)

	TransfersBroadcasted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfers_broadcasted_total",
			Help: "Total number of transfers accepted by the chain",
		},
		[]string{"chain_id"},
	)

	TransferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_duration_seconds",
			Help:    "Time from request to confirmation or failure",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"chain_id", "outcome"},
	)

	TransfersInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_transfers_in_flight",
			Help: "Transfers currently waiting for signing or confirmation",
		},
		[]string{"chain_id"},
	)

	// ============================================
	// NATS metrics
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject", "result"},
	)

	// ============================================
	// WebSocket metrics
	// ============================================
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_websocket_connections",
		Help: "Number of open websocket connections",
	})
)
