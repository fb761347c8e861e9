package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics covers the connection registry and the event broadcaster.
type WebSocketMetrics struct {
	ActiveSessions     prometheus.Gauge
	SessionsRejected   *prometheus.CounterVec
	EventsBroadcast    *prometheus.CounterVec
	Deliveries         *prometheus.CounterVec
	BroadcastDuration  prometheus.Histogram
	WriteFailures      prometheus.Counter
	PingFailures       prometheus.Counter
	FrameWriteDuration prometheus.Histogram
}

func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_sessions",
			Help:      "Number of live WebSocket sessions in the registry.",
		}),
		SessionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "sessions_rejected_total",
			Help:      "Total number of WebSocket sessions rejected at registration, by reason.",
		}, []string{"reason"}),
		EventsBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "events_broadcast_total",
			Help:      "Total number of events broadcast, by event type.",
		}, []string{"type"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "deliveries_total",
			Help:      "Total number of per-session delivery attempts, by result.",
		}, []string{"result"}),
		BroadcastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Time spent fanning one event out to all sessions.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "write_failures_total",
			Help:      "Total number of frame writes that failed and closed the session.",
		}),
		PingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "ping_failures_total",
			Help:      "Total number of keepalive pings that failed.",
		}),
		FrameWriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "frame_write_duration_seconds",
			Help:      "Duration of a single outbound frame write.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.ActiveSessions, m.SessionsRejected, m.EventsBroadcast, m.Deliveries,
		m.BroadcastDuration, m.WriteFailures, m.PingFailures, m.FrameWriteDuration,
	)
	return m
}
