// Prometheus instrumentation of the TCP protocol surface. Labels stay
// low-cardinality: the action verb set is fixed by the router and the
// status code set by the protocol.
package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// requestsTotal counts dispatched requests by action verb and response code.
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messenger_requests_total",
			Help: "Total number of protocol requests dispatched.",
		},
		[]string{"action", "code"},
	)

	// requestLat records handler duration in seconds by action verb.
	requestLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messenger_request_duration_seconds",
			Help:    "Duration of protocol request handling in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// connectionsOpen gauges currently served TCP connections.
	connectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "messenger_connections_open",
			Help: "Current number of open client connections.",
		},
	)

	// sessionsActive gauges usernames with a live session binding.
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "messenger_sessions_active",
			Help: "Current number of bound login sessions.",
		},
	)

	// fanoutTotal counts fan-out deliveries by result (delivered/failed).
	fanoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messenger_fanout_total",
			Help: "Total number of fan-out frame deliveries.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestLat, connectionsOpen, sessionsActive, fanoutTotal)
}

func observeRequest(action string, code int, seconds float64) {
	requestsTotal.WithLabelValues(action, strconv.Itoa(code)).Inc()
	requestLat.WithLabelValues(action).Observe(seconds)
}
