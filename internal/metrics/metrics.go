// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wcstore"

var (
	// HTTPRequests counts answered requests by method and status code.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Number of HTTP requests by method and status code."},
		[]string{"method", "code"},
	)
	// RateLimitRejected counts requests refused by a rate limiter tier.
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of requests rejected by rate limiter tier."},
		[]string{"tier"},
	)
	// IngestItems counts ingested images by result ("ok" or "rejected").
	IngestItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ingest_items_total", Help: "Number of ingested images by result."},
		[]string{"result"},
	)
	// IngestBytes sums image sizes by stage ("original" or "stored").
	IngestBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ingest_bytes_total", Help: "Bytes of ingested images by stage."},
		[]string{"stage"},
	)
)

// RegisterCollectors registers every collector of this package with reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(IngestItems)
	reg.MustRegister(IngestBytes)
}
