// Package metrics holds the Prometheus collectors for codec operations.
package metrics

import (
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var Operations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stego_operations_total",
		Help: "Total count of encode, decode and capacity requests by outcome",
	},
	[]string{"operation", "outcome"},
)

var PayloadBytes = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "stego_payload_bytes",
		Help:    "Size of embedded or extracted payloads in bytes",
		Buckets: prometheus.ExponentialBuckets(16, 4, 10),
	},
	[]string{"operation"},
)

var PSNR = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "stego_encode_psnr_db",
		Help:    "PSNR between carrier and stego image for finite values",
		Buckets: prometheus.LinearBuckets(30, 10, 8),
	},
)

var registerOnce sync.Once

func RegisterMetrics() {
	registerOnce.Do(func() {
		log.Println("Registered steganography metrics")
		prometheus.MustRegister(Operations)
		prometheus.MustRegister(PayloadBytes)
		prometheus.MustRegister(PSNR)
	})
}

// Outcome labels a finished request: "ok", or the snake_case codec error kind.
func Outcome(err error, kind string) string {
	if err == nil {
		return "ok"
	}
	if kind == "" {
		return "error"
	}
	return kind
}
