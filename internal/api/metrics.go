package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pihole_cluster_admin",
		Subsystem: "api_client",
		Name:      "request_duration_seconds",
		Help:      "Duration of REST requests against the admin API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pihole_cluster_admin",
		Subsystem: "api_client",
		Name:      "request_errors_total",
		Help:      "Transport-level request failures against the admin API.",
	}, []string{"method", "path"})
)

func observeRequest(method, path string, start time.Time, err error) {
	requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	if err != nil {
		requestErrors.WithLabelValues(method, path).Inc()
	}
}
