package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "gatelog",
	Subsystem: "client",
	Name:      "request_duration_seconds",
	Help:      "Latency of requests to the gate-log service by route and outcome.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "code"})
