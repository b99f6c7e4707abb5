package kafka

import "github.com/prometheus/client_golang/prometheus"

// ProducerMetrics counts publish outcomes per topic.
type ProducerMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewProducerMetrics creates the producer collectors and registers them on reg.
func NewProducerMetrics(reg prometheus.Registerer) *ProducerMetrics {
	m := &ProducerMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trinity",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events written to Kafka.",
		}, []string{"topic", "type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trinity",
			Subsystem: "events",
			Name:      "publish_errors_total",
			Help:      "Domain events Kafka rejected.",
		}, []string{"topic", "type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trinity",
			Subsystem: "events",
			Name:      "publish_duration_seconds",
			Help:      "Time spent writing one event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	reg.MustRegister(m.published, m.failed, m.duration)
	return m
}
