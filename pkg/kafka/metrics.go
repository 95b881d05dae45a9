package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var groupLabels = []string{"topic", "consumer_group"}

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
}

func seconds(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	}, labels)
}

var (
	consumerReceived     = counter("kafka_consumer_messages_received_total", "Kafka messages fetched from the broker.", groupLabels...)
	consumerProcessed    = counter("kafka_consumer_messages_processed_total", "Kafka messages handled successfully.", groupLabels...)
	consumerFailed       = counter("kafka_consumer_messages_failed_total", "Kafka messages whose handler failed every attempt.", groupLabels...)
	consumerDeadLettered = counter("kafka_consumer_dlq_published_total", "Kafka messages copied to a dead-letter topic.", groupLabels...)
	consumerDuplicates   = counter("kafka_consumer_messages_duplicate_total", "Kafka events skipped because their id was already processed.", "event_type")
	consumerDuration     = seconds("kafka_consumer_processing_duration_seconds", "Time spent in the Kafka handler, retries included.", groupLabels...)

	producerPublished = counter("kafka_producer_messages_published_total", "Kafka messages written by the producer.", "topic")
	producerErrors    = counter("kafka_producer_publish_errors_total", "Kafka writes that returned an error.", "topic")
	producerDuration  = seconds("kafka_producer_publish_duration_seconds", "Latency of Kafka writes.", "topic")
)
