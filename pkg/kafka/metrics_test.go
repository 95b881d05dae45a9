package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerMetrics(t *testing.T) {
	const topic, group = "uniclima.quote.metrics", "metrics-group"
	received := testutil.ToFloat64(consumerReceived.WithLabelValues(topic, group))
	processed := testutil.ToFloat64(consumerProcessed.WithLabelValues(topic, group))
	failed := testutil.ToFloat64(consumerFailed.WithLabelValues(topic, group))
	dead := testutil.ToFloat64(consumerDeadLettered.WithLabelValues(topic, group))

	ok, bad := eventMessage(t, 1, "q-ok"), eventMessage(t, 2, "q-bad")
	ok.Topic, bad.Topic = topic, topic
	r := &fakeReader{msgs: []kafka.Message{ok, bad}}
	handler := func(_ context.Context, ev *Event) error {
		if ev.AggregateID == "q-bad" {
			return errors.New("smtp relay refused")
		}
		return nil
	}

	c := newConsumer(r, ConsumerConfig{Topic: topic, GroupID: group, RetryBackoff: time.Millisecond}, handler, quietLogger())
	c.WithDLQ(&DLQProducer{writer: &fakeWriter{}, logger: quietLogger()})
	runConsumer(t, c, 2, r)

	assert.Equal(t, received+2, testutil.ToFloat64(consumerReceived.WithLabelValues(topic, group)))
	assert.Equal(t, processed+1, testutil.ToFloat64(consumerProcessed.WithLabelValues(topic, group)))
	assert.Equal(t, failed+1, testutil.ToFloat64(consumerFailed.WithLabelValues(topic, group)))
	assert.Equal(t, dead+1, testutil.ToFloat64(consumerDeadLettered.WithLabelValues(topic, group)))
}

func TestProducerMetrics(t *testing.T) {
	const topic = "uniclima.quote.producer-metrics"
	published := testutil.ToFloat64(producerPublished.WithLabelValues(topic))
	failures := testutil.ToFloat64(producerErrors.WithLabelValues(topic))

	ev, err := NewEvent("quote.requested", "q-9", "quote", "storefront", nil)
	require.NoError(t, err)

	w := &fakeWriter{}
	p := &Producer{writer: w, logger: quietLogger()}
	require.NoError(t, p.Publish(context.Background(), topic, ev))
	w.err = errors.New("not leader for partition")
	require.Error(t, p.Publish(context.Background(), topic, ev))

	assert.Equal(t, published+1, testutil.ToFloat64(producerPublished.WithLabelValues(topic)))
	assert.Equal(t, failures+1, testutil.ToFloat64(producerErrors.WithLabelValues(topic)))
}
