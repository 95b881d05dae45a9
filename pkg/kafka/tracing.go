package kafka

import (
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
)

// HeaderCarrier exposes the headers of one message as a TextMapCarrier, so
// trace context rides along with quote events.
type HeaderCarrier struct {
	msg *kafka.Message
}

var _ propagation.TextMapCarrier = HeaderCarrier{}

// NewHeaderCarrier wraps msg. Writes go straight to msg.Headers.
func NewHeaderCarrier(msg *kafka.Message) HeaderCarrier {
	return HeaderCarrier{msg: msg}
}

func (c HeaderCarrier) index(key string) int {
	for i := range c.msg.Headers {
		if c.msg.Headers[i].Key == key {
			return i
		}
	}
	return -1
}

func (c HeaderCarrier) Get(key string) string {
	if i := c.index(key); i >= 0 {
		return string(c.msg.Headers[i].Value)
	}
	return ""
}

func (c HeaderCarrier) Set(key, value string) {
	if i := c.index(key); i >= 0 {
		c.msg.Headers[i].Value = []byte(value)
		return
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, len(c.msg.Headers))
	for i, h := range c.msg.Headers {
		keys[i] = h.Key
	}
	return keys
}
