package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TopicPrefix namespaces every topic this module produces.
const TopicPrefix = "uniclima"

// SchemaVersion is stamped on every event this module writes.
const SchemaVersion = 1

// Topic joins the prefix with domain and action, e.g. uniclima.quote.requested.
func Topic(domain, action string) string {
	return strings.Join([]string{TopicPrefix, domain, action}, ".")
}

// Event is the JSON envelope of every message. Data carries the
// domain payload verbatim.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	SchemaVersion int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent encodes payload and wraps it in a fresh envelope.
func NewEvent(eventType, aggregateID, aggregateType, source string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		Data:          data,
	}, nil
}

// WithCorrelationID ties the event to the HTTP request that caused it.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalData decodes the payload into target.
func (e *Event) UnmarshalData(target any) error {
	return json.Unmarshal(e.Data, target)
}

var errNoEventType = errors.New("event has no event_type")

// UnmarshalEvent decodes an envelope. Messages without an event type are
// rejected so they end up dead-lettered instead of silently ignored.
func UnmarshalEvent(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.EventType == "" {
		return nil, errNoEventType
	}
	return &e, nil
}
