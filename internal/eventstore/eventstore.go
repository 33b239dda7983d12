package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrAggregateNotFound   = errors.New("aggregate not found")
	ErrInvalidVersion      = errors.New("invalid version number")
)

// Event is one journaled domain event
type Event struct {
	ID            uuid.UUID         `json:"id"`
	Sequence      int64             `json:"sequence"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	EventType     string            `json:"event_type"`
	EventData     json.RawMessage   `json:"event_data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewEvent encodes payload as the event data
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{EventType: eventType, EventData: data}, nil
}

// Decode unmarshals the event data into v
func (e Event) Decode(v any) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(e.EventData, v)
}

// EventStore is a memory-resident, append-only journal with optimistic
// concurrency per aggregate. Contents do not survive a restart.
type EventStore struct {
	mu       sync.RWMutex
	events   []Event
	versions map[string]int
	now      func() time.Time
	tracer   trace.Tracer
}

// NewEventStore creates an empty journal
func NewEventStore() *EventStore {
	return &EventStore{
		versions: make(map[string]int),
		now:      time.Now,
		tracer:   otel.Tracer("mediashelf/eventstore"),
	}
}

// AppendEvents atomically appends events when the aggregate is still at expectedVersion
func (es *EventStore) AppendEvents(ctx context.Context, aggregateID, aggregateType string, expectedVersion int, events []Event) error {
	_, span := es.tracer.Start(ctx, "eventstore.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID),
			attribute.String("aggregate.type", aggregateType),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	currentVersion := es.versions[aggregateID]
	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return ErrConcurrencyConflict
	}

	createdAt := es.now().UTC()
	for i, event := range events {
		version := expectedVersion + i + 1
		event.ID = uuid.New()
		event.Sequence = int64(len(es.events) + 1)
		event.AggregateID = aggregateID
		event.AggregateType = aggregateType
		event.Version = version
		event.CreatedAt = createdAt
		es.events = append(es.events, event)

		span.AddEvent("event.appended", trace.WithAttributes(
			attribute.Int64("event.sequence", event.Sequence),
			attribute.Int("event.version", version),
			attribute.String("event.type", event.EventType),
		))
	}
	es.versions[aggregateID] = expectedVersion + len(events)

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// Append appends events after whatever the aggregate currently holds
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType string, events ...Event) error {
	for {
		version, err := es.GetCurrentVersion(ctx, aggregateID)
		if err != nil {
			return err
		}
		err = es.AppendEvents(ctx, aggregateID, aggregateType, version, events)
		if !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
	}
}

// LoadEvents returns an aggregate's events in version order. A toVersion of 0 means no upper bound.
func (es *EventStore) LoadEvents(ctx context.Context, aggregateID string, fromVersion, toVersion int) ([]Event, error) {
	_, span := es.tracer.Start(ctx, "eventstore.load",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID),
			attribute.Int("from.version", fromVersion),
			attribute.Int("to.version", toVersion),
		),
	)
	defer span.End()

	es.mu.RLock()
	defer es.mu.RUnlock()

	if _, ok := es.versions[aggregateID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrAggregateNotFound, aggregateID)
	}

	var events []Event
	for _, event := range es.events {
		if event.AggregateID != aggregateID || event.Version < fromVersion {
			continue
		}
		if toVersion > 0 && event.Version > toVersion {
			continue
		}
		events = append(events, event)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// GetCurrentVersion returns the latest version for an aggregate, 0 if it has none
func (es *EventStore) GetCurrentVersion(ctx context.Context, aggregateID string) (int, error) {
	_, span := es.tracer.Start(ctx, "eventstore.get_version",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID),
		),
	)
	defer span.End()

	es.mu.RLock()
	version := es.versions[aggregateID]
	es.mu.RUnlock()

	span.SetAttributes(attribute.Int("current.version", version))
	return version, nil
}

// StreamEvents provides a cursor over the whole journal for projections
func (es *EventStore) StreamEvents(ctx context.Context, fromSequence int64, batchSize int) ([]Event, error) {
	_, span := es.tracer.Start(ctx, "eventstore.stream",
		trace.WithAttributes(
			attribute.Int64("from.sequence", fromSequence),
			attribute.Int("batch.size", batchSize),
		),
	)
	defer span.End()

	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	start := int(max(fromSequence, 0))
	if start >= len(es.events) {
		return []Event{}, nil
	}
	end := min(start+batchSize, len(es.events))
	events := slices.Clone(es.events[start:end])

	span.SetAttributes(attribute.Int("events.streamed", len(events)))
	return events, nil
}
