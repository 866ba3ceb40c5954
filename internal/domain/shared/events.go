package shared

import "time"

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the rank engine; downstream consumers (notification senders,
// audit logs) subscribe to them through the event bus.
const (
	// Hierarchy events
	EventHierarchyReplaced EventType = "hierarchy.replaced"
	EventRankAdded         EventType = "hierarchy.rank_added"
	EventRankRemoved       EventType = "hierarchy.rank_removed"

	// Member events
	EventMemberPromoted EventType = "member.promoted"
	EventMemberDemoted  EventType = "member.demoted"
	EventMemberRankSet  EventType = "member.rank_set"
	EventMemberReset    EventType = "member.reset"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single domain event.
type EventHandler func(event Event) error

// BaseEvent provides common event functionality.
type BaseEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event. The ID is assigned by the
// application layer (the domain stays free of ID-generation dependencies).
func NewBaseEvent(id string, eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          id,
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}
