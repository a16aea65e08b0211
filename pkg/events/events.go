// Package events publishes catalog change notifications to the message broker
// so that the external timetabling process can refresh its inputs.
package events

import (
	"context"
	"time"
)

// Routing keys used on the events exchange.
const (
	TopicConstraintChanged   = "constraint.changed"
	TopicAvailabilityChanged = "availability.changed"
)

// Operations carried by change events.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ConstraintChanged is emitted whenever a scheduler constraint or constraint type is written.
type ConstraintChanged struct {
	ConstraintID     int64     `json:"constraint_id,omitempty"`
	ConstraintTypeID int64     `json:"constraint_type_id,omitempty"`
	Operation        string    `json:"operation"`
	ActorID          int64     `json:"actor_id"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// AvailabilityChanged is emitted whenever a lecturer's availability is replaced or removed.
type AvailabilityChanged struct {
	LecturerID int64     `json:"lecturer_id"`
	Operation  string    `json:"operation"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers an event payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

// NopPublisher discards every event. Used when events are disabled.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
