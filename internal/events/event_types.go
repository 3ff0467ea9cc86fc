package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventLocationCreated     EventType = "location_created"
	EventLocationDeleted     EventType = "location_deleted"
)

// Event represents a domain event emitted by services. EntityID names the
// ticket or location the event concerns.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	ResolvedAt *time.Time          `json:"resolved_at,omitempty"`
}

// LocationCreatedPayload payload.
type LocationCreatedPayload struct {
	Name     string  `json:"name"`
	Level    int     `json:"level"`
	ParentID *string `json:"parent_id,omitempty"`
}

// LocationDeletedPayload payload.
type LocationDeletedPayload struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}
