package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The literal values
// cross the service boundary unchanged.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Field length limits enforced on create and update.
const (
	TicketTitleMaxLen       = 1000
	TicketDescriptionMaxLen = 5000
)

// Valid reports whether the status is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// CarriesResolution reports whether a ticket in this status holds a
// resolution timestamp.
func (s TicketStatus) CarriesResolution() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Ticket is the aggregate for help-desk requests. OwnerID is immutable after
// creation; ResolvedAt is managed exclusively by status transitions.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}

// allowedTransitions is the exhaustive table of legal status moves. CLOSED
// tickets can only be reopened to OPEN.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusOpen, TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:     {TicketStatusOpen},
}

// CanTransition reports whether moving from current to next is legal.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
