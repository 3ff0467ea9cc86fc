package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,max=1000"`
	Description string `json:"description" validate:"omitempty,max=5000"`
}

// UpdateTicketRequest carries optional field changes.
type UpdateTicketRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=1000"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
}

// TransitionTicketRequest payload.
type TransitionTicketRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
}

// TicketResponse representation.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Status      domain.TicketStatus `json:"status"`
	OwnerID     string              `json:"owner_id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
}

// NewTicketResponse maps the domain entity.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		OwnerID:     ticket.OwnerID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ResolvedAt:  ticket.ResolvedAt,
	}
}

// NewTicketResponses maps a slice of domain entities.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// TicketStatsResponse aggregates counts plus resolution timing.
type TicketStatsResponse struct {
	Open                   int64   `json:"open"`
	InProgress             int64   `json:"in_progress"`
	Resolved               int64   `json:"resolved"`
	Closed                 int64   `json:"closed"`
	Total                  int64   `json:"total"`
	AverageResolutionHours float64 `json:"average_resolution_hours"`
}

// BulkCloseResponse reports the outcome of a bulk close run.
type BulkCloseResponse struct {
	Closed []string          `json:"closed"`
	Failed []BulkCloseFailed `json:"failed"`
}

// BulkCloseFailed names one ticket that could not be closed.
type BulkCloseFailed struct {
	TicketID string `json:"ticket_id"`
	Reason   string `json:"reason"`
}
