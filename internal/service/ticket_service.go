package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService owns the ticket lifecycle: creation, the status state
// machine, resolution timestamps and derived statistics.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes a ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
}

// TicketUpdateInput carries optional field updates; nil means unchanged.
type TicketUpdateInput struct {
	Title       *string
	Description *string
}

// TicketStatistics aggregates ticket counts by status.
type TicketStatistics struct {
	Open       int64
	InProgress int64
	Resolved   int64
	Closed     int64
	Total      int64
}

// BulkFailure records one ticket that could not be transitioned during a
// bulk operation.
type BulkFailure struct {
	TicketID string
	Reason   string
}

// BulkCloseResult aggregates the outcome of a bulk close. No failure is ever
// silently swallowed: every eligible ticket lands in Closed or Failed.
type BulkCloseResult struct {
	Closed []string
	Failed []BulkFailure
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new ticket for the owner. Duplicate suppression is an exact
// title match per owner over non-deleted tickets.
func (s *TicketService) Create(ctx context.Context, ownerID string, input TicketCreateInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateTicketFields(input.Title, input.Description); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, apperrors.NewValidationError("ticket owner required", nil)
	}
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("ticket owner not found", map[string]any{"owner_id": ownerID})
		}
		return nil, err
	}

	duplicate, err := s.tickets.ExistsByTitleAndOwner(ctx, input.Title, ownerID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("ticket %q already exists for this owner", input.Title), nil)
	}

	ticket := &domain.Ticket{
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TicketStatusOpen,
		OwnerID:     ownerID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		EntityID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			OwnerID: ticket.OwnerID,
			Title:   ticket.Title,
		},
	})
	return ticket, nil
}

// Transition moves a ticket to a new status per the transition table,
// maintaining the resolution timestamp.
func (s *TicketService) Transition(ctx context.Context, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.applyTransition(ctx, ticket, newStatus); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update changes title/description only; status is never touched here.
func (s *TicketService) Update(ctx context.Context, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	title := ticket.Title
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
	}
	description := ticket.Description
	if input.Description != nil {
		description = *input.Description
	}
	if err := validateTicketFields(title, description); err != nil {
		return nil, err
	}

	ticket.Title = title
	ticket.Description = description
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Delete soft-deletes a ticket.
func (s *TicketService) Delete(ctx context.Context, ticketID string) error {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return err
	}
	if err := s.tickets.SoftDelete(ctx, ticketID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		EntityID: ticketID,
	})
	return nil
}

// BulkCloseResolved transitions every RESOLVED ticket to CLOSED, ticket by
// ticket, aggregating per-ticket failures.
func (s *TicketService) BulkCloseResolved(ctx context.Context) (*BulkCloseResult, error) {
	resolved, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusResolved},
		Order:    repository.TicketOrderCreatedAsc,
	})
	if err != nil {
		return nil, err
	}
	return s.closeAll(ctx, resolved), nil
}

// AutoCloseStale closes RESOLVED tickets whose resolution is older than
// daysOld days.
func (s *TicketService) AutoCloseStale(ctx context.Context, daysOld int) (*BulkCloseResult, error) {
	if daysOld < 0 {
		return nil, apperrors.NewValidationError("daysOld must not be negative", nil)
	}
	resolved, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusResolved},
		Order:    repository.TicketOrderCreatedAsc,
	})
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -daysOld)
	stale := make([]domain.Ticket, 0, len(resolved))
	for _, ticket := range resolved {
		if ticket.ResolvedAt != nil && ticket.ResolvedAt.Before(cutoff) {
			stale = append(stale, ticket)
		}
	}
	return s.closeAll(ctx, stale), nil
}

// ListByOwner returns the owner's tickets, newest first.
func (s *TicketService) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, repository.TicketFilter{
		OwnerID: &ownerID,
		Order:   repository.TicketOrderCreatedDesc,
		Limit:   limit,
		Offset:  offset,
	})
}

// ListByStatus returns tickets in one status, oldest first.
func (s *TicketService) ListByStatus(ctx context.Context, status domain.TicketStatus, limit, offset int) ([]domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown ticket status %q", status), nil)
	}
	return s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{status},
		Order:    repository.TicketOrderCreatedAsc,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListUnresolved returns every ticket not yet CLOSED, newest first.
func (s *TicketService) ListUnresolved(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	closed := domain.TicketStatusClosed
	return s.tickets.List(ctx, repository.TicketFilter{
		NotStatus: &closed,
		Order:     repository.TicketOrderCreatedDesc,
		Limit:     limit,
		Offset:    offset,
	})
}

// Get returns a live ticket by id.
func (s *TicketService) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// IsOwnedBy reports whether the ticket belongs to the given user.
func (s *TicketService) IsOwnedBy(ctx context.Context, ticketID, userID string) (bool, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return false, err
	}
	return ticket.OwnerID == userID, nil
}

// OwnerStatistics aggregates status counts for one owner.
func (s *TicketService) OwnerStatistics(ctx context.Context, ownerID string) (*TicketStatistics, error) {
	stats := &TicketStatistics{}
	counts := []struct {
		status domain.TicketStatus
		target *int64
	}{
		{domain.TicketStatusOpen, &stats.Open},
		{domain.TicketStatusInProgress, &stats.InProgress},
		{domain.TicketStatusResolved, &stats.Resolved},
		{domain.TicketStatusClosed, &stats.Closed},
	}
	for _, c := range counts {
		n, err := s.tickets.CountByOwnerAndStatus(ctx, ownerID, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = n
		stats.Total += n
	}
	return stats, nil
}

// OverallStatistics aggregates status counts across all live tickets.
func (s *TicketService) OverallStatistics(ctx context.Context) (*TicketStatistics, error) {
	all, err := s.tickets.List(ctx, repository.TicketFilter{Order: repository.TicketOrderCreatedAsc})
	if err != nil {
		return nil, err
	}
	stats := &TicketStatistics{Total: int64(len(all))}
	for _, ticket := range all {
		switch ticket.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
	}
	return stats, nil
}

// AverageResolutionHours returns the mean time from creation to resolution
// over all CLOSED tickets carrying both timestamps, in fractional hours.
// Returns 0 when no such ticket exists.
func (s *TicketService) AverageResolutionHours(ctx context.Context) (float64, error) {
	closed, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusClosed},
		Order:    repository.TicketOrderCreatedAsc,
	})
	if err != nil {
		return 0, err
	}

	var totalHours float64
	var count int
	for _, ticket := range closed {
		if ticket.ResolvedAt == nil {
			continue
		}
		totalHours += ticket.ResolvedAt.Sub(ticket.CreatedAt).Hours()
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return totalHours / float64(count), nil
}

// applyTransition validates the move and maintains ResolvedAt: set on first
// entry into RESOLVED/CLOSED, cleared when the ticket reopens.
func (s *TicketService) applyTransition(ctx context.Context, ticket *domain.Ticket, newStatus domain.TicketStatus) error {
	if !newStatus.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown ticket status %q", newStatus), nil)
	}
	oldStatus := ticket.Status
	if !domain.CanTransition(oldStatus, newStatus) {
		return apperrors.NewValidationError(
			fmt.Sprintf("invalid status transition from %s to %s", oldStatus, newStatus),
			map[string]any{"from": oldStatus, "to": newStatus})
	}

	if newStatus.CarriesResolution() && ticket.ResolvedAt == nil {
		now := time.Now()
		ticket.ResolvedAt = &now
	}
	if oldStatus.CarriesResolution() && !newStatus.CarriesResolution() {
		ticket.ResolvedAt = nil
	}

	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		EntityID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:  oldStatus,
			NewStatus:  newStatus,
			ResolvedAt: ticket.ResolvedAt,
		},
	})
	return nil
}

func (s *TicketService) closeAll(ctx context.Context, tickets []domain.Ticket) *BulkCloseResult {
	result := &BulkCloseResult{}
	for i := range tickets {
		ticket := tickets[i]
		if err := s.applyTransition(ctx, &ticket, domain.TicketStatusClosed); err != nil {
			result.Failed = append(result.Failed, BulkFailure{TicketID: ticket.ID, Reason: err.Error()})
			continue
		}
		result.Closed = append(result.Closed, ticket.ID)
	}
	return result
}

func validateTicketFields(title, description string) error {
	if title == "" {
		return apperrors.NewValidationError("ticket title required", nil)
	}
	if utf8.RuneCountInString(title) > domain.TicketTitleMaxLen {
		return apperrors.NewValidationError(
			fmt.Sprintf("ticket title exceeds %d characters", domain.TicketTitleMaxLen), nil)
	}
	if utf8.RuneCountInString(description) > domain.TicketDescriptionMaxLen {
		return apperrors.NewValidationError(
			fmt.Sprintf("ticket description exceeds %d characters", domain.TicketDescriptionMaxLen), nil)
	}
	return nil
}

func (s *TicketService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
