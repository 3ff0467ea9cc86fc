package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type ticketFixture struct {
	svc     *TicketService
	tickets *memTicketRepo
	users   *memUserRepo
	owner   *domain.User
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	tickets := newMemTicketRepo()
	users := newMemUserRepo()
	owner := &domain.User{Name: "Alice", Email: "alice@example.com", Status: domain.UserStatusActive}
	require.NoError(t, users.Create(context.Background(), owner))
	svc := NewTicketService(TicketDependencies{TicketRepo: tickets, UserRepo: users})
	return &ticketFixture{svc: svc, tickets: tickets, users: users, owner: owner}
}

func (f *ticketFixture) mustCreate(t *testing.T, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.Create(context.Background(), f.owner.ID, TicketCreateInput{Title: title})
	require.NoError(t, err)
	return ticket
}

func TestTicketCreate(t *testing.T) {
	f := newTicketFixture(t)

	ticket, err := f.svc.Create(context.Background(), f.owner.ID, TicketCreateInput{
		Title:       "Printer jam",
		Description: "Second floor printer is stuck again",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, f.owner.ID, ticket.OwnerID)
	assert.Nil(t, ticket.ResolvedAt)
	assert.False(t, ticket.CreatedAt.IsZero())
}

func TestTicketCreateRejectsDuplicateTitlePerOwner(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	f.mustCreate(t, "Printer jam")

	_, err := f.svc.Create(ctx, f.owner.ID, TicketCreateInput{Title: "Printer jam"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists for this owner")

	// The same title from another owner is not a duplicate.
	other := &domain.User{Name: "Bob", Email: "bob@example.com", Status: domain.UserStatusActive}
	require.NoError(t, f.users.Create(ctx, other))
	_, err = f.svc.Create(ctx, other.ID, TicketCreateInput{Title: "Printer jam"})
	require.NoError(t, err)
}

func TestTicketCreateRejectsUnknownOwner(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.Create(context.Background(), "b7f8a1f6-6f5e-4cbe-9e53-3a1c51a54a01", TicketCreateInput{Title: "Printer jam"})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Contains(t, domainErr.Message, "ticket owner not found")
}

func TestTicketCreateFieldLimits(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner.ID, TicketCreateInput{Title: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title required")

	_, err = f.svc.Create(ctx, f.owner.ID, TicketCreateInput{Title: strings.Repeat("a", 1001)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title exceeds")

	_, err = f.svc.Create(ctx, f.owner.ID, TicketCreateInput{
		Title:       "Printer jam",
		Description: strings.Repeat("a", 5001),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description exceeds")

	// Values exactly at the limits pass.
	_, err = f.svc.Create(ctx, f.owner.ID, TicketCreateInput{
		Title:       strings.Repeat("b", 1000),
		Description: strings.Repeat("b", 5000),
	})
	require.NoError(t, err)

	// Limits count characters, not bytes: 600 CJK runes are 1800 bytes.
	_, err = f.svc.Create(ctx, f.owner.ID, TicketCreateInput{
		Title:       strings.Repeat("国", 600),
		Description: strings.Repeat("国", 5000),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.owner.ID, TicketCreateInput{Title: strings.Repeat("国", 1001)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title exceeds")
}

func TestTicketTransitionSetsResolvedAt(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")

	closed, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ResolvedAt)
	assert.False(t, closed.ResolvedAt.Before(closed.CreatedAt))
}

func TestTicketReopenClearsResolvedAt(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")
	_, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)

	reopened, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)
}

func TestTicketResolvedBackToInProgressClearsResolvedAt(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")
	_, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	back, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, back.ResolvedAt)
}

func TestTicketResolvedToClosedKeepsOriginalResolvedAt(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")
	resolved, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	firstResolution := *resolved.ResolvedAt

	closed, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	require.NotNil(t, closed.ResolvedAt)
	assert.True(t, closed.ResolvedAt.Equal(firstResolution))
}

func TestTicketIllegalTransitionLeavesTicketUntouched(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")
	_, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)

	// CLOSED tickets may only reopen.
	_, err = f.svc.Transition(ctx, ticket.ID, domain.TicketStatusResolved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition from CLOSED to RESOLVED")

	stored, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)
}

func TestTicketTransitionRejectsUnknownStatus(t *testing.T) {
	f := newTicketFixture(t)

	ticket := f.mustCreate(t, "Printer jam")
	_, err := f.svc.Transition(context.Background(), ticket.ID, domain.TicketStatus("ARCHIVED"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ticket status "ARCHIVED"`)
}

func TestTicketUpdateFieldsOnly(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")
	_, err := f.svc.Transition(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)

	newTitle := "Printer jam on floor 2"
	updated, err := f.svc.Update(ctx, ticket.ID, TicketUpdateInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
}

func TestTicketDelete(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")
	require.NoError(t, f.svc.Delete(ctx, ticket.ID))

	_, err := f.svc.Get(ctx, ticket.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = f.svc.Delete(ctx, ticket.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTicketIsOwnedBy(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket := f.mustCreate(t, "Printer jam")

	owned, err := f.svc.IsOwnedBy(ctx, ticket.ID, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = f.svc.IsOwnedBy(ctx, ticket.ID, "someone-else")
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestTicketLists(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "Printer jam")
	b := f.mustCreate(t, "VPN down")
	c := f.mustCreate(t, "Broken chair")
	_, err := f.svc.Transition(ctx, b.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, c.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	mine, err := f.svc.ListByOwner(ctx, f.owner.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	open, err := f.svc.ListByStatus(ctx, domain.TicketStatusOpen, 0, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, a.ID, open[0].ID)

	unresolved, err := f.svc.ListUnresolved(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, unresolved, 2)
	for _, ticket := range unresolved {
		assert.NotEqual(t, domain.TicketStatusClosed, ticket.Status)
	}

	_, err = f.svc.ListByStatus(ctx, domain.TicketStatus("bogus"), 0, 0)
	require.Error(t, err)
}

func TestTicketStatistics(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	f.mustCreate(t, "Printer jam")
	b := f.mustCreate(t, "VPN down")
	c := f.mustCreate(t, "Broken chair")
	_, err := f.svc.Transition(ctx, b.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, c.ID, domain.TicketStatusClosed)
	require.NoError(t, err)

	stats, err := f.svc.OwnerStatistics(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Open)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(0), stats.Resolved)
	assert.Equal(t, int64(1), stats.Closed)
	assert.Equal(t, int64(3), stats.Total)

	overall, err := f.svc.OverallStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, *stats, *overall)
}

func TestTicketBulkCloseResolved(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "Printer jam")
	b := f.mustCreate(t, "VPN down")
	open := f.mustCreate(t, "Broken chair")
	_, err := f.svc.Transition(ctx, a.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, b.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	result, err := f.svc.BulkCloseResolved(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, result.Closed)
	assert.Empty(t, result.Failed)

	stillOpen, err := f.svc.Get(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, stillOpen.Status)
}

func TestTicketBulkCloseAggregatesFailures(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, "Printer jam")
	b := f.mustCreate(t, "VPN down")
	_, err := f.svc.Transition(ctx, a.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, b.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	f.tickets.updateErr[b.ID] = errors.New("connection reset")

	result, err := f.svc.BulkCloseResolved(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, result.Closed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, b.ID, result.Failed[0].TicketID)
	assert.Contains(t, result.Failed[0].Reason, "connection reset")

	// The failed ticket keeps its prior status.
	delete(f.tickets.updateErr, b.ID)
	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, stored.Status)
}

func TestTicketAutoCloseStale(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	stale := f.mustCreate(t, "Printer jam")
	fresh := f.mustCreate(t, "VPN down")
	_, err := f.svc.Transition(ctx, stale.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, fresh.ID, domain.TicketStatusResolved)
	require.NoError(t, err)

	old := time.Now().AddDate(0, 0, -10)
	f.tickets.items[stale.ID].ResolvedAt = &old

	result, err := f.svc.AutoCloseStale(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{stale.ID}, result.Closed)
	assert.Empty(t, result.Failed)

	kept, err := f.svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, kept.Status)

	_, err = f.svc.AutoCloseStale(ctx, -1)
	require.Error(t, err)
}

func TestTicketAverageResolutionHours(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	avg, err := f.svc.AverageResolutionHours(ctx)
	require.NoError(t, err)
	assert.Zero(t, avg)

	a := f.mustCreate(t, "Printer jam")
	b := f.mustCreate(t, "VPN down")
	f.mustCreate(t, "Broken chair") // never closed, excluded
	_, err = f.svc.Transition(ctx, a.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, b.ID, domain.TicketStatusClosed)
	require.NoError(t, err)

	now := time.Now()
	twoHoursAgo := now.Add(-2 * time.Hour)
	fourHoursAgo := now.Add(-4 * time.Hour)
	f.tickets.items[a.ID].CreatedAt = twoHoursAgo
	f.tickets.items[a.ID].ResolvedAt = &now
	f.tickets.items[b.ID].CreatedAt = fourHoursAgo
	f.tickets.items[b.ID].ResolvedAt = &now

	avg, err = f.svc.AverageResolutionHours(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, avg, 0.01)
}
