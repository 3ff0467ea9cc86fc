package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// In-memory repository doubles. They mirror the Postgres implementations'
// contract: pgx.ErrNoRows for missing or soft-deleted rows, copies in and out.

type memLocationRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Location
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{items: make(map[string]*domain.Location)}
}

func (r *memLocationRepo) Create(_ context.Context, loc *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	loc.ID = uuid.NewString()
	loc.CreatedAt = now
	loc.UpdatedAt = now
	stored := *loc
	r.items[loc.ID] = &stored
	return nil
}

func (r *memLocationRepo) Update(_ context.Context, loc *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[loc.ID]
	if !ok || stored.IsDeleted {
		return pgx.ErrNoRows
	}
	stored.Name = loc.Name
	stored.Code = loc.Code
	stored.ParentID = loc.ParentID
	stored.Level = loc.Level
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memLocationRepo) GetByID(_ context.Context, id string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok || stored.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (r *memLocationRepo) GetIncludingDeleted(_ context.Context, id string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (r *memLocationRepo) ListRoots(_ context.Context) ([]domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Location
	for _, stored := range r.items {
		if stored.ParentID == nil && !stored.IsDeleted {
			out = append(out, *stored)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memLocationRepo) ListChildren(_ context.Context, parentID string, limit, offset int) ([]domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Location
	for _, stored := range r.items {
		if stored.ParentID != nil && *stored.ParentID == parentID && !stored.IsDeleted {
			out = append(out, *stored)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

func (r *memLocationRepo) ExistsSiblingName(_ context.Context, name string, parentID *string, excludeID *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.IsDeleted || stored.Name != name {
			continue
		}
		if !sameParent(stored.ParentID, parentID) {
			continue
		}
		if excludeID != nil && stored.ID == *excludeID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *memLocationRepo) HasLiveChildren(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.ParentID != nil && *stored.ParentID == id && !stored.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLocationRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok || stored.IsDeleted {
		return pgx.ErrNoRows
	}
	now := time.Now()
	stored.IsDeleted = true
	stored.DeletedAt = &now
	return nil
}

func (r *memLocationRepo) GetRootByCodeOrName(_ context.Context, codeOrName string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.IsDeleted || stored.ParentID != nil {
			continue
		}
		if stored.Name == codeOrName || (stored.Code != nil && *stored.Code == codeOrName) {
			out := *stored
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memTicketRepo struct {
	mu        sync.Mutex
	items     map[string]*domain.Ticket
	updateErr map[string]error
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{
		items:     make(map[string]*domain.Ticket),
		updateErr: make(map[string]error),
	}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := *ticket
	r.items[ticket.ID] = &stored
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateErr[ticket.ID]; err != nil {
		return err
	}
	stored, ok := r.items[ticket.ID]
	if !ok || stored.IsDeleted {
		return pgx.ErrNoRows
	}
	stored.Title = ticket.Title
	stored.Description = ticket.Description
	stored.Status = ticket.Status
	stored.ResolvedAt = ticket.ResolvedAt
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok || stored.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (r *memTicketRepo) ExistsByTitleAndOwner(_ context.Context, title, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if !stored.IsDeleted && stored.Title == title && stored.OwnerID == ownerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, stored := range r.items {
		if stored.IsDeleted {
			continue
		}
		if filter.OwnerID != nil && stored.OwnerID != *filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		if filter.NotStatus != nil && stored.Status == *filter.NotStatus {
			continue
		}
		out = append(out, *stored)
	}
	if filter.Order == repository.TicketOrderCreatedDesc {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	}
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *memTicketRepo) CountByOwnerAndStatus(_ context.Context, ownerID string, status domain.TicketStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, stored := range r.items {
		if !stored.IsDeleted && stored.OwnerID == ownerID && stored.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memTicketRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok || stored.IsDeleted {
		return pgx.ErrNoRows
	}
	now := time.Now()
	stored.IsDeleted = true
	stored.DeletedAt = &now
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	items map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{items: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.items[user.ID] = &stored
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	copied.CreatedAt = stored.CreatedAt
	copied.UpdatedAt = time.Now()
	r.items[user.ID] = &copied
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.Email == email {
			out := *stored
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
