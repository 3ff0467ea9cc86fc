package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketOrder selects the stable ordering applied to ticket listings.
type TicketOrder string

const (
	TicketOrderCreatedAsc  TicketOrder = "created_at ASC"
	TicketOrderCreatedDesc TicketOrder = "created_at DESC"
)

// TicketFilter captures listing predicates. Zero values mean "no constraint".
type TicketFilter struct {
	OwnerID   *string
	Statuses  []domain.TicketStatus
	NotStatus *domain.TicketStatus
	Order     TicketOrder
	Limit     int
	Offset    int
}

const ticketColumns = "id, title, description, status, owner_id, created_at, updated_at, resolved_at, deleted_at, is_deleted"

// TicketRepository encapsulates ticket persistence. Soft-deleted tickets are
// excluded everywhere.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ExistsByTitleAndOwner(ctx context.Context, title, ownerID string) (bool, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByOwnerAndStatus(ctx context.Context, ownerID string, status domain.TicketStatus) (int64, error)
	SoftDelete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, owner_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.OwnerID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, resolved_at=$4, updated_at=NOW()
        WHERE id=$5 AND is_deleted=FALSE`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := "SELECT " + ticketColumns + " FROM tickets WHERE id=$1 AND is_deleted=FALSE"
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.OwnerID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.DeletedAt,
		&ticket.IsDeleted,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ExistsByTitleAndOwner(ctx context.Context, title, ownerID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM tickets WHERE title=$1 AND owner_id=$2 AND is_deleted=FALSE)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, title, ownerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	builder := psql.Select(ticketColumns).
		From("tickets").
		Where(sq.Eq{"is_deleted": false})

	if filter.OwnerID != nil {
		builder = builder.Where(sq.Eq{"owner_id": *filter.OwnerID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if filter.NotStatus != nil {
		builder = builder.Where(sq.NotEq{"status": string(*filter.NotStatus)})
	}

	order := filter.Order
	if order == "" {
		order = TicketOrderCreatedDesc
	}
	builder = builder.OrderBy(string(order))

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByOwnerAndStatus(ctx context.Context, ownerID string, status domain.TicketStatus) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE owner_id=$1 AND status=$2 AND is_deleted=FALSE`
	var count int64
	if err := r.pool.QueryRow(ctx, query, ownerID, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
        UPDATE tickets SET is_deleted=TRUE, deleted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND is_deleted=FALSE`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.OwnerID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ResolvedAt,
			&ticket.DeletedAt,
			&ticket.IsDeleted,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
