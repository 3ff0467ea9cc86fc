package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const locationColumns = "id, name, code, parent_id, level, created_at, updated_at, deleted_at, is_deleted"

// LocationRepository encapsulates location persistence. All methods except
// GetIncludingDeleted exclude soft-deleted rows.
type LocationRepository interface {
	Create(ctx context.Context, loc *domain.Location) error
	Update(ctx context.Context, loc *domain.Location) error
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	GetIncludingDeleted(ctx context.Context, id string) (*domain.Location, error)
	ListRoots(ctx context.Context) ([]domain.Location, error)
	ListChildren(ctx context.Context, parentID string, limit, offset int) ([]domain.Location, error)
	ExistsSiblingName(ctx context.Context, name string, parentID *string, excludeID *string) (bool, error)
	HasLiveChildren(ctx context.Context, id string) (bool, error)
	SoftDelete(ctx context.Context, id string) error
	GetRootByCodeOrName(ctx context.Context, codeOrName string) (*domain.Location, error)
}

type locationRepository struct {
	pool *pgxpool.Pool
}

// NewLocationRepository returns a Postgres-backed implementation.
func NewLocationRepository(pool *pgxpool.Pool) LocationRepository {
	return &locationRepository{pool: pool}
}

func (r *locationRepository) Create(ctx context.Context, loc *domain.Location) error {
	const query = `
        INSERT INTO locations (name, code, parent_id, level)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		loc.Name,
		loc.Code,
		loc.ParentID,
		loc.Level,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
}

func (r *locationRepository) Update(ctx context.Context, loc *domain.Location) error {
	const query = `
        UPDATE locations SET name=$1, code=$2, parent_id=$3, level=$4, updated_at=NOW()
        WHERE id=$5 AND is_deleted=FALSE`
	cmd, err := r.pool.Exec(ctx, query,
		loc.Name,
		loc.Code,
		loc.ParentID,
		loc.Level,
		loc.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	query := "SELECT " + locationColumns + " FROM locations WHERE id=$1 AND is_deleted=FALSE"
	return r.fetchSingle(ctx, query, id)
}

func (r *locationRepository) GetIncludingDeleted(ctx context.Context, id string) (*domain.Location, error) {
	query := "SELECT " + locationColumns + " FROM locations WHERE id=$1"
	return r.fetchSingle(ctx, query, id)
}

func (r *locationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Location, error) {
	var loc domain.Location
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&loc.ID,
		&loc.Name,
		&loc.Code,
		&loc.ParentID,
		&loc.Level,
		&loc.CreatedAt,
		&loc.UpdatedAt,
		&loc.DeletedAt,
		&loc.IsDeleted,
	); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepository) ListRoots(ctx context.Context) ([]domain.Location, error) {
	builder := psql.Select(locationColumns).
		From("locations").
		Where(sq.Eq{"parent_id": nil, "is_deleted": false}).
		OrderBy("name ASC")
	return r.list(ctx, builder)
}

func (r *locationRepository) ListChildren(ctx context.Context, parentID string, limit, offset int) ([]domain.Location, error) {
	builder := psql.Select(locationColumns).
		From("locations").
		Where(sq.Eq{"parent_id": parentID, "is_deleted": false}).
		OrderBy("name ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	return r.list(ctx, builder)
}

func (r *locationRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]domain.Location, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLocations(rows)
}

func (r *locationRepository) ExistsSiblingName(ctx context.Context, name string, parentID *string, excludeID *string) (bool, error) {
	builder := psql.Select("1").
		From("locations").
		Where(sq.Eq{"name": name, "is_deleted": false})
	if parentID != nil {
		builder = builder.Where(sq.Eq{"parent_id": *parentID})
	} else {
		builder = builder.Where("parent_id IS NULL")
	}
	if excludeID != nil {
		builder = builder.Where(sq.NotEq{"id": *excludeID})
	}
	query, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	var one int
	err = r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *locationRepository) HasLiveChildren(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM locations WHERE parent_id=$1 AND is_deleted=FALSE)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *locationRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
        UPDATE locations SET is_deleted=TRUE, deleted_at=NOW(), updated_at=NOW()
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

func (r *locationRepository) GetRootByCodeOrName(ctx context.Context, codeOrName string) (*domain.Location, error) {
	query := "SELECT " + locationColumns + `
        FROM locations
        WHERE parent_id IS NULL AND is_deleted=FALSE AND (code=$1 OR name=$1)`
	return r.fetchSingle(ctx, query, codeOrName)
}

func scanLocations(rows pgx.Rows) ([]domain.Location, error) {
	var result []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(
			&loc.ID,
			&loc.Name,
			&loc.Code,
			&loc.ParentID,
			&loc.Level,
			&loc.CreatedAt,
			&loc.UpdatedAt,
			&loc.DeletedAt,
			&loc.IsDeleted,
		); err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	return result, rows.Err()
}
