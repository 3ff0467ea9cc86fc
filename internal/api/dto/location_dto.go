package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LocationRequest payload for create and update.
type LocationRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Code     *string `json:"code,omitempty" validate:"omitempty,max=8"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
	Level    int     `json:"level" validate:"required,min=1"`
}

// LocationResponse representation.
type LocationResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Code      *string    `json:"code,omitempty"`
	ParentID  *string    `json:"parent_id,omitempty"`
	Level     int        `json:"level"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// NewLocationResponse maps the domain entity.
func NewLocationResponse(loc *domain.Location) LocationResponse {
	return LocationResponse{
		ID:        loc.ID,
		Name:      loc.Name,
		Code:      loc.Code,
		ParentID:  loc.ParentID,
		Level:     loc.Level,
		CreatedAt: loc.CreatedAt,
		UpdatedAt: loc.UpdatedAt,
		DeletedAt: loc.DeletedAt,
	}
}

// NewLocationResponses maps a slice of domain entities.
func NewLocationResponses(locs []domain.Location) []LocationResponse {
	items := make([]LocationResponse, 0, len(locs))
	for i := range locs {
		items = append(items, NewLocationResponse(&locs[i]))
	}
	return items
}
