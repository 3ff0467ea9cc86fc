package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// LocationService owns creation, validation and traversal of the location
// tree. The tree is acyclic by construction: update rejects any re-parenting
// that would place a node under its own descendant, and both walks carry a
// visited guard regardless.
type LocationService struct {
	locations  repository.LocationRepository
	dispatcher events.Dispatcher
}

// LocationDependencies bundles collaborators for the location service.
type LocationDependencies struct {
	LocationRepo repository.LocationRepository
	Dispatcher   events.Dispatcher
}

// LocationInput describes a location create/update payload.
type LocationInput struct {
	Name     string
	Code     *string
	ParentID *string
	Level    int
}

// NewLocationService constructs the service.
func NewLocationService(deps LocationDependencies) *LocationService {
	return &LocationService{
		locations:  deps.LocationRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates and persists a new location.
func (s *LocationService) Create(ctx context.Context, input LocationInput) (*domain.Location, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("location name required", nil)
	}

	if err := s.validateCandidate(ctx, input); err != nil {
		return nil, err
	}
	if err := s.checkSiblingName(ctx, input.Name, input.ParentID, nil); err != nil {
		return nil, err
	}

	loc := &domain.Location{
		Name:     input.Name,
		Code:     input.Code,
		ParentID: input.ParentID,
		Level:    input.Level,
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventLocationCreated,
		EntityID: loc.ID,
		Payload: events.LocationCreatedPayload{
			Name:     loc.Name,
			Level:    loc.Level,
			ParentID: loc.ParentID,
		},
	})
	return loc, nil
}

// Update re-validates the hierarchy invariants against the new parent/level
// and persists the change. The sibling-name check excludes the record itself.
// Re-parenting is node-local: descendants keep their stored levels and are not
// cascaded to match the new position.
func (s *LocationService) Update(ctx context.Context, id string, input LocationInput) (*domain.Location, error) {
	loc, err := s.getLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("location name required", nil)
	}
	if err := s.validateCandidate(ctx, input); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.ensureNoCycle(ctx, id, *input.ParentID); err != nil {
			return nil, err
		}
	}
	if err := s.checkSiblingName(ctx, input.Name, input.ParentID, &id); err != nil {
		return nil, err
	}

	loc.Name = input.Name
	loc.Code = input.Code
	loc.ParentID = input.ParentID
	loc.Level = input.Level
	if err := s.locations.Update(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// Delete soft-deletes a leaf location. Locations with non-deleted children
// are refused so no subtree is orphaned.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	loc, err := s.getLocation(ctx, id)
	if err != nil {
		return err
	}
	hasChildren, err := s.locations.HasLiveChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return apperrors.NewConflict("location has children", map[string]any{"id": id})
	}
	if err := s.locations.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventLocationDeleted,
		EntityID: id,
		Payload: events.LocationDeletedPayload{
			Name:  loc.Name,
			Level: loc.Level,
		},
	})
	return nil
}

// Get returns a live location by id.
func (s *LocationService) Get(ctx context.Context, id string) (*domain.Location, error) {
	return s.getLocation(ctx, id)
}

// GetForAudit returns a location even after soft deletion.
func (s *LocationService) GetForAudit(ctx context.Context, id string) (*domain.Location, error) {
	loc, err := s.locations.GetIncludingDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("location", map[string]any{"id": id})
		}
		return nil, err
	}
	return loc, nil
}

// Roots lists all root locations ordered by name.
func (s *LocationService) Roots(ctx context.Context) ([]domain.Location, error) {
	return s.locations.ListRoots(ctx)
}

// Children lists the direct children of a location, one level down.
func (s *LocationService) Children(ctx context.Context, parentID string, limit, offset int) ([]domain.Location, error) {
	return s.locations.ListChildren(ctx, parentID, limit, offset)
}

// AncestorRoot walks parent links upward from the given location and returns
// the root of its subtree.
func (s *LocationService) AncestorRoot(ctx context.Context, id string) (*domain.Location, error) {
	current, err := s.getLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	visited := map[string]struct{}{current.ID: {}}
	for current.ParentID != nil {
		parent, err := s.getLocation(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		if _, seen := visited[parent.ID]; seen {
			return nil, apperrors.NewInternalError(fmt.Errorf("location hierarchy contains a cycle at %s", parent.ID))
		}
		visited[parent.ID] = struct{}{}
		current = parent
	}
	return current, nil
}

// Descendants enumerates every live location transitively under the given
// node, breadth first, with no depth limit. The result excludes the starting
// node itself.
func (s *LocationService) Descendants(ctx context.Context, id string) ([]domain.Location, error) {
	if _, err := s.getLocation(ctx, id); err != nil {
		return nil, err
	}

	var result []domain.Location
	visited := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]
		children, err := s.locations.ListChildren(ctx, parentID, 0, 0)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			result = append(result, child)
			queue = append(queue, child.ID)
		}
	}
	return result, nil
}

// IsRoot reports whether the location has no parent.
func (s *LocationService) IsRoot(ctx context.Context, id string) (bool, error) {
	loc, err := s.getLocation(ctx, id)
	if err != nil {
		return false, err
	}
	return loc.IsRoot(), nil
}

// HasChildren reports whether the location has any non-deleted child.
func (s *LocationService) HasChildren(ctx context.Context, id string) (bool, error) {
	if _, err := s.getLocation(ctx, id); err != nil {
		return false, err
	}
	return s.locations.HasLiveChildren(ctx, id)
}

// RootByCodeOrName finds a root location by its short code or exact name.
func (s *LocationService) RootByCodeOrName(ctx context.Context, codeOrName string) (*domain.Location, error) {
	loc, err := s.locations.GetRootByCodeOrName(ctx, codeOrName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("location", map[string]any{"code_or_name": codeOrName})
		}
		return nil, err
	}
	return loc, nil
}

// validateCandidate resolves the parent (when referenced) and applies the
// structural invariants to the proposed node.
func (s *LocationService) validateCandidate(ctx context.Context, input LocationInput) error {
	candidate := domain.HierarchyCandidate{
		ParentID: input.ParentID,
		Level:    input.Level,
	}
	if input.ParentID != nil {
		parent, err := s.locations.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewValidationError("parent location not found", map[string]any{"parent_id": *input.ParentID})
			}
			return err
		}
		candidate.ParentLevel = parent.Level
	}
	if err := domain.ValidateHierarchy(candidate); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return nil
}

func (s *LocationService) checkSiblingName(ctx context.Context, name string, parentID *string, excludeID *string) error {
	exists, err := s.locations.ExistsSiblingName(ctx, name, parentID, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewValidationError(
			fmt.Sprintf("location %q already exists under this parent", name), nil)
	}
	return nil
}

// ensureNoCycle rejects re-parenting id under itself or one of its own
// descendants by walking parent links upward from the proposed parent.
func (s *LocationService) ensureNoCycle(ctx context.Context, id, newParentID string) error {
	if newParentID == id {
		return apperrors.NewValidationError("location cannot be its own parent", nil)
	}
	visited := map[string]struct{}{}
	currentID := newParentID
	for {
		if currentID == id {
			return apperrors.NewValidationError("location cannot be moved under its own descendant", nil)
		}
		if _, seen := visited[currentID]; seen {
			return apperrors.NewInternalError(fmt.Errorf("location hierarchy contains a cycle at %s", currentID))
		}
		visited[currentID] = struct{}{}
		current, err := s.getLocation(ctx, currentID)
		if err != nil {
			return err
		}
		if current.ParentID == nil {
			return nil
		}
		currentID = *current.ParentID
	}
}

func (s *LocationService) getLocation(ctx context.Context, id string) (*domain.Location, error) {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("location", map[string]any{"id": id})
		}
		return nil, err
	}
	return loc, nil
}

func (s *LocationService) publish(ctx context.Context, event events.Event) {
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
