package domain

import (
	"fmt"
	"time"
)

// RootLevel is the level every location without a parent carries.
const RootLevel = 1

// Location is a node in the administrative location tree (province, district,
// sector and so on). The parent is held as an id reference only; children are
// always derived through the parent index, never stored on the node.
type Location struct {
	ID        string
	Name      string
	Code      *string // short code, populated for root locations only
	ParentID  *string // nil for roots
	Level     int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// IsRoot reports whether the location sits at the top of the tree.
func (l *Location) IsRoot() bool {
	return l.ParentID == nil
}

// HierarchyCandidate describes a proposed location before it is persisted.
// ParentLevel must carry the already-persisted parent's level when ParentID
// is set; it is ignored for root candidates.
type HierarchyCandidate struct {
	ParentID    *string
	Level       int
	ParentLevel int
}

// ValidateHierarchy applies the structural invariants of the location tree to
// a candidate node. It is a pure check: parent existence is the caller's job,
// the persisted parent level arrives via the candidate.
func ValidateHierarchy(c HierarchyCandidate) error {
	if c.Level < RootLevel {
		return fmt.Errorf("level must be %d or greater", RootLevel)
	}
	if c.Level == RootLevel && c.ParentID != nil {
		return fmt.Errorf("root location must not have a parent")
	}
	if c.Level > RootLevel && c.ParentID == nil {
		return fmt.Errorf("non-root requires parent")
	}
	if c.ParentID != nil && c.Level != c.ParentLevel+1 {
		return fmt.Errorf("level %d inconsistent with parent level %d", c.Level, c.ParentLevel)
	}
	return nil
}
