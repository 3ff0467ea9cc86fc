package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateHierarchy(t *testing.T) {
	cases := []struct {
		name      string
		candidate HierarchyCandidate
		wantErr   string
	}{
		{
			name:      "valid root",
			candidate: HierarchyCandidate{Level: 1},
		},
		{
			name:      "valid child",
			candidate: HierarchyCandidate{ParentID: strPtr("p"), Level: 2, ParentLevel: 1},
		},
		{
			name:      "level below root",
			candidate: HierarchyCandidate{Level: 0},
			wantErr:   "level must be 1 or greater",
		},
		{
			name:      "root with parent",
			candidate: HierarchyCandidate{ParentID: strPtr("p"), Level: 1, ParentLevel: 1},
			wantErr:   "root location must not have a parent",
		},
		{
			name:      "non-root without parent",
			candidate: HierarchyCandidate{Level: 2},
			wantErr:   "non-root requires parent",
		},
		{
			name:      "level skips a generation",
			candidate: HierarchyCandidate{ParentID: strPtr("p"), Level: 4, ParentLevel: 2},
			wantErr:   "level 4 inconsistent with parent level 2",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateHierarchy(tc.candidate)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLocationIsRoot(t *testing.T) {
	root := Location{Name: "Kigali", Level: 1}
	assert.True(t, root.IsRoot())

	child := Location{Name: "Gasabo", ParentID: strPtr("parent-id"), Level: 2}
	assert.False(t, child.IsRoot())
}
