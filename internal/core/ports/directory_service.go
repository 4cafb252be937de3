package ports

import (
	"context"

	"github.com/primar/console/internal/core/domain"
)

// StaffMember is a profile together with its role.
type StaffMember struct {
	*domain.Profile
	Role domain.Role `json:"role"`
}

// DirectoryService lists people by role and manages role assignment.
type DirectoryService interface {
	// Assignees returns the active profiles that may be assigned tasks.
	Assignees(ctx context.Context, actor domain.Principal) ([]*domain.Profile, error)
	// Clients returns the active client profiles offered by the task form.
	Clients(ctx context.Context, actor domain.Principal) ([]*domain.Profile, error)
	Staff(ctx context.Context, actor domain.Principal) ([]StaffMember, error)
	AssignRole(ctx context.Context, actor domain.Principal, userID string, role domain.Role) error
	UpdateOwnProfile(ctx context.Context, actor domain.Principal, patch domain.ProfilePatch) (*domain.Profile, error)
}
