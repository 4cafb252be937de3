package ports

import (
	"context"

	"github.com/primar/console/internal/core/domain"
)

// RoleRepository persists the single role held by each user.
type RoleRepository interface {
	// FindByUserID returns domain.ErrRoleNotFound when the user holds no role.
	FindByUserID(ctx context.Context, userID string) (domain.Role, error)
	// ListByRole returns the user ids holding any of roles.
	ListByRole(ctx context.Context, roles ...domain.Role) (map[string]domain.Role, error)
	// Assign replaces the user's role.
	Assign(ctx context.Context, userID string, role domain.Role) error
	Delete(ctx context.Context, userID string) error
}
