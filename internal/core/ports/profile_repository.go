package ports

import (
	"context"
	"time"

	"github.com/primar/console/internal/core/domain"
)

// ProfileFilter narrows a profile listing. A nil Ativo returns active and inactive profiles.
type ProfileFilter struct {
	Ativo   *bool
	UserIDs []string
}

// ProfileRepository persists profiles. Profiles are never hard-deleted except
// when rolling back a failed provisioning.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	// List returns profiles ordered by nome.
	List(ctx context.Context, filter ProfileFilter) ([]*domain.Profile, error)
	Update(ctx context.Context, id string, patch domain.ProfilePatch, updatedAt time.Time) (*domain.Profile, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
