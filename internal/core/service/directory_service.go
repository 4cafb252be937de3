package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

// DirectoryService lists people by role and assigns roles.
type DirectoryService struct {
	profiles ports.ProfileRepository
	roles    ports.RoleRepository
	logger   zerolog.Logger
	now      func() time.Time
}

func NewDirectoryService(profiles ports.ProfileRepository, roles ports.RoleRepository, logger zerolog.Logger) *DirectoryService {
	return &DirectoryService{
		profiles: profiles,
		roles:    roles,
		logger:   logger,
		now: domain.Now,
	}
}

// Assignees returns the active admins and staff, for the task form.
func (s *DirectoryService) Assignees(ctx context.Context, actor domain.Principal) ([]*domain.Profile, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, domain.ErrForbidden
	}
	return profilesWithRoles(ctx, s.profiles, s.roles, ports.ProfileFilter{Ativo: boolPtr(true)}, domain.RoleAdmin, domain.RoleStaff)
}

// Clients returns the active client profiles, for the task form.
func (s *DirectoryService) Clients(ctx context.Context, actor domain.Principal) ([]*domain.Profile, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, domain.ErrForbidden
	}
	return profilesWithRoles(ctx, s.profiles, s.roles, ports.ProfileFilter{Ativo: boolPtr(true)}, domain.RoleClient)
}

// Staff lists every admin and staff profile with its role. Admin only.
func (s *DirectoryService) Staff(ctx context.Context, actor domain.Principal) ([]ports.StaffMember, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	holders, err := s.roles.ListByRole(ctx, domain.RoleAdmin, domain.RoleStaff)
	if err != nil {
		return nil, err
	}
	all, err := s.profiles.List(ctx, ports.ProfileFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]ports.StaffMember, 0, len(holders))
	for _, p := range all {
		if role, ok := holders[p.UserID]; ok {
			out = append(out, ports.StaffMember{Profile: p, Role: role})
		}
	}
	return out, nil
}

// AssignRole replaces the role of userID. Admin only. The change reaches the
// user's live sessions on their next auth event.
func (s *DirectoryService) AssignRole(ctx context.Context, actor domain.Principal, userID string, role domain.Role) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if !role.Valid() {
		return domain.NewValidationError("role", "must be admin, funcionario or cliente")
	}
	if userID == actor.UserID && role != domain.RoleAdmin {
		return domain.NewValidationError("role", "admins cannot demote themselves")
	}
	if _, err := s.profiles.FindByUserID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	if err := s.roles.Assign(ctx, userID, role); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("role", string(role)).Str("actor", actor.UserID).Msg("role assigned")
	return nil
}

// UpdateOwnProfile lets any user edit their contact data. Status and billing
// fields are ignored.
func (s *DirectoryService) UpdateOwnProfile(ctx context.Context, actor domain.Principal, patch domain.ProfilePatch) (*domain.Profile, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	patch.Ativo = nil
	patch.ValorMensal = nil
	patch.Pagamento = nil
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return profile, nil
	}
	formatPatch(&patch)
	return s.profiles.Update(ctx, profile.ID, patch, s.now())
}
