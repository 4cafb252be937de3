package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

const (
	defaultProvisionRetryDelay = 2 * time.Second
	temporaryPasswordLength    = 12
	temporaryPasswordAlphabet  = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// ClientService manages client profiles: profiles whose user holds the cliente role.
type ClientService struct {
	identity   ports.IdentityProvider
	profiles   ports.ProfileRepository
	roles      ports.RoleRepository
	logger     zerolog.Logger
	retryDelay time.Duration
	password   func() string
	now        func() time.Time
}

type ClientOption func(*ClientService)

// WithRetryDelay sets the pause before the single role-assignment retry.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(s *ClientService) { s.retryDelay = d }
}

func NewClientService(identity ports.IdentityProvider, profiles ports.ProfileRepository, roles ports.RoleRepository, logger zerolog.Logger, opts ...ClientOption) (*ClientService, error) {
	gen, err := nanoid.CustomASCII(temporaryPasswordAlphabet, temporaryPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("temporary password generator: %w", err)
	}
	s := &ClientService{
		identity:   identity,
		profiles:   profiles,
		roles:      roles,
		logger:     logger,
		retryDelay: defaultProvisionRetryDelay,
		password:   gen,
		now: domain.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns client profiles. Clients only ever see their own profile.
func (s *ClientService) List(ctx context.Context, actor domain.Principal, filter ports.ClientFilter) ([]*domain.Profile, error) {
	var ativo *bool
	switch filter.Status {
	case "":
	case ports.ClientStatusActive:
		ativo = boolPtr(true)
	case ports.ClientStatusInactive:
		ativo = boolPtr(false)
	default:
		return nil, domain.NewValidationError("status", "must be %s or %s", ports.ClientStatusActive, ports.ClientStatusInactive)
	}

	clients, err := s.clientProfiles(ctx, ports.ProfileFilter{Ativo: ativo})
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role.IsStaffOrAdmin():
	case actor.IsClient():
		own := clients[:0]
		for _, p := range clients {
			if p.UserID == actor.UserID {
				own = append(own, p)
			}
		}
		clients = own
	default:
		return nil, domain.ErrForbidden
	}

	return searchProfiles(clients, filter.Search), nil
}

// clientProfiles intersects the profiles matching filter with the users holding the cliente role.
func (s *ClientService) clientProfiles(ctx context.Context, filter ports.ProfileFilter) ([]*domain.Profile, error) {
	return profilesWithRoles(ctx, s.profiles, s.roles, filter, domain.RoleClient)
}

func profilesWithRoles(ctx context.Context, profiles ports.ProfileRepository, roles ports.RoleRepository, filter ports.ProfileFilter, want ...domain.Role) ([]*domain.Profile, error) {
	all, err := profiles.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	holders, err := roles.ListByRole(ctx, want...)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Profile, 0, len(all))
	for _, p := range all {
		if _, ok := holders[p.UserID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func searchProfiles(profiles []*domain.Profile, search string) []*domain.Profile {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return profiles
	}
	digits := domain.OnlyDigits(term)
	out := make([]*domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		switch {
		case strings.Contains(strings.ToLower(p.Nome), term),
			strings.Contains(strings.ToLower(p.Email), term),
			strings.Contains(strings.ToLower(p.CNPJ), term),
			digits != "" && strings.Contains(domain.OnlyDigits(p.CNPJ), digits):
			out = append(out, p)
		}
	}
	return out
}

func validateClientInput(in ports.CreateClientInput) error {
	if strings.TrimSpace(in.Nome) == "" {
		return domain.NewValidationError("nome", "is required")
	}
	if !domain.ValidEmail(in.Email) {
		return domain.NewValidationError("email", "invalid email")
	}
	if in.CNPJ != "" && !domain.ValidCNPJ(in.CNPJ) {
		return domain.NewValidationError("cnpj", "invalid CNPJ")
	}
	if in.CEP != "" && !domain.ValidCEP(in.CEP) {
		return domain.NewValidationError("cep", "must have 8 digits")
	}
	if in.Telefone != "" && !domain.ValidPhoneBR(in.Telefone) {
		return domain.NewValidationError("telefone", "must have 10 or 11 digits")
	}
	if !in.Pagamento.Valid() {
		return domain.NewValidationError("pagamento", "must be em_dia or atrasado")
	}
	if in.ValorMensal.IsNegative() {
		return domain.NewValidationError("valor_mensal", "must not be negative")
	}
	return nil
}

// Create provisions a client: account, profile, then cliente role. The role
// assignment is retried once; if it still fails the account and profile are
// removed again and a *domain.PartialProvisioningError is returned.
func (s *ClientService) Create(ctx context.Context, actor domain.Principal, input ports.CreateClientInput) (*ports.ProvisionedClient, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, domain.ErrForbidden
	}
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if err := validateClientInput(input); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (!input.ValorMensal.IsZero() || input.Pagamento != "") {
		return nil, fmt.Errorf("%w: only admins set billing fields", domain.ErrForbidden)
	}

	password := s.password()
	user, err := s.identity.CreateAccount(ctx, input.Email, password, strings.TrimSpace(input.Nome))
	if err != nil {
		return nil, err
	}
	log := s.logger.With().Str("user_id", user.ID).Str("actor", actor.UserID).Logger()

	profile, err := s.completeProfile(ctx, user, input)
	if err != nil {
		log.Error().Err(err).Msg("client profile write failed")
		return nil, s.compensate(ctx, user.ID, err)
	}

	if err := s.roles.Assign(ctx, user.ID, domain.RoleClient); err != nil {
		log.Warn().Err(err).Dur("retry_in", s.retryDelay).Msg("role assignment failed, retrying")
		if err := sleepCtx(ctx, s.retryDelay); err != nil {
			return nil, s.compensate(context.WithoutCancel(ctx), user.ID, err)
		}
		if err := s.roles.Assign(ctx, user.ID, domain.RoleClient); err != nil {
			log.Error().Err(err).Msg("role assignment retry failed")
			return nil, s.compensate(ctx, user.ID, err)
		}
	}

	log.Info().Str("profile_id", profile.ID).Msg("client provisioned")
	return &ports.ProvisionedClient{Profile: profile, TemporaryPassword: password}, nil
}

// completeProfile fills the profile created at sign-up with the client fields,
// creating it when the sign-up hook did not.
func (s *ClientService) completeProfile(ctx context.Context, user *domain.User, in ports.CreateClientInput) (*domain.Profile, error) {
	patch := domain.ProfilePatch{
		Nome:        strPtr(strings.TrimSpace(in.Nome)),
		Email:       strPtr(in.Email),
		Telefone:    strPtr(formatIfValid(in.Telefone, domain.FormatPhoneBR)),
		Empresa:     strPtr(in.Empresa),
		CNPJ:        strPtr(formatIfValid(in.CNPJ, domain.FormatCNPJ)),
		CEP:         strPtr(formatIfValid(in.CEP, domain.FormatCEP)),
		Endereco:    strPtr(in.Endereco),
		ValorMensal: &in.ValorMensal,
		Ativo:       boolPtr(true),
	}
	if in.Pagamento != "" {
		patch.Pagamento = &in.Pagamento
	} else {
		pagamento := domain.PaymentOnTime
		patch.Pagamento = &pagamento
	}

	now := s.now()
	existing, err := s.profiles.FindByUserID(ctx, user.ID)
	switch {
	case err == nil:
		return s.profiles.Update(ctx, existing.ID, patch, now)
	case errors.Is(err, domain.ErrProfileNotFound):
		profile := &domain.Profile{ID: newID(), UserID: user.ID, CreatedAt: now, UpdatedAt: now}
		patch.Apply(profile)
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, err
		}
		return profile, nil
	default:
		return nil, err
	}
}

func (s *ClientService) compensate(ctx context.Context, userID string, cause error) error {
	perr := &domain.PartialProvisioningError{UserID: userID, Err: cause}
	accountErr := s.identity.DeleteAccount(ctx, userID)
	profileErr := s.profiles.DeleteByUserID(ctx, userID)
	if accountErr == nil && (profileErr == nil || errors.Is(profileErr, domain.ErrProfileNotFound)) {
		perr.Compensated = true
	}
	s.logger.Error().
		Err(cause).
		Str("user_id", userID).
		Bool("compensated", perr.Compensated).
		AnErr("account_err", accountErr).
		AnErr("profile_err", profileErr).
		Msg("client provisioning rolled back")
	return perr
}

// Update patches a client profile. Billing fields are admin-only.
func (s *ClientService) Update(ctx context.Context, actor domain.Principal, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, domain.ErrForbidden
	}
	if !actor.IsAdmin() && (patch.ValorMensal != nil || patch.Pagamento != nil) {
		return nil, fmt.Errorf("%w: only admins change billing fields", domain.ErrForbidden)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireClient(ctx, id); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.profiles.FindByID(ctx, id)
	}
	formatPatch(&patch)
	return s.profiles.Update(ctx, id, patch, s.now())
}

// Deactivate sets ativo=false. Profiles are never hard-deleted.
func (s *ClientService) Deactivate(ctx context.Context, actor domain.Principal, id string) error {
	if !actor.Role.IsStaffOrAdmin() {
		return domain.ErrForbidden
	}
	if err := s.requireClient(ctx, id); err != nil {
		return err
	}
	_, err := s.profiles.Update(ctx, id, domain.ProfilePatch{Ativo: boolPtr(false)}, s.now())
	if err != nil {
		return err
	}
	s.logger.Info().Str("profile_id", id).Str("actor", actor.UserID).Msg("client deactivated")
	return nil
}

func (s *ClientService) requireClient(ctx context.Context, id string) error {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	role, err := s.roles.FindByUserID(ctx, profile.UserID)
	if errors.Is(err, domain.ErrRoleNotFound) || (err == nil && role != domain.RoleClient) {
		return domain.ErrProfileNotFound
	}
	return err
}

// Stats summarizes all clients. Revenue is only reported to admins.
func (s *ClientService) Stats(ctx context.Context, actor domain.Principal) (*ports.ClientStats, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, domain.ErrForbidden
	}
	clients, err := s.clientProfiles(ctx, ports.ProfileFilter{})
	if err != nil {
		return nil, err
	}

	stats := &ports.ClientStats{Total: len(clients), ActiveShare: decimal.Zero}
	revenue := decimal.Zero
	for _, p := range clients {
		if !p.Ativo {
			continue
		}
		stats.Active++
		revenue = revenue.Add(p.ValorMensal)
		if p.Pagamento == domain.PaymentLate {
			stats.Late++
		}
	}
	if stats.Total > 0 {
		stats.ActiveShare = decimal.NewFromInt(int64(stats.Active)).
			Div(decimal.NewFromInt(int64(stats.Total))).
			Mul(decimal.NewFromInt(100)).
			Round(1)
	}
	if actor.IsAdmin() {
		stats.MonthlyRevenue = &revenue
	}
	return stats, nil
}

// FinanceSummary reports billing totals over active clients. Admin only.
func (s *ClientService) FinanceSummary(ctx context.Context, actor domain.Principal) (*ports.FinanceSummary, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	clients, err := s.clientProfiles(ctx, ports.ProfileFilter{Ativo: boolPtr(true)})
	if err != nil {
		return nil, err
	}

	sum := &ports.FinanceSummary{
		MonthlyRevenue: decimal.Zero,
		LateRevenue:    decimal.Zero,
		AverageTicket:  decimal.Zero,
	}
	for _, p := range clients {
		sum.ActiveClients++
		sum.MonthlyRevenue = sum.MonthlyRevenue.Add(p.ValorMensal)
		if p.Pagamento == domain.PaymentLate {
			sum.LateClients++
			sum.LateRevenue = sum.LateRevenue.Add(p.ValorMensal)
		}
	}
	if sum.ActiveClients > 0 {
		sum.AverageTicket = sum.MonthlyRevenue.Div(decimal.NewFromInt(int64(sum.ActiveClients))).Round(2)
	}
	return sum, nil
}

func formatPatch(p *domain.ProfilePatch) {
	if p.CNPJ != nil {
		p.CNPJ = strPtr(formatIfValid(*p.CNPJ, domain.FormatCNPJ))
	}
	if p.CEP != nil {
		p.CEP = strPtr(formatIfValid(*p.CEP, domain.FormatCEP))
	}
	if p.Telefone != nil {
		p.Telefone = strPtr(formatIfValid(*p.Telefone, domain.FormatPhoneBR))
	}
	if p.Email != nil {
		p.Email = strPtr(strings.TrimSpace(strings.ToLower(*p.Email)))
	}
}

func formatIfValid(s string, format func(string) string) string {
	if s == "" {
		return ""
	}
	return format(s)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
