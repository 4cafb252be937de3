package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/primar/console/internal/core/domain"
)

func newDirectoryFixture() (*DirectoryService, *stubProfileRepo, *stubRoleRepo) {
	profiles := newStubProfileRepo()
	roles := newStubRoleRepo()
	seedPeople(profiles, roles)
	profiles.put(&domain.Profile{ID: "p-gone", UserID: "u-gone", Nome: "Zeca Desligado", Ativo: false})
	roles.set("u-gone", domain.RoleStaff)
	return NewDirectoryService(profiles, roles, discardLogger), profiles, roles
}

func profileIDs(profiles []*domain.Profile) []string {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	return ids
}

func TestDirectoryService_Assignees(t *testing.T) {
	svc, _, _ := newDirectoryFixture()

	got, err := svc.Assignees(context.Background(), staffActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := profileIDs(got)
	if len(ids) != 2 || ids[0] != "p-admin" || ids[1] != "p-staff" {
		t.Errorf("expected active admin and staff, got %v", ids)
	}

	if _, err := svc.Assignees(context.Background(), clientActor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for client, got %v", err)
	}
}

func TestDirectoryService_Clients(t *testing.T) {
	svc, _, _ := newDirectoryFixture()

	got, err := svc.Clients(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := profileIDs(got); len(ids) != 1 || ids[0] != "p-client" {
		t.Errorf("expected only the active client, got %v", ids)
	}
}

func TestDirectoryService_Staff(t *testing.T) {
	svc, _, _ := newDirectoryFixture()

	if _, err := svc.Staff(context.Background(), staffActor); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for staff, got %v", err)
	}

	got, err := svc.Staff(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 members including inactive, got %d", len(got))
	}
	roles := map[string]domain.Role{}
	for _, m := range got {
		roles[m.ID] = m.Role
	}
	if roles["p-admin"] != domain.RoleAdmin || roles["p-staff"] != domain.RoleStaff || roles["p-gone"] != domain.RoleStaff {
		t.Errorf("unexpected roles: %v", roles)
	}
}

func TestDirectoryService_AssignRole(t *testing.T) {
	cases := []struct {
		name    string
		actor   domain.Principal
		userID  string
		role    domain.Role
		wantErr error
		field   string
	}{
		{"admin promotes staff", adminActor, "u-staff", domain.RoleAdmin, nil, ""},
		{"staff cannot assign", staffActor, "u-client", domain.RoleStaff, domain.ErrForbidden, ""},
		{"unknown role", adminActor, "u-staff", "gerente", nil, "role"},
		{"self demotion", adminActor, "u-admin", domain.RoleStaff, nil, "role"},
		{"unknown user", adminActor, "u-ghost", domain.RoleStaff, domain.ErrUserNotFound, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, roles := newDirectoryFixture()
			err := svc.AssignRole(context.Background(), tc.actor, tc.userID, tc.role)

			switch {
			case tc.field != "":
				var verr *domain.ValidationError
				if !errors.As(err, &verr) || verr.Field != tc.field {
					t.Fatalf("expected %s ValidationError, got %v", tc.field, err)
				}
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got, _ := roles.get(tc.userID); got != tc.role {
					t.Errorf("expected role %s, got %s", tc.role, got)
				}
			}
		})
	}
}

func TestDirectoryService_UpdateOwnProfile(t *testing.T) {
	svc, profiles, _ := newDirectoryFixture()
	valor := decimal.NewFromInt(1)
	late := domain.PaymentLate

	got, err := svc.UpdateOwnProfile(context.Background(), clientActor, domain.ProfilePatch{
		Telefone:    strPtr("21912345678"),
		Ativo:       boolPtr(false),
		ValorMensal: &valor,
		Pagamento:   &late,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Telefone != "(21) 91234-5678" {
		t.Errorf("expected formatted phone, got %q", got.Telefone)
	}
	stored := profiles.get("p-client")
	if !stored.Ativo || stored.Pagamento == domain.PaymentLate || !stored.ValorMensal.IsZero() {
		t.Errorf("expected status and billing untouched, got %+v", stored)
	}
}

func TestDirectoryService_UpdateOwnProfile_Rejects(t *testing.T) {
	svc, _, _ := newDirectoryFixture()

	_, err := svc.UpdateOwnProfile(context.Background(), staffActor, domain.ProfilePatch{CEP: strPtr("12")})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "cep" {
		t.Fatalf("expected cep ValidationError, got %v", err)
	}

	if _, err := svc.UpdateOwnProfile(context.Background(), domain.Principal{}, domain.ProfilePatch{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
