package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

type stubDirectoryService struct {
	assigned map[string]domain.Role
	patch    *domain.ProfilePatch
	err      error
}

func (s *stubDirectoryService) Assignees(context.Context, domain.Principal) ([]*domain.Profile, error) {
	return []*domain.Profile{{ID: "p-admin"}, {ID: "p-staff"}}, s.err
}

func (s *stubDirectoryService) Clients(context.Context, domain.Principal) ([]*domain.Profile, error) {
	return []*domain.Profile{{ID: "p-client"}}, s.err
}

func (s *stubDirectoryService) Staff(context.Context, domain.Principal) ([]ports.StaffMember, error) {
	return []ports.StaffMember{{Profile: &domain.Profile{ID: "p-staff"}, Role: domain.RoleStaff}}, s.err
}

func (s *stubDirectoryService) AssignRole(_ context.Context, _ domain.Principal, userID string, role domain.Role) error {
	if s.err != nil {
		return s.err
	}
	if s.assigned == nil {
		s.assigned = make(map[string]domain.Role)
	}
	s.assigned[userID] = role
	return nil
}

func (s *stubDirectoryService) UpdateOwnProfile(_ context.Context, actor domain.Principal, patch domain.ProfilePatch) (*domain.Profile, error) {
	s.patch = &patch
	p := &domain.Profile{ID: actor.ProfileID}
	if patch.Nome != nil {
		p.Nome = *patch.Nome
	}
	return p, s.err
}

func TestDirectoryHandler_Assignees_ReturnsFormOptions(t *testing.T) {
	e := newTestEcho()
	c, rec := jsonContext(e, http.MethodGet, "/v1/assignees", "")
	withPrincipal(c, staffPrincipal)

	if err := NewDirectoryHandler(&stubDirectoryService{}).Assignees(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp taskFormOptions
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Assignees) != 2 || len(resp.Clients) != 1 {
		t.Fatalf("unexpected options: %+v", resp)
	}
}

func TestDirectoryHandler_Staff(t *testing.T) {
	e := newTestEcho()
	c, rec := jsonContext(e, http.MethodGet, "/v1/staff", "")
	withPrincipal(c, adminPrincipal)

	if err := NewDirectoryHandler(&stubDirectoryService{}).Staff(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp struct {
		Staff []struct {
			ID   string      `json:"id"`
			Role domain.Role `json:"role"`
		} `json:"staff"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 1 || resp.Staff[0].ID != "p-staff" || resp.Staff[0].Role != domain.RoleStaff {
		t.Fatalf("expected the profile flattened with its role, got %+v", resp)
	}
}

func TestDirectoryHandler_AssignRole(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr bool
		want    domain.Role
	}{
		{"staff", `{"role":"funcionario"}`, false, domain.RoleStaff},
		{"client", `{"role":"cliente"}`, false, domain.RoleClient},
		{"unknown role", `{"role":"gerente"}`, true, domain.RoleNone},
		{"missing role", `{}`, true, domain.RoleNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			svc := &stubDirectoryService{}
			c, rec := jsonContext(e, http.MethodPut, "/v1/users/u-9/role", tc.body)
			c.SetParamNames("user_id")
			c.SetParamValues("u-9")
			withPrincipal(c, adminPrincipal)

			err := NewDirectoryHandler(svc).AssignRole(c)
			if tc.wantErr {
				var verr *domain.ValidationError
				if !errors.As(err, &verr) || verr.Field != "role" {
					t.Fatalf("expected role ValidationError, got %v", err)
				}
				if len(svc.assigned) != 0 {
					t.Fatalf("service should not be called")
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if svc.assigned["u-9"] != tc.want {
				t.Fatalf("expected %s assigned, got %v", tc.want, svc.assigned)
			}
			var resp assignRoleResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.UserID != "u-9" || resp.Role != tc.want {
				t.Fatalf("unexpected payload: %+v", resp)
			}
		})
	}
}

func TestDirectoryHandler_AssignRole_ServiceErrorPassesThrough(t *testing.T) {
	e := newTestEcho()
	svc := &stubDirectoryService{err: domain.ErrForbidden}
	c, _ := jsonContext(e, http.MethodPut, "/v1/users/u-admin/role", `{"role":"cliente"}`)
	c.SetParamNames("user_id")
	c.SetParamValues("u-admin")
	withPrincipal(c, adminPrincipal)

	if err := NewDirectoryHandler(svc).AssignRole(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDirectoryHandler_UpdateProfile_IgnoresBillingFields(t *testing.T) {
	e := newTestEcho()
	svc := &stubDirectoryService{}
	c, rec := jsonContext(e, http.MethodPatch, "/v1/profile",
		`{"nome":"Carla Souza","valor_mensal":"1","pagamento":"em_dia","ativo":true}`)
	withPrincipal(c, clientPrincipal)

	if err := NewDirectoryHandler(svc).UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	p := svc.patch
	if p == nil || p.Nome == nil || *p.Nome != "Carla Souza" {
		t.Fatalf("expected nome forwarded, got %+v", p)
	}
	if p.ValorMensal != nil || p.Pagamento != nil || p.Ativo != nil || p.Email != nil {
		t.Fatalf("self-service patch must not carry billing or status: %+v", p)
	}
}

func TestDirectoryHandler_UpdateProfile_RejectsBadPhone(t *testing.T) {
	e := newTestEcho()
	c, _ := jsonContext(e, http.MethodPatch, "/v1/profile", `{"telefone":"99"}`)
	withPrincipal(c, clientPrincipal)

	err := NewDirectoryHandler(&stubDirectoryService{}).UpdateProfile(c)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "telefone" {
		t.Fatalf("expected telefone ValidationError, got %v", err)
	}
}
