package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

// DirectoryHandler serves people listings, role assignment and profile self-service.
type DirectoryHandler struct {
	service ports.DirectoryService
}

func NewDirectoryHandler(service ports.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin funcionario cliente"`
}

type updateProfileRequest struct {
	Nome     *string `json:"nome" validate:"omitempty,min=1,max=200"`
	Telefone *string `json:"telefone" validate:"omitempty,phone_br"`
	Empresa  *string `json:"empresa"`
	CNPJ     *string `json:"cnpj" validate:"omitempty,cnpj"`
	CEP      *string `json:"cep" validate:"omitempty,cep"`
	Endereco *string `json:"endereco"`
}

type staffListResponse struct {
	Staff []ports.StaffMember `json:"staff"`
	Total int                 `json:"total"`
}

// taskFormOptions are the choices offered by the task form.
type taskFormOptions struct {
	Assignees []*domain.Profile `json:"assignees"`
	Clients   []*domain.Profile `json:"clients"`
}

type assignRoleResponse struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Staff handles GET /v1/staff. Admin only.
//
// @Summary      List staff and their roles
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  staffListResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/staff [get]
func (h *DirectoryHandler) Staff(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	staff, err := h.service.Staff(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, staffListResponse{Staff: staff, Total: len(staff)})
}

// Assignees handles GET /v1/assignees.
//
// @Summary      Task form options
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  taskFormOptions
// @Failure      403  {object}  map[string]string
// @Router       /v1/assignees [get]
func (h *DirectoryHandler) Assignees(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	assignees, err := h.service.Assignees(ctx, actor)
	if err != nil {
		return err
	}
	clients, err := h.service.Clients(ctx, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskFormOptions{Assignees: assignees, Clients: clients})
}

// AssignRole handles PUT /v1/users/:user_id/role. Admin only.
//
// @Summary      Assign a role
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string             true  "User id"
// @Param        body     body      assignRoleRequest  true  "Role"
// @Success      200      {object}  assignRoleResponse
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /v1/users/{user_id}/role [put]
func (h *DirectoryHandler) AssignRole(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	userID := c.Param("user_id")
	if err := h.service.AssignRole(c.Request().Context(), actor, userID, role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assignRoleResponse{UserID: userID, Role: role})
}

// UpdateProfile handles PATCH /v1/profile: the caller edits their own profile.
//
// @Summary      Update my profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.Profile
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/profile [patch]
func (h *DirectoryHandler) UpdateProfile(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.service.UpdateOwnProfile(c.Request().Context(), actor, domain.ProfilePatch{
		Nome:     req.Nome,
		Telefone: req.Telefone,
		Empresa:  req.Empresa,
		CNPJ:     req.CNPJ,
		CEP:      req.CEP,
		Endereco: req.Endereco,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
