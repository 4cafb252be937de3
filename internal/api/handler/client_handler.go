package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/primar/console/internal/api/metrics"
	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

type ClientHandler struct {
	service ports.ClientService
}

func NewClientHandler(service ports.ClientService) *ClientHandler {
	return &ClientHandler{service: service}
}

type createClientRequest struct {
	Nome        string           `json:"nome" validate:"required,max=200"`
	Email       string           `json:"email" validate:"required,email"`
	Telefone    string           `json:"telefone" validate:"phone_br"`
	Empresa     string           `json:"empresa"`
	CNPJ        string           `json:"cnpj" validate:"cnpj"`
	CEP         string           `json:"cep" validate:"cep"`
	Endereco    string           `json:"endereco"`
	ValorMensal *decimal.Decimal `json:"valor_mensal"`
	Pagamento   string           `json:"pagamento" validate:"payment_status"`
}

type updateClientRequest struct {
	Nome        *string          `json:"nome" validate:"omitempty,max=200"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	Telefone    *string          `json:"telefone" validate:"omitempty,phone_br"`
	Empresa     *string          `json:"empresa"`
	CNPJ        *string          `json:"cnpj" validate:"omitempty,cnpj"`
	CEP         *string          `json:"cep" validate:"omitempty,cep"`
	Endereco    *string          `json:"endereco"`
	ValorMensal *decimal.Decimal `json:"valor_mensal"`
	Pagamento   *string          `json:"pagamento" validate:"omitempty,payment_status"`
	Ativo       *bool            `json:"ativo"`
}

type clientListResponse struct {
	Clients []*domain.Profile `json:"clients"`
	Total   int               `json:"total"`
}

type createClientResponse struct {
	Profile           *domain.Profile `json:"profile"`
	TemporaryPassword string          `json:"temporary_password"`
}

type clientStatsResponse struct {
	Total          int              `json:"total"`
	Active         int              `json:"active"`
	ActiveShare    decimal.Decimal  `json:"active_share"`
	Late           int              `json:"late"`
	MonthlyRevenue *decimal.Decimal `json:"monthly_revenue,omitempty"`
}

type financeSummaryResponse struct {
	ActiveClients  int             `json:"active_clients"`
	LateClients    int             `json:"late_clients"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	LateRevenue    decimal.Decimal `json:"late_revenue"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
}

func (r updateClientRequest) patch() domain.ProfilePatch {
	p := domain.ProfilePatch{
		Nome:        r.Nome,
		Email:       r.Email,
		Telefone:    r.Telefone,
		Empresa:     r.Empresa,
		CNPJ:        r.CNPJ,
		CEP:         r.CEP,
		Endereco:    r.Endereco,
		ValorMensal: r.ValorMensal,
		Ativo:       r.Ativo,
	}
	if r.Pagamento != nil {
		ps := domain.PaymentStatus(*r.Pagamento)
		p.Pagamento = &ps
	}
	return p
}

// provisioningOutcome labels a Create result for metrics.
func provisioningOutcome(err error) string {
	var pe *domain.PartialProvisioningError
	switch {
	case err == nil:
		return "created"
	case errors.As(err, &pe) && pe.Compensated:
		return "rolled_back"
	case errors.As(err, &pe):
		return "orphaned"
	}
	return "rejected"
}

// List handles GET /v1/clients.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Matches nome, email or CNPJ"
// @Param        status  query     string  false  "ativo or inativo"
// @Success      200     {object}  clientListResponse
// @Failure      403     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /v1/clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	clients, err := h.service.List(c.Request().Context(), actor, ports.ClientFilter{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clientListResponse{Clients: clients, Total: len(clients)})
}

// Create handles POST /v1/clients. It provisions a login account, the client
// profile and the cliente role, and returns the temporary password once.
//
// @Summary      Provision a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createClientRequest  true  "Client"
// @Success      201   {object}  createClientResponse
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.ClientProvisioningTotal.WithLabelValues("rejected").Inc()
		return err
	}

	in := ports.CreateClientInput{
		Nome:      req.Nome,
		Email:     req.Email,
		Telefone:  req.Telefone,
		Empresa:   req.Empresa,
		CNPJ:      req.CNPJ,
		CEP:       req.CEP,
		Endereco:  req.Endereco,
		Pagamento: domain.PaymentStatus(req.Pagamento),
	}
	if req.ValorMensal != nil {
		in.ValorMensal = *req.ValorMensal
	}

	created, err := h.service.Create(c.Request().Context(), actor, in)
	metrics.ClientProvisioningTotal.WithLabelValues(provisioningOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, createClientResponse{
		Profile:           created.Profile,
		TemporaryPassword: created.TemporaryPassword,
	})
}

// Update handles PATCH /v1/clients/:id.
//
// @Summary      Update a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Client profile id"
// @Param        body  body      updateClientRequest  true  "Fields to change"
// @Success      200   {object}  domain.Profile
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/clients/{id} [patch]
func (h *ClientHandler) Update(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateClientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Deactivate handles DELETE /v1/clients/:id. Profiles are never removed, only
// marked inactive.
//
// @Summary      Deactivate a client
// @Tags         clients
// @Security     BearerAuth
// @Param        id   path  string  true  "Client profile id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/clients/{id} [delete]
func (h *ClientHandler) Deactivate(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Deactivate(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/clients/stats. Revenue is only reported to admins.
//
// @Summary      Client stats
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  clientStatsResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/clients/stats [get]
func (h *ClientHandler) Stats(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clientStatsResponse{
		Total:          stats.Total,
		Active:         stats.Active,
		ActiveShare:    stats.ActiveShare,
		Late:           stats.Late,
		MonthlyRevenue: stats.MonthlyRevenue,
	})
}

// Finance handles GET /v1/finance/summary. Admin only.
//
// @Summary      Finance summary
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  financeSummaryResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/finance/summary [get]
func (h *ClientHandler) Finance(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	sum, err := h.service.FinanceSummary(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, financeSummaryResponse{
		ActiveClients:  sum.ActiveClients,
		LateClients:    sum.LateClients,
		MonthlyRevenue: sum.MonthlyRevenue,
		LateRevenue:    sum.LateRevenue,
		AverageTicket:  sum.AverageTicket,
	})
}
