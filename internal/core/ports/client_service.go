package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/primar/console/internal/core/domain"
)

// Client list status filters.
const (
	ClientStatusActive   = "ativo"
	ClientStatusInactive = "inativo"
)

// ClientFilter narrows the client list. Search matches nome, cnpj or email.
type ClientFilter struct {
	Search string
	Status string
}

// CreateClientInput is the admin's new-client form.
type CreateClientInput struct {
	Nome        string
	Email       string
	Telefone    string
	Empresa     string
	CNPJ        string
	CEP         string
	Endereco    string
	ValorMensal decimal.Decimal
	Pagamento   domain.PaymentStatus
}

// ProvisionedClient is returned once after provisioning. TemporaryPassword is
// not stored anywhere else.
type ProvisionedClient struct {
	Profile           *domain.Profile
	TemporaryPassword string
}

// ClientStats backs the Clientes screen cards.
type ClientStats struct {
	Total       int
	Active      int
	ActiveShare decimal.Decimal
	Late        int
	// MonthlyRevenue is only set for admins.
	MonthlyRevenue *decimal.Decimal
}

// FinanceSummary backs the Financeiro screen.
type FinanceSummary struct {
	ActiveClients  int
	LateClients    int
	MonthlyRevenue decimal.Decimal
	LateRevenue    decimal.Decimal
	AverageTicket  decimal.Decimal
}

// ClientService defines client use cases on behalf of an actor.
type ClientService interface {
	List(ctx context.Context, actor domain.Principal, filter ClientFilter) ([]*domain.Profile, error)
	Create(ctx context.Context, actor domain.Principal, input CreateClientInput) (*ProvisionedClient, error)
	Update(ctx context.Context, actor domain.Principal, id string, patch domain.ProfilePatch) (*domain.Profile, error)
	Deactivate(ctx context.Context, actor domain.Principal, id string) error
	Stats(ctx context.Context, actor domain.Principal) (*ClientStats, error)
	FinanceSummary(ctx context.Context, actor domain.Principal) (*FinanceSummary, error)
}
