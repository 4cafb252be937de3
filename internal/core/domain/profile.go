package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks a client's monthly fee standing.
type PaymentStatus string

const (
	PaymentOnTime PaymentStatus = "em_dia"
	PaymentLate   PaymentStatus = "atrasado"
)

func (p PaymentStatus) Valid() bool {
	return p == "" || p == PaymentOnTime || p == PaymentLate
}

// Profile is the business-facing record of a user. It is never hard-deleted;
// Ativo=false deactivates it.
type Profile struct {
	ID          string          `json:"id" bson:"_id"`
	UserID      string          `json:"user_id" bson:"user_id"`
	Nome        string          `json:"nome" bson:"nome"`
	Email       string          `json:"email" bson:"email"`
	Telefone    string          `json:"telefone,omitempty" bson:"telefone,omitempty"`
	Empresa     string          `json:"empresa,omitempty" bson:"empresa,omitempty"`
	CNPJ        string          `json:"cnpj,omitempty" bson:"cnpj,omitempty"`
	CEP         string          `json:"cep,omitempty" bson:"cep,omitempty"`
	Endereco    string          `json:"endereco,omitempty" bson:"endereco,omitempty"`
	ValorMensal decimal.Decimal `json:"valor_mensal" bson:"-"`
	Pagamento   PaymentStatus   `json:"pagamento,omitempty" bson:"pagamento,omitempty"`
	Ativo       bool            `json:"ativo" bson:"ativo"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}

// ProfilePatch carries a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Nome        *string
	Email       *string
	Telefone    *string
	Empresa     *string
	CNPJ        *string
	CEP         *string
	Endereco    *string
	ValorMensal *decimal.Decimal
	Pagamento   *PaymentStatus
	Ativo       *bool
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Nome == nil && p.Email == nil && p.Telefone == nil && p.Empresa == nil &&
		p.CNPJ == nil && p.CEP == nil && p.Endereco == nil && p.ValorMensal == nil &&
		p.Pagamento == nil && p.Ativo == nil
}

// Validate checks the Brazilian document fields present in the patch.
func (p ProfilePatch) Validate() error {
	if p.Nome != nil && *p.Nome == "" {
		return NewValidationError("nome", "is required")
	}
	if p.CNPJ != nil && *p.CNPJ != "" && !ValidCNPJ(*p.CNPJ) {
		return NewValidationError("cnpj", "invalid CNPJ")
	}
	if p.CEP != nil && *p.CEP != "" && !ValidCEP(*p.CEP) {
		return NewValidationError("cep", "must have 8 digits")
	}
	if p.Telefone != nil && *p.Telefone != "" && !ValidPhoneBR(*p.Telefone) {
		return NewValidationError("telefone", "must have 10 or 11 digits")
	}
	if p.Pagamento != nil && !p.Pagamento.Valid() {
		return NewValidationError("pagamento", "must be em_dia or atrasado")
	}
	if p.ValorMensal != nil && p.ValorMensal.IsNegative() {
		return NewValidationError("valor_mensal", "must not be negative")
	}
	return nil
}

// Apply copies the non-nil fields onto profile.
func (p ProfilePatch) Apply(profile *Profile) {
	if p.Nome != nil {
		profile.Nome = *p.Nome
	}
	if p.Email != nil {
		profile.Email = *p.Email
	}
	if p.Telefone != nil {
		profile.Telefone = *p.Telefone
	}
	if p.Empresa != nil {
		profile.Empresa = *p.Empresa
	}
	if p.CNPJ != nil {
		profile.CNPJ = *p.CNPJ
	}
	if p.CEP != nil {
		profile.CEP = *p.CEP
	}
	if p.Endereco != nil {
		profile.Endereco = *p.Endereco
	}
	if p.ValorMensal != nil {
		profile.ValorMensal = *p.ValorMensal
	}
	if p.Pagamento != nil {
		profile.Pagamento = *p.Pagamento
	}
	if p.Ativo != nil {
		profile.Ativo = *p.Ativo
	}
}
