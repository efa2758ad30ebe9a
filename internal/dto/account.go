package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/playcash/internal/domain"
)

type AccountResponseDTO struct {
	UserID           int             `json:"user_id" example:"2"`
	SpendableBalance decimal.Decimal `json:"spendable_balance" swaggertype:"string" example:"300"`
	BonusBalance     decimal.Decimal `json:"bonus_balance" swaggertype:"string" example:"20"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings" swaggertype:"string" example:"0"`
	ReferredBy       *int            `json:"referred_by,omitempty" example:"1"`
	IsActive         bool            `json:"is_active" example:"true"`
}

func NewAccountResponse(a *domain.Account) AccountResponseDTO {
	return AccountResponseDTO{
		UserID:           a.UserID,
		SpendableBalance: a.SpendableBalance,
		BonusBalance:     a.BonusBalance,
		ReferralEarnings: a.ReferralEarnings,
		ReferredBy:       a.ReferredBy,
		IsActive:         a.IsActive,
	}
}

type LedgerEntryResponseDTO struct {
	ID          int             `json:"id" example:"7"`
	Kind        string          `json:"kind" example:"deposit"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"200"`
	Description string          `json:"description" example:"Deposit DEP_01HX..."`
	RequestID   *int            `json:"request_id,omitempty" example:"10"`
	CreatedAt   time.Time       `json:"created_at" example:"2024-05-01T12:00:00Z"`
}

type ReferredUserResponseDTO struct {
	UserID    int       `json:"user_id" example:"3"`
	FullName  string    `json:"full_name" example:"Bob Roy"`
	CreatedAt time.Time `json:"created_at" example:"2024-05-01T12:00:00Z"`
}

type SetBalanceRequestDTO struct {
	Balance decimal.Decimal `json:"balance" swaggertype:"string" example:"150.00"`
}

type SetStatusRequestDTO struct {
	Active bool `json:"active" example:"false"`
}
