package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/playcash/internal/domain"
)

type WithdrawalRequestDTO struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"100"`
	Method      string          `json:"method" example:"bkash"`
	Destination string          `json:"destination" example:"01700000000"`
}

type ResolveRequestDTO struct {
	Action string `json:"action" example:"approve"`
	Notes  string `json:"notes,omitempty" example:"checked against statement"`
}

type MoneyRequestResponseDTO struct {
	ID             int             `json:"id" example:"10"`
	Reference      string          `json:"reference" example:"DEP_01HXKQ2Z9Y3M4N5P6Q7R8S9T0V"`
	AccountID      int             `json:"account_id" example:"2"`
	Direction      string          `json:"direction" example:"deposit"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"200"`
	Method         string          `json:"method" example:"bkash"`
	TransactionRef string          `json:"transaction_ref,omitempty" example:"8N7A6B5C"`
	ProofRef       string          `json:"proof_ref,omitempty"`
	Destination    string          `json:"destination,omitempty"`
	Status         string          `json:"status" example:"pending"`
	BonusAmount    decimal.Decimal `json:"bonus_amount" swaggertype:"string" example:"0"`
	AdminNotes     string          `json:"admin_notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at" example:"2024-05-01T12:00:00Z"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
}

func NewMoneyRequestResponse(r *domain.MoneyRequest) MoneyRequestResponseDTO {
	return MoneyRequestResponseDTO{
		ID:             r.ID,
		Reference:      r.Reference,
		AccountID:      r.AccountID,
		Direction:      string(r.Direction),
		Amount:         r.Amount,
		Method:         r.Method,
		TransactionRef: r.TransactionRef,
		ProofRef:       r.ProofRef,
		Destination:    r.Destination,
		Status:         string(r.Status),
		BonusAmount:    r.BonusAmount,
		AdminNotes:     r.AdminNotes,
		CreatedAt:      r.CreatedAt,
		ProcessedAt:    r.ProcessedAt,
	}
}

func NewMoneyRequestList(requests []domain.MoneyRequest) []MoneyRequestResponseDTO {
	response := make([]MoneyRequestResponseDTO, len(requests))
	for i := range requests {
		response[i] = NewMoneyRequestResponse(&requests[i])
	}
	return response
}
