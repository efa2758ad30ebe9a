package dto

import (
	"github.com/shopspring/decimal"
)

type GameResponseDTO struct {
	ID                int             `json:"id" example:"1"`
	Title             string          `json:"title" example:"Lucky Wheel"`
	Category          string          `json:"category" example:"slots"`
	Thumbnail         string          `json:"thumbnail,omitempty"`
	GameFile          string          `json:"game_file,omitempty"`
	WinningPercentage decimal.Decimal `json:"winning_percentage" swaggertype:"string" example:"45"`
	MinBet            decimal.Decimal `json:"min_bet" swaggertype:"string" example:"1"`
	MaxBet            decimal.Decimal `json:"max_bet" swaggertype:"string" example:"100"`
	IsActive          bool            `json:"is_active" example:"true"`
}

type PaymentMethodRequestDTO struct {
	Name          string `json:"name" example:"bKash"`
	AccountNumber string `json:"account_number" example:"01700000000"`
	Instructions  string `json:"instructions,omitempty" example:"Send money, then submit the transaction id"`
}

type PaymentMethodResponseDTO struct {
	ID            int    `json:"id" example:"1"`
	Name          string `json:"name" example:"bKash"`
	AccountNumber string `json:"account_number" example:"01700000000"`
	Instructions  string `json:"instructions,omitempty"`
	IsActive      bool   `json:"is_active" example:"true"`
}
