package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/playcash/internal/domain"
)

type SettingsDTO struct {
	SiteName                     string          `json:"site_name" example:"PlayCash"`
	Currency                     string          `json:"currency" example:"BDT"`
	MaintenanceMode              bool            `json:"maintenance_mode" example:"false"`
	SignupBonus                  decimal.Decimal `json:"signup_bonus" swaggertype:"string" example:"50"`
	DepositBonusPercentage       decimal.Decimal `json:"deposit_bonus_percentage" swaggertype:"string" example:"10"`
	ReferralCommissionPercentage decimal.Decimal `json:"referral_commission_percentage" swaggertype:"string" example:"5"`
}

type ReferrerDTO struct {
	UserID           int             `json:"user_id" example:"1"`
	FullName         string          `json:"full_name" example:"Ann Lee"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings" swaggertype:"string" example:"10"`
}

type DashboardResponseDTO struct {
	TotalUsers               int             `json:"total_users" example:"12"`
	TotalGames               int             `json:"total_games" example:"4"`
	ApprovedDeposits         decimal.Decimal `json:"approved_deposits" swaggertype:"string" example:"1000"`
	ApprovedWithdrawals      decimal.Decimal `json:"approved_withdrawals" swaggertype:"string" example:"200"`
	TodayApprovedDeposits    decimal.Decimal `json:"today_approved_deposits" swaggertype:"string" example:"300"`
	TodayApprovedWithdrawals decimal.Decimal `json:"today_approved_withdrawals" swaggertype:"string" example:"0"`
	PendingDeposits          int             `json:"pending_deposits" example:"3"`
	PendingWithdrawals       int             `json:"pending_withdrawals" example:"1"`
	TopReferrers             []ReferrerDTO   `json:"top_referrers"`
}

type UserSummaryDTO struct {
	ID               int             `json:"id" example:"21"`
	FullName         string          `json:"full_name" example:"Ann Lee"`
	Phone            string          `json:"phone" example:"01700000000"`
	Username         *string         `json:"username,omitempty" example:"ann"`
	ReferralCode     string          `json:"referral_code" example:"AB12CD34"`
	SpendableBalance decimal.Decimal `json:"spendable_balance" swaggertype:"string" example:"150"`
	BonusBalance     decimal.Decimal `json:"bonus_balance" swaggertype:"string" example:"50"`
	IsActive         bool            `json:"is_active" example:"true"`
	CreatedAt        time.Time       `json:"created_at" example:"2024-05-01T10:00:00Z"`
	LastLogin        *time.Time      `json:"last_login,omitempty" example:"2024-05-02T09:00:00Z"`
}

type UserListResponseDTO struct {
	Users   []UserSummaryDTO `json:"users"`
	Page    int              `json:"page" example:"1"`
	PerPage int              `json:"per_page" example:"20"`
	Total   int              `json:"total" example:"41"`
}

func NewUserListResponse(p *domain.UserPage) UserListResponseDTO {
	users := make([]UserSummaryDTO, len(p.Users))
	for i, u := range p.Users {
		users[i] = UserSummaryDTO{
			ID:               u.ID,
			FullName:         u.FullName,
			Phone:            u.Phone,
			Username:         u.Username,
			ReferralCode:     u.ReferralCode,
			SpendableBalance: u.SpendableBalance,
			BonusBalance:     u.BonusBalance,
			IsActive:         u.IsActive,
			CreatedAt:        u.CreatedAt,
			LastLogin:        u.LastLogin,
		}
	}
	return UserListResponseDTO{
		Users:   users,
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   p.Total,
	}
}
