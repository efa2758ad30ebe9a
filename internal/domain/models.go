package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionDeposit    Direction = "deposit"
	DirectionWithdrawal Direction = "withdrawal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

type EntryKind string

const (
	KindDeposit          EntryKind = "deposit"
	KindWithdrawal       EntryKind = "withdrawal"
	KindBonus            EntryKind = "bonus"
	KindReferral         EntryKind = "referral"
	KindManualAdjustment EntryKind = "manual_adjustment"
)

type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RolePaymentManager Role = "payment_manager"
	RoleGameManager    Role = "game_manager"
)

type User struct {
	ID           int        `db:"id"`
	FullName     string     `db:"full_name"`
	Phone        string     `db:"phone"`
	Username     *string    `db:"username"`
	PasswordHash string     `db:"password_hash"`
	ReferralCode string     `db:"referral_code"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLogin    *time.Time `db:"last_login"`
}

// UserSummary is a user row as the back office lists it.
type UserSummary struct {
	User
	SpendableBalance decimal.Decimal `db:"spendable_balance"`
	BonusBalance     decimal.Decimal `db:"bonus_balance"`
	IsActive         bool            `db:"is_active"`
}

type UserPage struct {
	Users   []UserSummary
	Page    int
	PerPage int
	Total   int
}

type Admin struct {
	ID           int        `db:"id"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Role         Role       `db:"role"`
	IsActive     bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLogin    *time.Time `db:"last_login"`
}

// Account is the financial record of a user. UserID doubles as the account id.
type Account struct {
	UserID           int             `db:"user_id"`
	SpendableBalance decimal.Decimal `db:"spendable_balance"`
	BonusBalance     decimal.Decimal `db:"bonus_balance"`
	ReferralEarnings decimal.Decimal `db:"referral_earnings"`
	ReferredBy       *int            `db:"referred_by"`
	IsActive         bool            `db:"is_active"`
}

type MoneyRequest struct {
	ID             int             `db:"id"`
	Reference      string          `db:"reference"`
	AccountID      int             `db:"account_id"`
	Direction      Direction       `db:"direction"`
	Amount         decimal.Decimal `db:"amount"`
	Method         string          `db:"method"`
	TransactionRef string          `db:"transaction_ref"`
	ProofRef       string          `db:"proof_ref"`
	Destination    string          `db:"destination"`
	Status         Status          `db:"status"`
	BonusAmount    decimal.Decimal `db:"bonus_amount"`
	AdminNotes     string          `db:"admin_notes"`
	ProcessedBy    *int            `db:"processed_by"`
	CreatedAt      time.Time       `db:"created_at"`
	ProcessedAt    *time.Time      `db:"processed_at"`
}

type LedgerEntry struct {
	ID          int             `db:"id"`
	AccountID   int             `db:"account_id"`
	Kind        EntryKind       `db:"kind"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	RequestID   *int            `db:"request_id"`
	CreatedAt   time.Time       `db:"created_at"`
}

type SiteSettings struct {
	SiteName                     string          `db:"site_name"`
	Currency                     string          `db:"currency"`
	MaintenanceMode              bool            `db:"maintenance_mode"`
	SignupBonus                  decimal.Decimal `db:"signup_bonus"`
	DepositBonusPercentage       decimal.Decimal `db:"deposit_bonus_percentage"`
	ReferralCommissionPercentage decimal.Decimal `db:"referral_commission_percentage"`
}

type Game struct {
	ID                int             `db:"id"`
	Title             string          `db:"title"`
	Category          string          `db:"category"`
	Thumbnail         string          `db:"thumbnail"`
	GameFile          string          `db:"game_file"`
	WinningPercentage decimal.Decimal `db:"winning_percentage"`
	MinBet            decimal.Decimal `db:"min_bet"`
	MaxBet            decimal.Decimal `db:"max_bet"`
	IsActive          bool            `db:"is_active"`
	CreatedAt         time.Time       `db:"created_at"`
}

// GameFilter narrows catalog listings. An empty Category matches all.
type GameFilter struct {
	ActiveOnly bool
	Category   string
}

type PaymentMethod struct {
	ID            int       `db:"id"`
	Name          string    `db:"name"`
	AccountNumber string    `db:"account_number"`
	Instructions  string    `db:"instructions"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     time.Time `db:"created_at"`
}

// ReferredUser is a referee as shown to its referrer.
type ReferredUser struct {
	UserID    int       `db:"user_id"`
	FullName  string    `db:"full_name"`
	CreatedAt time.Time `db:"created_at"`
}

type RequestTotals struct {
	ApprovedDeposits         decimal.Decimal
	ApprovedWithdrawals      decimal.Decimal
	TodayApprovedDeposits    decimal.Decimal
	TodayApprovedWithdrawals decimal.Decimal
	PendingDeposits          int
	PendingWithdrawals       int
}

type Dashboard struct {
	TotalUsers   int
	TotalGames   int
	Totals       RequestTotals
	TopReferrers []Referrer
}

type Referrer struct {
	UserID           int             `db:"user_id"`
	FullName         string          `db:"full_name"`
	ReferralEarnings decimal.Decimal `db:"referral_earnings"`
}

// LedgerSums are ledger totals per balance bucket used by reconciliation.
type LedgerSums struct {
	Balance  decimal.Decimal
	Referral decimal.Decimal
}

// AccountLedger is an account read together with its ledger totals from the
// same snapshot.
type AccountLedger struct {
	Account
	Ledger LedgerSums
}
