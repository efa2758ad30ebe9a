package accountservice

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
	"github.com/GlebRadaev/playcash/pkg/metrics"
)

//go:generate mockgen -source=accountservice.go -destination=mock_accountservice.go -package=accountservice

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type AccountRepo interface {
	GetByUserID(ctx context.Context, userID int) (*domain.Account, error)
	GetForUpdate(ctx context.Context, userID int) (*domain.Account, error)
	UpdateBalances(ctx context.Context, account *domain.Account) error
	SetActive(ctx context.Context, userID int, active bool) error
	ListReferred(ctx context.Context, referrerID int) ([]domain.ReferredUser, error)
}

type LedgerRepo interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID int, limit int) ([]domain.LedgerEntry, error)
}

type Service struct {
	accountRepo AccountRepo
	ledgerRepo  LedgerRepo
	txManager   pg.TXManager
	metrics     *metrics.Metrics
}

func New(accountRepo AccountRepo, ledgerRepo LedgerRepo, txManager pg.TXManager, m *metrics.Metrics) *Service {
	return &Service{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		txManager:   txManager,
		metrics:     m,
	}
}

func (s *Service) GetAccount(ctx context.Context, userID int) (*domain.Account, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get account", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", userID, domain.ErrNotFound)
	}
	return account, nil
}

// Transactions returns the newest ledger entries of the account. A
// non-positive limit selects the default page size.
func (s *Service) Transactions(ctx context.Context, userID, limit int) ([]domain.LedgerEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	entries, err := s.ledgerRepo.ListByAccount(ctx, userID, limit)
	if err != nil {
		zap.L().Error("failed to list ledger entries", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *Service) Referrals(ctx context.Context, userID int) ([]domain.ReferredUser, error) {
	referred, err := s.accountRepo.ListReferred(ctx, userID)
	if err != nil {
		zap.L().Error("failed to list referrals", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	return referred, nil
}

// SetBalance overwrites the spendable balance and records the difference as a
// manual adjustment. Setting the current value again writes nothing.
func (s *Service) SetBalance(ctx context.Context, adminID, userID int, balance decimal.Decimal) (*domain.Account, error) {
	if balance.IsNegative() {
		return nil, domain.Validationf("balance must not be negative")
	}
	if !balance.Equal(balance.Round(2)) {
		return nil, domain.Validationf("balance must have at most two decimal places")
	}

	var (
		account *domain.Account
		delta   decimal.Decimal
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accountRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("account %d: %w", userID, domain.ErrNotFound)
		}

		delta = balance.Sub(account.SpendableBalance)
		if delta.IsZero() {
			return nil
		}
		account.SpendableBalance = balance
		if err := s.accountRepo.UpdateBalances(ctx, account); err != nil {
			return err
		}
		_, err = s.ledgerRepo.Append(ctx, &domain.LedgerEntry{
			AccountID:   userID,
			Kind:        domain.KindManualAdjustment,
			Amount:      delta,
			Description: fmt.Sprintf("Balance set to %s by admin %d", balance.StringFixed(2), adminID),
		})
		return err
	})
	if err != nil {
		zap.L().Error("failed to set balance", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}

	if !delta.IsZero() {
		s.metrics.LedgerEntry(string(domain.KindManualAdjustment))
		zap.L().Info("balance adjusted",
			zap.Int("userID", userID),
			zap.Int("adminID", adminID),
			zap.String("delta", delta.String()),
		)
	}
	return account, nil
}

func (s *Service) SetActive(ctx context.Context, userID int, active bool) error {
	if err := s.accountRepo.SetActive(ctx, userID, active); err != nil {
		zap.L().Error("failed to set account status", zap.Int("userID", userID), zap.Error(err))
		return err
	}
	zap.L().Info("account status changed", zap.Int("userID", userID), zap.Bool("active", active))
	return nil
}
