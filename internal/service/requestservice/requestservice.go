package requestservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
	"github.com/GlebRadaev/playcash/pkg/metrics"
	"github.com/GlebRadaev/playcash/pkg/validate"
)

//go:generate mockgen -source=requestservice.go -destination=mock_requestservice.go -package=requestservice

const (
	depositPrefix    = "DEP_"
	withdrawalPrefix = "WDR_"
	methodCard       = "card"
)

type RequestRepo interface {
	Create(ctx context.Context, req *domain.MoneyRequest) (*domain.MoneyRequest, error)
	GetByID(ctx context.Context, id int) (*domain.MoneyRequest, error)
	GetForUpdate(ctx context.Context, id int) (*domain.MoneyRequest, error)
	Finalize(ctx context.Context, req *domain.MoneyRequest) error
	ListByAccount(ctx context.Context, accountID int) ([]domain.MoneyRequest, error)
	List(ctx context.Context, status domain.Status, direction domain.Direction) ([]domain.MoneyRequest, error)
}

type AccountRepo interface {
	GetByUserID(ctx context.Context, userID int) (*domain.Account, error)
	GetForUpdate(ctx context.Context, userID int) (*domain.Account, error)
	UpdateBalances(ctx context.Context, account *domain.Account) error
}

type LedgerRepo interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
}

type SettingsResolver interface {
	Resolve(ctx context.Context) (*domain.SiteSettings, error)
}

type Service struct {
	requestRepo RequestRepo
	accountRepo AccountRepo
	ledgerRepo  LedgerRepo
	settings    SettingsResolver
	txManager   pg.TXManager
	metrics     *metrics.Metrics
	now         func() time.Time
}

func New(
	requestRepo RequestRepo,
	accountRepo AccountRepo,
	ledgerRepo LedgerRepo,
	settings SettingsResolver,
	txManager pg.TXManager,
	m *metrics.Metrics,
) *Service {
	return &Service{
		requestRepo: requestRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		settings:    settings,
		txManager:   txManager,
		metrics:     m,
		now:         time.Now,
	}
}

// resolution collects what a single Resolve call changed.
type resolution struct {
	req     *domain.MoneyRequest
	entries []domain.EntryKind
}

func newReference(prefix string) string {
	return prefix + ulid.Make().String()
}

func (s *Service) activeAccount(ctx context.Context, userID int) (*domain.Account, error) {
	account, err := s.accountRepo.GetByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get account", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", userID, domain.ErrNotFound)
	}
	if !account.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return account, nil
}

// CheckDeposit runs the checks SubmitDeposit applies, so callers can reject a
// submission before storing its attachments.
func (s *Service) CheckDeposit(ctx context.Context, userID int, amount decimal.Decimal, method string) error {
	if err := domain.CheckAmount(amount); err != nil {
		return err
	}
	if strings.TrimSpace(method) == "" {
		return domain.Validationf("payment method is required")
	}
	_, err := s.activeAccount(ctx, userID)
	return err
}

// SubmitDeposit records a pending deposit. Balances change only on approval.
func (s *Service) SubmitDeposit(ctx context.Context, userID int, amount decimal.Decimal, method, transactionRef, proofRef string) (*domain.MoneyRequest, error) {
	if err := s.CheckDeposit(ctx, userID, amount, method); err != nil {
		return nil, err
	}
	method = strings.TrimSpace(method)

	req, err := s.requestRepo.Create(ctx, &domain.MoneyRequest{
		Reference:      newReference(depositPrefix),
		AccountID:      userID,
		Direction:      domain.DirectionDeposit,
		Amount:         amount,
		Method:         method,
		TransactionRef: strings.TrimSpace(transactionRef),
		ProofRef:       proofRef,
		Status:         domain.StatusPending,
		BonusAmount:    decimal.Zero,
	})
	if err != nil {
		zap.L().Error("failed to create deposit request", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}

	s.metrics.RequestSubmitted(string(domain.DirectionDeposit))
	zap.L().Info("deposit request submitted", zap.String("reference", req.Reference), zap.String("amount", amount.String()))
	return req, nil
}

// SubmitWithdrawal records a pending withdrawal. The balance check here is
// advisory; approval checks again under the account lock.
func (s *Service) SubmitWithdrawal(ctx context.Context, userID int, amount decimal.Decimal, method, destination string) (*domain.MoneyRequest, error) {
	if err := domain.CheckAmount(amount); err != nil {
		return nil, err
	}
	method = strings.TrimSpace(method)
	destination = strings.TrimSpace(destination)
	switch {
	case method == "":
		return nil, domain.Validationf("payment method is required")
	case destination == "":
		return nil, domain.Validationf("payout destination is required")
	case strings.EqualFold(method, methodCard) && !validate.IsCardNumber(destination):
		return nil, domain.Validationf("invalid card number")
	}

	account, err := s.activeAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(account.SpendableBalance) {
		return nil, domain.ErrInsufficientBalance
	}

	req, err := s.requestRepo.Create(ctx, &domain.MoneyRequest{
		Reference:   newReference(withdrawalPrefix),
		AccountID:   userID,
		Direction:   domain.DirectionWithdrawal,
		Amount:      amount,
		Method:      method,
		Destination: destination,
		Status:      domain.StatusPending,
		BonusAmount: decimal.Zero,
	})
	if err != nil {
		zap.L().Error("failed to create withdrawal request", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}

	s.metrics.RequestSubmitted(string(domain.DirectionWithdrawal))
	zap.L().Info("withdrawal request submitted", zap.String("reference", req.Reference), zap.String("amount", amount.String()))
	return req, nil
}

// Resolve approves or rejects a pending request in one transaction. Rows are
// locked in the order request, owning account, referrer account.
func (s *Service) Resolve(ctx context.Context, adminID, requestID int, action domain.Action, notes string) (*domain.MoneyRequest, error) {
	if action != domain.ActionApprove && action != domain.ActionReject {
		return nil, domain.Validationf("unknown action %q", action)
	}

	res := &resolution{}
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		req, err := s.requestRepo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("request %d: %w", requestID, domain.ErrNotFound)
		}
		if req.Status != domain.StatusPending {
			return domain.ErrAlreadyProcessed
		}
		res.req = req

		if action == domain.ActionApprove {
			if err := s.approve(ctx, res); err != nil {
				return err
			}
			req.Status = domain.StatusApproved
		} else {
			req.Status = domain.StatusRejected
		}

		now := s.now()
		req.AdminNotes = notes
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		return s.requestRepo.Finalize(ctx, req)
	})
	if err != nil {
		if isBusinessError(err) {
			zap.L().Info("request not resolved", zap.Int("requestID", requestID), zap.String("action", string(action)), zap.Error(err))
		} else {
			zap.L().Error("failed to resolve request", zap.Int("requestID", requestID), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.RequestResolved(string(res.req.Direction), string(res.req.Status))
	for _, kind := range res.entries {
		s.metrics.LedgerEntry(string(kind))
	}
	zap.L().Info("request resolved",
		zap.String("reference", res.req.Reference),
		zap.String("status", string(res.req.Status)),
		zap.Int("adminID", adminID),
	)
	return res.req, nil
}

func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrInvalidStateTransition) ||
		errors.Is(err, domain.ErrInsufficientBalance) ||
		errors.Is(err, domain.ErrNotFound)
}

func (s *Service) approve(ctx context.Context, res *resolution) error {
	req := res.req
	switch req.Direction {
	case domain.DirectionDeposit:
		settings, err := s.settings.Resolve(ctx)
		if err != nil {
			return err
		}
		account, err := s.lockAccount(ctx, req.AccountID)
		if err != nil {
			return err
		}
		return s.approveDeposit(ctx, res, account, settings)
	case domain.DirectionWithdrawal:
		account, err := s.lockAccount(ctx, req.AccountID)
		if err != nil {
			return err
		}
		return s.approveWithdrawal(ctx, res, account)
	default:
		return domain.Validationf("unknown direction %q", req.Direction)
	}
}

func (s *Service) lockAccount(ctx context.Context, userID int) (*domain.Account, error) {
	account, err := s.accountRepo.GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", userID, domain.ErrNotFound)
	}
	return account, nil
}

func (s *Service) approveDeposit(ctx context.Context, res *resolution, account *domain.Account, settings *domain.SiteSettings) error {
	req := res.req
	bonus := domain.Percent(req.Amount, settings.DepositBonusPercentage)

	account.SpendableBalance = account.SpendableBalance.Add(req.Amount)
	if bonus.IsPositive() {
		account.BonusBalance = account.BonusBalance.Add(bonus)
		req.BonusAmount = bonus
	}
	if err := s.accountRepo.UpdateBalances(ctx, account); err != nil {
		return err
	}

	if err := s.appendEntry(ctx, res, account.UserID, domain.KindDeposit, req.Amount, "Deposit "+req.Reference); err != nil {
		return err
	}
	if bonus.IsPositive() {
		desc := fmt.Sprintf("Deposit bonus %s%% on %s", settings.DepositBonusPercentage.String(), req.Reference)
		if err := s.appendEntry(ctx, res, account.UserID, domain.KindBonus, bonus, desc); err != nil {
			return err
		}
	}

	return s.payReferral(ctx, res, account, settings)
}

func (s *Service) approveWithdrawal(ctx context.Context, res *resolution, account *domain.Account) error {
	req := res.req
	if req.Amount.GreaterThan(account.SpendableBalance) {
		return domain.ErrInsufficientBalance
	}

	account.SpendableBalance = account.SpendableBalance.Sub(req.Amount)
	if err := s.accountRepo.UpdateBalances(ctx, account); err != nil {
		return err
	}
	return s.appendEntry(ctx, res, account.UserID, domain.KindWithdrawal, req.Amount.Neg(), "Withdrawal "+req.Reference)
}

func (s *Service) appendEntry(ctx context.Context, res *resolution, accountID int, kind domain.EntryKind, amount decimal.Decimal, desc string) error {
	requestID := res.req.ID
	_, err := s.ledgerRepo.Append(ctx, &domain.LedgerEntry{
		AccountID:   accountID,
		Kind:        kind,
		Amount:      amount,
		Description: desc,
		RequestID:   &requestID,
	})
	if err != nil {
		return err
	}
	res.entries = append(res.entries, kind)
	return nil
}

func (s *Service) Get(ctx context.Context, id int) (*domain.MoneyRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("request %d: %w", id, domain.ErrNotFound)
	}
	return req, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int) ([]domain.MoneyRequest, error) {
	requests, err := s.requestRepo.ListByAccount(ctx, userID)
	if err != nil {
		zap.L().Error("failed to list user requests", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	return requests, nil
}

func (s *Service) ListForAdmin(ctx context.Context, status domain.Status, direction domain.Direction) ([]domain.MoneyRequest, error) {
	switch status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		return nil, domain.Validationf("unknown status %q", status)
	}
	switch direction {
	case "", domain.DirectionDeposit, domain.DirectionWithdrawal:
	default:
		return nil, domain.Validationf("unknown direction %q", direction)
	}

	requests, err := s.requestRepo.List(ctx, status, direction)
	if err != nil {
		zap.L().Error("failed to list requests", zap.Error(err))
		return nil, err
	}
	return requests, nil
}
