package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/pkg/metrics"
)

//go:generate mockgen -source=reconcile.go -destination=mock_reconcile.go -package=reconcile

const batchSize = 500

type AccountRepo interface {
	ListWithLedger(ctx context.Context, afterID int, limit int) ([]domain.AccountLedger, error)
}

// Service periodically compares every account with the sum of its ledger
// entries. It only reads and reports.
type Service struct {
	accountRepo AccountRepo
	metrics     *metrics.Metrics
	workerPool  WorkerPoolI
	interval    time.Duration
	batchSize   int
}

func New(interval time.Duration, workers int, accountRepo AccountRepo, m *metrics.Metrics) *Service {
	return &Service{
		accountRepo: accountRepo,
		metrics:     m,
		workerPool:  NewWorkerPool(workers),
		interval:    interval,
		batchSize:   batchSize,
	}
}

// Report is the outcome of one pass.
type Report struct {
	Checked    int
	Mismatched int
}

func (s *Service) Start(ctx context.Context) {
	if s.interval <= 0 {
		zap.L().Info("ledger reconciliation disabled")
		s.workerPool.Close()
		return
	}
	zap.L().Info("ledger reconciliation started", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping reconciliation")
			return
		case <-ticker.C:
			report, err := s.Check(ctx)
			if err != nil {
				zap.L().Error("reconciliation pass failed", zap.Error(err))
				continue
			}
			zap.L().Info("reconciliation pass finished",
				zap.Int("checked", report.Checked),
				zap.Int("mismatched", report.Mismatched),
			)
		}
	}
}

// Check walks all accounts in id order and fans the comparisons out to the
// worker pool.
func (s *Service) Check(ctx context.Context) (Report, error) {
	var (
		checked, mismatched atomic.Int64
		wg                  sync.WaitGroup
		afterID             int
	)

	for {
		accounts, err := s.accountRepo.ListWithLedger(ctx, afterID, s.batchSize)
		if err != nil {
			wg.Wait()
			return Report{}, err
		}

		for _, account := range accounts {
			account := account
			wg.Add(1)
			err := s.workerPool.AddTask(ctx, func() error {
				defer wg.Done()
				checked.Add(1)
				if !compare(account) {
					mismatched.Add(1)
				}
				return nil
			})
			if err != nil {
				wg.Done()
				wg.Wait()
				return Report{}, err
			}
		}

		if len(accounts) < s.batchSize {
			break
		}
		afterID = accounts[len(accounts)-1].UserID
	}
	wg.Wait()

	report := Report{Checked: int(checked.Load()), Mismatched: int(mismatched.Load())}
	s.metrics.ReconcileChecked(report.Checked)
	s.metrics.ReconcileMismatches(report.Mismatched)
	return report, nil
}

func compare(account domain.AccountLedger) bool {
	balance := account.SpendableBalance.Add(account.BonusBalance)
	if balance.Equal(account.Ledger.Balance) && account.ReferralEarnings.Equal(account.Ledger.Referral) {
		return true
	}

	zap.L().Warn("account disagrees with ledger",
		zap.Int("userID", account.UserID),
		zap.String("balance", balance.String()),
		zap.String("ledgerBalance", account.Ledger.Balance.String()),
		zap.String("referralEarnings", account.ReferralEarnings.String()),
		zap.String("ledgerReferral", account.Ledger.Referral.String()),
	)
	return false
}
