package accountrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
)

const accountColumns = `user_id, spendable_balance, bonus_balance, referral_earnings, referred_by, is_active`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.UserID,
		&account.SpendableBalance,
		&account.BonusBalance,
		&account.ReferralEarnings,
		&account.ReferredBy,
		&account.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (user_id, spendable_balance, bonus_balance, referral_earnings, referred_by, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		account.UserID,
		account.SpendableBalance,
		account.BonusBalance,
		account.ReferralEarnings,
		account.ReferredBy,
		account.IsActive,
	)
	if err != nil {
		zap.L().Error("failed to create account", zap.Int("userID", account.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID int) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	account, err := scanAccount(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get account", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

// GetForUpdate reads the account and holds its row lock until the surrounding
// transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, userID int) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 FOR UPDATE`
	account, err := scanAccount(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock account", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (r *Repository) UpdateBalances(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET spendable_balance = $1, bonus_balance = $2, referral_earnings = $3
		WHERE user_id = $4
	`
	tag, err := r.db.Exec(ctx, query,
		account.SpendableBalance,
		account.BonusBalance,
		account.ReferralEarnings,
		account.UserID,
	)
	if err != nil {
		zap.L().Error("failed to update account balances", zap.Int("userID", account.UserID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) SetActive(ctx context.Context, userID int, active bool) error {
	query := `UPDATE accounts SET is_active = $1 WHERE user_id = $2`
	tag, err := r.db.Exec(ctx, query, active, userID)
	if err != nil {
		zap.L().Error("failed to set account status", zap.Int("userID", userID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListWithLedger returns up to limit accounts with user_id greater than
// afterID. Balances and ledger totals come from one statement, so a transfer
// committing in between cannot show up on one side only.
func (r *Repository) ListWithLedger(ctx context.Context, afterID int, limit int) ([]domain.AccountLedger, error) {
	query := `
		SELECT a.user_id, a.spendable_balance, a.bonus_balance, a.referral_earnings, a.referred_by, a.is_active,
			COALESCE(l.balance, 0), COALESCE(l.referral, 0)
		FROM accounts a
		LEFT JOIN LATERAL (
			SELECT
				SUM(e.amount) FILTER (WHERE e.kind <> 'referral') AS balance,
				SUM(e.amount) FILTER (WHERE e.kind = 'referral') AS referral
			FROM ledger_entries e
			WHERE e.account_id = a.user_id
		) l ON TRUE
		WHERE a.user_id > $1
		ORDER BY a.user_id
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, afterID, limit)
	if err != nil {
		zap.L().Error("failed to list accounts with ledger totals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.AccountLedger
	for rows.Next() {
		var a domain.AccountLedger
		err := rows.Scan(
			&a.UserID,
			&a.SpendableBalance,
			&a.BonusBalance,
			&a.ReferralEarnings,
			&a.ReferredBy,
			&a.IsActive,
			&a.Ledger.Balance,
			&a.Ledger.Referral,
		)
		if err != nil {
			zap.L().Error("failed to scan account row", zap.Error(err))
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		zap.L().Error("failed to count accounts", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *Repository) ListReferred(ctx context.Context, referrerID int) ([]domain.ReferredUser, error) {
	query := `
		SELECT a.user_id, u.full_name, u.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.referred_by = $1
		ORDER BY u.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, referrerID)
	if err != nil {
		zap.L().Error("failed to list referred users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var referred []domain.ReferredUser
	for rows.Next() {
		var ru domain.ReferredUser
		if err := rows.Scan(&ru.UserID, &ru.FullName, &ru.CreatedAt); err != nil {
			zap.L().Error("failed to scan referred user row", zap.Error(err))
			return nil, err
		}
		referred = append(referred, ru)
	}
	return referred, rows.Err()
}

func (r *Repository) TopReferrers(ctx context.Context, limit int) ([]domain.Referrer, error) {
	query := `
		SELECT a.user_id, u.full_name, a.referral_earnings
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.referral_earnings > 0
		ORDER BY a.referral_earnings DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		zap.L().Error("failed to get top referrers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var referrers []domain.Referrer
	for rows.Next() {
		var ref domain.Referrer
		if err := rows.Scan(&ref.UserID, &ref.FullName, &ref.ReferralEarnings); err != nil {
			zap.L().Error("failed to scan referrer row", zap.Error(err))
			return nil, err
		}
		referrers = append(referrers, ref)
	}
	return referrers, rows.Err()
}
