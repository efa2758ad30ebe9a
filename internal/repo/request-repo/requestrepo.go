package requestrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
)

const requestColumns = `id, reference, account_id, direction, amount, method, transaction_ref, proof_ref,
	destination, status, bonus_amount, admin_notes, processed_by, created_at, processed_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanRequest(row pgx.Row) (*domain.MoneyRequest, error) {
	var req domain.MoneyRequest
	err := row.Scan(
		&req.ID,
		&req.Reference,
		&req.AccountID,
		&req.Direction,
		&req.Amount,
		&req.Method,
		&req.TransactionRef,
		&req.ProofRef,
		&req.Destination,
		&req.Status,
		&req.BonusAmount,
		&req.AdminNotes,
		&req.ProcessedBy,
		&req.CreatedAt,
		&req.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) Create(ctx context.Context, req *domain.MoneyRequest) (*domain.MoneyRequest, error) {
	query := `
		INSERT INTO money_requests (reference, account_id, direction, amount, method, transaction_ref, proof_ref, destination, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		req.Reference,
		req.AccountID,
		req.Direction,
		req.Amount,
		req.Method,
		req.TransactionRef,
		req.ProofRef,
		req.Destination,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		zap.L().Error("can't save money request", zap.String("reference", req.Reference), zap.Error(err))
		return nil, err
	}
	return req, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.MoneyRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM money_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get money request", zap.Int("requestID", id), zap.Error(err))
		return nil, err
	}
	return req, nil
}

// GetForUpdate locks the request row; concurrent resolvers queue behind it.
func (r *Repository) GetForUpdate(ctx context.Context, id int) (*domain.MoneyRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM money_requests WHERE id = $1 FOR UPDATE`
	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't lock money request", zap.Int("requestID", id), zap.Error(err))
		return nil, err
	}
	return req, nil
}

// Finalize writes the terminal state. The status guard makes a second
// finalization a no-op that reports domain.ErrAlreadyProcessed.
func (r *Repository) Finalize(ctx context.Context, req *domain.MoneyRequest) error {
	query := `
		UPDATE money_requests
		SET status = $1, bonus_amount = $2, admin_notes = $3, processed_by = $4, processed_at = $5
		WHERE id = $6 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query,
		req.Status,
		req.BonusAmount,
		req.AdminNotes,
		req.ProcessedBy,
		req.ProcessedAt,
		req.ID,
	)
	if err != nil {
		zap.L().Error("failed to finalize money request", zap.Int("requestID", req.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

func (r *Repository) ListByAccount(ctx context.Context, accountID int) ([]domain.MoneyRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM money_requests
		WHERE account_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, accountID)
}

// List returns requests filtered by status and direction; empty values match all.
func (r *Repository) List(ctx context.Context, status domain.Status, direction domain.Direction) ([]domain.MoneyRequest, error) {
	var (
		conds []string
		args  []any
	)
	if status != "" {
		args = append(args, status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if direction != "" {
		args = append(args, direction)
		conds = append(conds, "direction = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM money_requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	return r.list(ctx, query, args...)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.MoneyRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch money requests", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var requests []domain.MoneyRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			zap.L().Error("failed to scan money request row", zap.Error(err))
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// Totals aggregates approved volumes overall and since the given moment,
// together with the pending queue sizes.
func (r *Repository) Totals(ctx context.Context, since time.Time) (*domain.RequestTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'deposit' AND status = 'approved'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'withdrawal' AND status = 'approved'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'deposit' AND status = 'approved' AND created_at >= $1), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'withdrawal' AND status = 'approved' AND created_at >= $1), 0),
			COUNT(*) FILTER (WHERE direction = 'deposit' AND status = 'pending'),
			COUNT(*) FILTER (WHERE direction = 'withdrawal' AND status = 'pending')
		FROM money_requests
	`
	var totals domain.RequestTotals
	err := r.db.QueryRow(ctx, query, since).Scan(
		&totals.ApprovedDeposits,
		&totals.ApprovedWithdrawals,
		&totals.TodayApprovedDeposits,
		&totals.TodayApprovedWithdrawals,
		&totals.PendingDeposits,
		&totals.PendingWithdrawals,
	)
	if err != nil {
		zap.L().Error("failed to aggregate money requests", zap.Error(err))
		return nil, err
	}
	return &totals, nil
}
