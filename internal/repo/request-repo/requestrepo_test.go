package requestrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/playcash/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)

	return repo, mockDB
}

var requestColumnNames = []string{
	"id", "reference", "account_id", "direction", "amount", "method", "transaction_ref", "proof_ref",
	"destination", "status", "bonus_amount", "admin_notes", "processed_by", "created_at", "processed_at",
}

func requestRows(reqs ...domain.MoneyRequest) *pgxmock.Rows {
	rows := pgxmock.NewRows(requestColumnNames)
	for _, r := range reqs {
		rows.AddRow(r.ID, r.Reference, r.AccountID, r.Direction, r.Amount, r.Method, r.TransactionRef, r.ProofRef,
			r.Destination, r.Status, r.BonusAmount, r.AdminNotes, r.ProcessedBy, r.CreatedAt, r.ProcessedAt)
	}
	return rows
}

func pendingDeposit() domain.MoneyRequest {
	return domain.MoneyRequest{
		ID:             1,
		Reference:      "DEP_01HZY",
		AccountID:      2,
		Direction:      domain.DirectionDeposit,
		Amount:         decimal.NewFromInt(200),
		Method:         "bkash",
		TransactionRef: "TX1",
		Status:         domain.StatusPending,
		BonusAmount:    decimal.Zero,
		ProcessedBy:    (*int)(nil),
		CreatedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		ProcessedAt:    (*time.Time)(nil),
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(200)
	query := regexp.QuoteMeta("INSERT INTO money_requests")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Created",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("DEP_1", 2, domain.DirectionDeposit, amount, "bkash", "TX1", "", "", domain.StatusPending).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(10, createdAt))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("DEP_1", 2, domain.DirectionDeposit, amount, "bkash", "TX1", "", "", domain.StatusPending).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			req := &domain.MoneyRequest{
				Reference:      "DEP_1",
				AccountID:      2,
				Direction:      domain.DirectionDeposit,
				Amount:         amount,
				Method:         "bkash",
				TransactionRef: "TX1",
				Status:         domain.StatusPending,
			}
			result, err := repo.Create(context.Background(), req)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 10, result.ID)
				assert.Equal(t, createdAt, result.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_GetForUpdate(t *testing.T) {
	repo, mock := NewMock(t)
	req := pendingDeposit()
	query := regexp.QuoteMeta("FROM money_requests WHERE id = $1 FOR UPDATE")

	tests := []struct {
		name      string
		id        int
		mockSetup func()
		expectErr bool
		result    *domain.MoneyRequest
	}{
		{
			name: "Locked",
			id:   1,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(1).WillReturnRows(requestRows(req))
			},
			result: &req,
		},
		{
			name: "Not found",
			id:   2,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(2).WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			id:   1,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(1).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetForUpdate(context.Background(), tt.id)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Finalize(t *testing.T) {
	repo, mock := NewMock(t)
	adminID := 1
	processedAt := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	req := pendingDeposit()
	req.Status = domain.StatusApproved
	req.BonusAmount = decimal.NewFromInt(20)
	req.ProcessedBy = &adminID
	req.ProcessedAt = &processedAt
	query := regexp.QuoteMeta("WHERE id = $6 AND status = 'pending'")

	tests := []struct {
		name      string
		mockSetup func()
		wantErr   error
	}{
		{
			name: "Finalized",
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(domain.StatusApproved, req.BonusAmount, "", &adminID, &processedAt, 1).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "Already terminal",
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(domain.StatusApproved, req.BonusAmount, "", &adminID, &processedAt, 1).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: domain.ErrAlreadyProcessed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.Finalize(context.Background(), &req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_List(t *testing.T) {
	repo, mock := NewMock(t)
	req := pendingDeposit()

	tests := []struct {
		name      string
		status    domain.Status
		direction domain.Direction
		mockSetup func()
	}{
		{
			name: "No filters",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests ORDER BY created_at DESC")).
					WithArgs().
					WillReturnRows(requestRows(req))
			},
		},
		{
			name:   "Status only",
			status: domain.StatusPending,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE status = $1 ORDER BY created_at DESC")).
					WithArgs(domain.StatusPending).
					WillReturnRows(requestRows(req))
			},
		},
		{
			name:      "Status and direction",
			status:    domain.StatusPending,
			direction: domain.DirectionDeposit,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests WHERE status = $1 AND direction = $2 ORDER BY created_at DESC")).
					WithArgs(domain.StatusPending, domain.DirectionDeposit).
					WillReturnRows(requestRows(req))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.List(context.Background(), tt.status, tt.direction)
			assert.NoError(t, err)
			assert.Equal(t, []domain.MoneyRequest{req}, result)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Totals(t *testing.T) {
	repo, mock := NewMock(t)
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM money_requests")).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"d", "w", "td", "tw", "pd", "pw"}).
			AddRow(decimal.NewFromInt(500), decimal.NewFromInt(120), decimal.NewFromInt(200), decimal.Zero, 3, 1))

	totals, err := repo.Totals(context.Background(), since)
	assert.NoError(t, err)
	assert.Equal(t, "500", totals.ApprovedDeposits.String())
	assert.Equal(t, "120", totals.ApprovedWithdrawals.String())
	assert.Equal(t, "200", totals.TodayApprovedDeposits.String())
	assert.Equal(t, "0", totals.TodayApprovedWithdrawals.String())
	assert.Equal(t, 3, totals.PendingDeposits)
	assert.Equal(t, 1, totals.PendingWithdrawals)
	assert.NoError(t, mock.ExpectationsWereMet())
}
