package requestservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
	"github.com/GlebRadaev/playcash/pkg/metrics"
)

type mocks struct {
	requests *MockRequestRepo
	accounts *MockAccountRepo
	ledger   *MockLedgerRepo
	settings *MockSettingsResolver
	tx       *pg.MockTXManager
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		requests: NewMockRequestRepo(ctrl),
		accounts: NewMockAccountRepo(ctrl),
		ledger:   NewMockLedgerRepo(ctrl),
		settings: NewMockSettingsResolver(ctrl),
		tx:       pg.NewMockTXManager(ctrl),
	}
	service := New(m.requests, m.accounts, m.ledger, m.settings, m.tx, metrics.New())
	service.now = func() time.Time { return fixedNow }
	return service, m
}

func (m *mocks) runTx() {
	m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// snapshot is the state of an account as written by UpdateBalances.
type snapshot struct {
	userID                     int
	spendable, bonus, referral string
}

type entry struct {
	accountID int
	kind      domain.EntryKind
	amount    string
	requestID int
}

// recorder captures balance writes and ledger appends in call order.
type recorder struct {
	balances []snapshot
	entries  []entry
	final    *domain.MoneyRequest
}

func (r *recorder) expectWrites(m *mocks, updates, appends int) {
	if updates > 0 {
		m.accounts.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).Times(updates).DoAndReturn(func(_ context.Context, a *domain.Account) error {
			r.balances = append(r.balances, snapshot{a.UserID, a.SpendableBalance.String(), a.BonusBalance.String(), a.ReferralEarnings.String()})
			return nil
		})
	}
	if appends > 0 {
		m.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Times(appends).DoAndReturn(func(_ context.Context, e *domain.LedgerEntry) (*domain.LedgerEntry, error) {
			r.entries = append(r.entries, entry{e.AccountID, e.Kind, e.Amount.String(), *e.RequestID})
			return e, nil
		})
	}
}

func (r *recorder) expectFinalize(m *mocks) {
	m.requests.EXPECT().Finalize(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req *domain.MoneyRequest) error {
		cp := *req
		r.final = &cp
		return nil
	})
}

func pending(id int, direction domain.Direction, amount string) *domain.MoneyRequest {
	prefix := depositPrefix
	if direction == domain.DirectionWithdrawal {
		prefix = withdrawalPrefix
	}
	return &domain.MoneyRequest{
		ID:          id,
		Reference:   prefix + "TEST",
		AccountID:   2,
		Direction:   direction,
		Amount:      dec(amount),
		Method:      "bkash",
		Status:      domain.StatusPending,
		BonusAmount: decimal.Zero,
	}
}

func account(id int, spendable string, referredBy *int, active bool) *domain.Account {
	return &domain.Account{
		UserID:           id,
		SpendableBalance: dec(spendable),
		BonusBalance:     decimal.Zero,
		ReferralEarnings: decimal.Zero,
		ReferredBy:       referredBy,
		IsActive:         active,
	}
}

func settings(bonus, commission string) *domain.SiteSettings {
	return &domain.SiteSettings{
		DepositBonusPercentage:       dec(bonus),
		ReferralCommissionPercentage: dec(commission),
	}
}

func TestResolve_DepositWithBonusAndReferral(t *testing.T) {
	service, m := NewMock(t)
	referrerID := 1
	rec := &recorder{}

	gomock.InOrder(
		m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
			return fn(ctx)
		}),
		m.requests.EXPECT().GetForUpdate(gomock.Any(), 10).Return(pending(10, domain.DirectionDeposit, "200"), nil),
		m.settings.EXPECT().Resolve(gomock.Any()).Return(settings("10", "5"), nil),
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), 2).Return(account(2, "100", &referrerID, true), nil),
		m.accounts.EXPECT().GetForUpdate(gomock.Any(), referrerID).Return(account(referrerID, "0", nil, true), nil),
	)
	rec.expectWrites(m, 2, 3)
	rec.expectFinalize(m)

	req, err := service.Resolve(context.Background(), 99, 10, domain.ActionApprove, "ok")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusApproved, req.Status)
	assert.Equal(t, "20", req.BonusAmount.String())
	assert.Equal(t, []snapshot{
		{userID: 2, spendable: "300", bonus: "20", referral: "0"},
		{userID: 1, spendable: "0", bonus: "0", referral: "10"},
	}, rec.balances)
	assert.Equal(t, []entry{
		{accountID: 2, kind: domain.KindDeposit, amount: "200", requestID: 10},
		{accountID: 2, kind: domain.KindBonus, amount: "20", requestID: 10},
		{accountID: 1, kind: domain.KindReferral, amount: "10", requestID: 10},
	}, rec.entries)

	require.NotNil(t, rec.final)
	assert.Equal(t, domain.StatusApproved, rec.final.Status)
	assert.Equal(t, "ok", rec.final.AdminNotes)
	assert.Equal(t, 99, *rec.final.ProcessedBy)
	assert.Equal(t, fixedNow, *rec.final.ProcessedAt)
}

func TestResolve_DepositBelowOneCentOfBonus(t *testing.T) {
	service, m := NewMock(t)
	referrerID := 1
	rec := &recorder{}

	m.runTx()
	m.requests.EXPECT().GetForUpdate(gomock.Any(), 11).Return(pending(11, domain.DirectionDeposit, "0.01"), nil)
	m.settings.EXPECT().Resolve(gomock.Any()).Return(settings("10", "10"), nil)
	m.accounts.EXPECT().GetForUpdate(gomock.Any(), 2).Return(account(2, "0", &referrerID, true), nil)
	rec.expectWrites(m, 1, 1)
	rec.expectFinalize(m)

	req, err := service.Resolve(context.Background(), 99, 11, domain.ActionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, "0", req.BonusAmount.String())
	assert.Equal(t, []snapshot{{userID: 2, spendable: "0.01", bonus: "0", referral: "0"}}, rec.balances)
	assert.Equal(t, []entry{{accountID: 2, kind: domain.KindDeposit, amount: "0.01", requestID: 11}}, rec.entries)
}

func TestResolve_DepositCascadeVariants(t *testing.T) {
	referrerID := 1

	tests := []struct {
		name             string
		settings         *domain.SiteSettings
		referredBy       *int
		referrer         *domain.Account
		lookupReferrer   bool
		expectedBalances []snapshot
		expectedEntries  []entry
	}{
		{
			name:       "No referrer",
			settings:   settings("0", "5"),
			referredBy: nil,
			expectedBalances: []snapshot{
				{userID: 2, spendable: "200", bonus: "0", referral: "0"},
			},
			expectedEntries: []entry{
				{accountID: 2, kind: domain.KindDeposit, amount: "200", requestID: 10},
			},
		},
		{
			name:       "Zero commission rate",
			settings:   settings("0", "0"),
			referredBy: &referrerID,
			expectedBalances: []snapshot{
				{userID: 2, spendable: "200", bonus: "0", referral: "0"},
			},
			expectedEntries: []entry{
				{accountID: 2, kind: domain.KindDeposit, amount: "200", requestID: 10},
			},
		},
		{
			name:           "Referrer deactivated",
			settings:       settings("0", "5"),
			referredBy:     &referrerID,
			referrer:       account(referrerID, "0", nil, false),
			lookupReferrer: true,
			expectedBalances: []snapshot{
				{userID: 2, spendable: "200", bonus: "0", referral: "0"},
			},
			expectedEntries: []entry{
				{accountID: 2, kind: domain.KindDeposit, amount: "200", requestID: 10},
			},
		},
		{
			name:           "Referrer missing",
			settings:       settings("0", "5"),
			referredBy:     &referrerID,
			referrer:       nil,
			lookupReferrer: true,
			expectedBalances: []snapshot{
				{userID: 2, spendable: "200", bonus: "0", referral: "0"},
			},
			expectedEntries: []entry{
				{accountID: 2, kind: domain.KindDeposit, amount: "200", requestID: 10},
			},
		},
		{
			name:           "Commission rounds to cents",
			settings:       settings("0", "3.333"),
			referredBy:     &referrerID,
			referrer:       account(referrerID, "0", nil, true),
			lookupReferrer: true,
			expectedBalances: []snapshot{
				{userID: 2, spendable: "200", bonus: "0", referral: "0"},
				{userID: 1, spendable: "0", bonus: "0", referral: "6.67"},
			},
			expectedEntries: []entry{
				{accountID: 2, kind: domain.KindDeposit, amount: "200", requestID: 10},
				{accountID: 1, kind: domain.KindReferral, amount: "6.67", requestID: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			rec := &recorder{}

			m.runTx()
			m.requests.EXPECT().GetForUpdate(gomock.Any(), 10).Return(pending(10, domain.DirectionDeposit, "200"), nil)
			m.settings.EXPECT().Resolve(gomock.Any()).Return(tt.settings, nil)
			m.accounts.EXPECT().GetForUpdate(gomock.Any(), 2).Return(account(2, "0", tt.referredBy, true), nil)
			if tt.lookupReferrer {
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), referrerID).Return(tt.referrer, nil)
			}
			rec.expectWrites(m, len(tt.expectedBalances), len(tt.expectedEntries))
			rec.expectFinalize(m)

			req, err := service.Resolve(context.Background(), 99, 10, domain.ActionApprove, "")
			require.NoError(t, err)
			assert.Equal(t, "0", req.BonusAmount.String())
			assert.Equal(t, tt.expectedBalances, rec.balances)
			assert.Equal(t, tt.expectedEntries, rec.entries)
		})
	}
}

func TestResolve_WithdrawToZero(t *testing.T) {
	service, m := NewMock(t)
	rec := &recorder{}

	m.runTx()
	m.requests.EXPECT().GetForUpdate(gomock.Any(), 11).Return(pending(11, domain.DirectionWithdrawal, "100"), nil)
	m.accounts.EXPECT().GetForUpdate(gomock.Any(), 2).Return(account(2, "100", nil, true), nil)
	rec.expectWrites(m, 1, 1)
	rec.expectFinalize(m)

	req, err := service.Resolve(context.Background(), 99, 11, domain.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)
	assert.Equal(t, []snapshot{{userID: 2, spendable: "0", bonus: "0", referral: "0"}}, rec.balances)
	assert.Equal(t, []entry{{accountID: 2, kind: domain.KindWithdrawal, amount: "-100", requestID: 11}}, rec.entries)
}

func TestResolve_DoubleWithdrawal(t *testing.T) {
	service, m := NewMock(t)
	rec := &recorder{}

	// Both requests passed the advisory check at submission with spendable 100.
	m.runTx()
	m.requests.EXPECT().GetForUpdate(gomock.Any(), 1).Return(pending(1, domain.DirectionWithdrawal, "80"), nil)
	m.accounts.EXPECT().GetForUpdate(gomock.Any(), 2).Return(account(2, "100", nil, true), nil)
	rec.expectWrites(m, 1, 1)
	rec.expectFinalize(m)

	_, err := service.Resolve(context.Background(), 99, 1, domain.ActionApprove, "")
	require.NoError(t, err)
	require.Equal(t, "20", rec.balances[0].spendable)

	m.runTx()
	m.requests.EXPECT().GetForUpdate(gomock.Any(), 2).Return(pending(2, domain.DirectionWithdrawal, "80"), nil)
	m.accounts.EXPECT().GetForUpdate(gomock.Any(), 2).Return(account(2, "20", nil, true), nil)

	req, err := service.Resolve(context.Background(), 99, 2, domain.ActionApprove, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Nil(t, req)
	assert.Len(t, rec.balances, 1)
	assert.Len(t, rec.entries, 1)
}

func TestResolve_Reject(t *testing.T) {
	service, m := NewMock(t)
	rec := &recorder{}

	m.runTx()
	m.requests.EXPECT().GetForUpdate(gomock.Any(), 12).Return(pending(12, domain.DirectionDeposit, "50"), nil)
	rec.expectFinalize(m)

	req, err := service.Resolve(context.Background(), 99, 12, domain.ActionReject, "receipt is unreadable")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, req.Status)
	assert.Equal(t, "receipt is unreadable", rec.final.AdminNotes)
	assert.Equal(t, fixedNow, *rec.final.ProcessedAt)
}

func TestResolve_Errors(t *testing.T) {
	errDB := errors.New("db error")

	tests := []struct {
		name          string
		action        domain.Action
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name:          "Unknown action",
			action:        "hold",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:   "Request not found",
			action: domain.ActionApprove,
			prepareMock: func(m *mocks) {
				m.runTx()
				m.requests.EXPECT().GetForUpdate(gomock.Any(), 10).Return(nil, nil)
			},
			expectedError: domain.ErrNotFound,
		},
		{
			name:   "Already approved",
			action: domain.ActionReject,
			prepareMock: func(m *mocks) {
				req := pending(10, domain.DirectionDeposit, "200")
				req.Status = domain.StatusApproved
				m.runTx()
				m.requests.EXPECT().GetForUpdate(gomock.Any(), 10).Return(req, nil)
			},
			expectedError: domain.ErrInvalidStateTransition,
		},
		{
			name:   "Lost the finalize race",
			action: domain.ActionReject,
			prepareMock: func(m *mocks) {
				m.runTx()
				m.requests.EXPECT().GetForUpdate(gomock.Any(), 10).Return(pending(10, domain.DirectionDeposit, "200"), nil)
				m.requests.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(domain.ErrAlreadyProcessed)
			},
			expectedError: domain.ErrAlreadyProcessed,
		},
		{
			name:   "Ledger failure rolls back",
			action: domain.ActionApprove,
			prepareMock: func(m *mocks) {
				m.runTx()
				m.requests.EXPECT().GetForUpdate(gomock.Any(), 10).Return(pending(10, domain.DirectionWithdrawal, "10"), nil)
				m.accounts.EXPECT().GetForUpdate(gomock.Any(), 2).Return(account(2, "100", nil, true), nil)
				m.accounts.EXPECT().UpdateBalances(gomock.Any(), gomock.Any()).Return(nil)
				m.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil, errDB)
			},
			expectedError: errDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			req, err := service.Resolve(context.Background(), 99, 10, tt.action, "")
			assert.Nil(t, req)
			assert.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestSubmitDeposit(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		method        string
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name:   "Pending deposit created",
			amount: "200",
			method: "bkash",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(account(2, "0", nil, true), nil)
				m.requests.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *domain.MoneyRequest) (*domain.MoneyRequest, error) {
					r.ID = 1
					return r, nil
				})
			},
		},
		{
			name:          "Zero amount",
			amount:        "0",
			method:        "bkash",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "Missing method",
			amount:        "10",
			method:        "  ",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:   "Inactive account",
			amount: "10",
			method: "bkash",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(account(2, "0", nil, false), nil)
			},
			expectedError: domain.ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			req, err := service.SubmitDeposit(context.Background(), 2, dec(tt.amount), tt.method, "TX123", "proof.png")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(req.Reference, depositPrefix))
			assert.Len(t, req.Reference, len(depositPrefix)+26)
			assert.Equal(t, domain.StatusPending, req.Status)
			assert.Equal(t, domain.DirectionDeposit, req.Direction)
			assert.Equal(t, "TX123", req.TransactionRef)
			assert.Equal(t, "proof.png", req.ProofRef)
			assert.Equal(t, "0", req.BonusAmount.String())
		})
	}
}

func TestCheckDeposit(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		method        string
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name:   "Acceptable deposit",
			amount: "50",
			method: "nagad",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(account(2, "0", nil, true), nil)
			},
		},
		{
			name:          "Negative amount",
			amount:        "-5",
			method:        "nagad",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "Blank method",
			amount:        "50",
			method:        " ",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:   "Inactive account",
			amount: "50",
			method: "nagad",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(account(2, "0", nil, false), nil)
			},
			expectedError: domain.ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			err := service.CheckDeposit(context.Background(), 2, dec(tt.amount), tt.method)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSubmitWithdrawal(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		method        string
		destination   string
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name:        "Withdraw full balance",
			amount:      "100",
			method:      "bkash",
			destination: "01700000000",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(account(2, "100", nil, true), nil)
				m.requests.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *domain.MoneyRequest) (*domain.MoneyRequest, error) {
					r.ID = 5
					return r, nil
				})
			},
		},
		{
			name:        "Card payout with valid number",
			amount:      "10",
			method:      "card",
			destination: "4111 1111 1111 1111",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(account(2, "100", nil, true), nil)
				m.requests.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *domain.MoneyRequest) (*domain.MoneyRequest, error) {
					return r, nil
				})
			},
		},
		{
			name:          "Card payout with bad checksum",
			amount:        "10",
			method:        "Card",
			destination:   "4111111111111112",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "Missing destination",
			amount:        "10",
			method:        "bkash",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:        "More than spendable",
			amount:      "100.01",
			method:      "bkash",
			destination: "01700000000",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(account(2, "100", nil, true), nil)
			},
			expectedError: domain.ErrInsufficientBalance,
		},
		{
			name:        "Unknown account",
			amount:      "1",
			method:      "bkash",
			destination: "01700000000",
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(nil, nil)
			},
			expectedError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			req, err := service.SubmitWithdrawal(context.Background(), 2, dec(tt.amount), tt.method, tt.destination)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(req.Reference, withdrawalPrefix))
			assert.Equal(t, domain.DirectionWithdrawal, req.Direction)
			assert.Equal(t, domain.StatusPending, req.Status)
			assert.Equal(t, strings.TrimSpace(tt.destination), req.Destination)
		})
	}
}

func TestListForAdmin(t *testing.T) {
	service, m := NewMock(t)

	m.requests.EXPECT().List(gomock.Any(), domain.StatusPending, domain.Direction("")).
		Return([]domain.MoneyRequest{*pending(1, domain.DirectionDeposit, "5")}, nil)

	requests, err := service.ListForAdmin(context.Background(), domain.StatusPending, "")
	assert.NoError(t, err)
	assert.Len(t, requests, 1)

	_, err = service.ListForAdmin(context.Background(), "done", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.ListForAdmin(context.Background(), "", "transfer")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGet(t *testing.T) {
	service, m := NewMock(t)

	m.requests.EXPECT().GetByID(gomock.Any(), 1).Return(pending(1, domain.DirectionDeposit, "5"), nil)
	req, err := service.Get(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, req.ID)

	m.requests.EXPECT().GetByID(gomock.Any(), 2).Return(nil, nil)
	_, err = service.Get(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	m.requests.EXPECT().ListByAccount(gomock.Any(), 2).Return(nil, errors.New("db error"))
	_, err = service.ListForUser(context.Background(), 2)
	assert.EqualError(t, err, "db error")
}
