package settingsrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

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

func TestRepository_Get(t *testing.T) {
	repo, mock := NewMock(t)
	ensure := regexp.QuoteMeta("INSERT INTO site_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING")
	sel := regexp.QuoteMeta("FROM site_settings WHERE id = 1")

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Settings row exists",
			mockSetup: func() {
				mock.ExpectExec(ensure).WillReturnResult(pgxmock.NewResult("INSERT", 0))
				mock.ExpectQuery(sel).WillReturnRows(
					pgxmock.NewRows([]string{"site_name", "currency", "maintenance_mode", "signup_bonus", "deposit_bonus_percentage", "referral_commission_percentage"}).
						AddRow("PlayCash", "BDT", false, decimal.NewFromInt(50), decimal.NewFromInt(10), decimal.NewFromInt(5)))
			},
		},
		{
			name: "Insert fails",
			mockSetup: func() {
				mock.ExpectExec(ensure).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			s, err := repo.Get(context.Background())
			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, s)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "PlayCash", s.SiteName)
				assert.Equal(t, "50", s.SignupBonus.String())
				assert.Equal(t, "10", s.DepositBonusPercentage.String())
				assert.Equal(t, "5", s.ReferralCommissionPercentage.String())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Update(t *testing.T) {
	repo, mock := NewMock(t)
	s := &domain.SiteSettings{
		SiteName:                     "PlayCash",
		Currency:                     "BDT",
		SignupBonus:                  decimal.NewFromInt(50),
		DepositBonusPercentage:       decimal.NewFromInt(10),
		ReferralCommissionPercentage: decimal.NewFromInt(5),
	}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WithArgs("PlayCash", "BDT", false, s.SignupBonus, s.DepositBonusPercentage, s.ReferralCommissionPercentage).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Update(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}
