package settingsservice

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/playcash/internal/domain"
)

func NewMock(t *testing.T) (*Service, *MockRepo) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	return New(repo), repo
}

func TestResolve(t *testing.T) {
	service, repo := NewMock(t)

	repo.EXPECT().Get(gomock.Any()).Return(&domain.SiteSettings{DepositBonusPercentage: decimal.NewFromInt(10)}, nil)
	settings, err := service.Resolve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "10", settings.DepositBonusPercentage.String())

	repo.EXPECT().Get(gomock.Any()).Return(nil, errors.New("db error"))
	settings, err = service.Resolve(context.Background())
	assert.EqualError(t, err, "db error")
	assert.Nil(t, settings)
}

func TestUpdate(t *testing.T) {
	service, repo := NewMock(t)

	tests := []struct {
		name          string
		settings      *domain.SiteSettings
		prepareMock   func()
		expectedError error
	}{
		{
			name: "Valid rates",
			settings: &domain.SiteSettings{
				SiteName:                     " PlayCash ",
				Currency:                     "bdt",
				SignupBonus:                  decimal.NewFromInt(50),
				DepositBonusPercentage:       decimal.NewFromInt(10),
				ReferralCommissionPercentage: decimal.NewFromInt(5),
			},
			prepareMock: func() {
				repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.SiteSettings) error {
					assert.Equal(t, "PlayCash", s.SiteName)
					assert.Equal(t, "BDT", s.Currency)
					return nil
				})
			},
		},
		{
			name:          "Negative signup bonus",
			settings:      &domain.SiteSettings{SignupBonus: decimal.NewFromInt(-1)},
			prepareMock:   func() {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "Negative deposit bonus",
			settings:      &domain.SiteSettings{DepositBonusPercentage: decimal.NewFromInt(-10)},
			prepareMock:   func() {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "Commission above 100",
			settings:      &domain.SiteSettings{ReferralCommissionPercentage: decimal.NewFromInt(101)},
			prepareMock:   func() {},
			expectedError: domain.ErrValidation,
		},
		{
			name:     "Repository failure",
			settings: &domain.SiteSettings{},
			prepareMock: func() {
				repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			got, err := service.Update(context.Background(), tt.settings)
			switch {
			case tt.expectedError == nil:
				assert.NoError(t, err)
				assert.Equal(t, tt.settings, got)
			case errors.Is(tt.expectedError, domain.ErrValidation):
				assert.ErrorIs(t, err, domain.ErrValidation)
			default:
				assert.EqualError(t, err, tt.expectedError.Error())
			}
		})
	}
}
