package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/dto"
	"github.com/GlebRadaev/playcash/pkg/auth"
)

type mocks struct {
	dashboard *MockDashboardService
	settings  *MockSettingsService
	accounts  *MockAccountService
	users     *MockUserService
}

func NewMock(t *testing.T) (*AdminHandler, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		dashboard: NewMockDashboardService(ctrl),
		settings:  NewMockSettingsService(ctrl),
		accounts:  NewMockAccountService(ctrl),
		users:     NewMockUserService(ctrl),
	}
	return New(m.dashboard, m.settings, m.accounts, m.users), m
}

func adminRequest(method, target, body, id string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, auth.AdminIDKey, 9)
	return r.WithContext(ctx)
}

func TestDashboardHandler(t *testing.T) {
	handler, m := NewMock(t)

	m.dashboard.EXPECT().Dashboard(gomock.Any()).Return(&domain.Dashboard{
		TotalUsers: 12,
		TotalGames: 4,
		Totals: domain.RequestTotals{
			ApprovedDeposits:         decimal.NewFromInt(1000),
			ApprovedWithdrawals:      decimal.NewFromInt(200),
			TodayApprovedDeposits:    decimal.NewFromInt(300),
			TodayApprovedWithdrawals: decimal.Zero,
			PendingDeposits:          3,
			PendingWithdrawals:       1,
		},
		TopReferrers: []domain.Referrer{{UserID: 1, FullName: "Ann", ReferralEarnings: decimal.NewFromInt(10)}},
	}, nil)

	w := httptest.NewRecorder()
	handler.Dashboard(w, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body dto.DashboardResponseDTO
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 12, body.TotalUsers)
	assert.Equal(t, "1000", body.ApprovedDeposits.String())
	assert.Equal(t, 3, body.PendingDeposits)
	assert.Len(t, body.TopReferrers, 1)

	m.dashboard.EXPECT().Dashboard(gomock.Any()).Return(nil, errors.New("db error"))
	w = httptest.NewRecorder()
	handler.Dashboard(w, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSettingsHandlers(t *testing.T) {
	handler, m := NewMock(t)

	m.settings.EXPECT().Resolve(gomock.Any()).Return(&domain.SiteSettings{
		SiteName:                     "PlayCash",
		DepositBonusPercentage:       decimal.NewFromInt(10),
		ReferralCommissionPercentage: decimal.NewFromInt(5),
	}, nil)
	w := httptest.NewRecorder()
	handler.GetSettings(w, httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var got dto.SettingsDTO
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "10", got.DepositBonusPercentage.String())

	tests := []struct {
		name         string
		body         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Rates updated",
			body: `{"site_name":"PlayCash","deposit_bonus_percentage":"12.5","referral_commission_percentage":"5"}`,
			prepareMock: func() {
				m.settings.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.SiteSettings) (*domain.SiteSettings, error) {
					assert.Equal(t, "12.5", s.DepositBonusPercentage.String())
					return s, nil
				})
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Negative rate",
			body: `{"deposit_bonus_percentage":"-1"}`,
			prepareMock: func() {
				m.settings.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil, domain.Validationf("deposit bonus percentage must be between 0 and 100"))
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "Invalid body",
			body:         `[]`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.UpdateSettings(w, httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestSetBalanceHandler(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		body         string
		prepareMock  func(m *mocks)
		expectedCode int
	}{
		{
			name: "Balance set",
			id:   "2",
			body: `{"balance":"150.00"}`,
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().SetBalance(gomock.Any(), 9, 2, gomock.Any()).DoAndReturn(func(_ context.Context, _, userID int, balance decimal.Decimal) (*domain.Account, error) {
					assert.Equal(t, "150", balance.String())
					return &domain.Account{UserID: userID, SpendableBalance: balance, IsActive: true}, nil
				})
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Negative balance",
			id:   "2",
			body: `{"balance":"-5"}`,
			prepareMock: func(m *mocks) {
				m.accounts.EXPECT().SetBalance(gomock.Any(), 9, 2, gomock.Any()).Return(nil, domain.Validationf("balance must not be negative"))
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "Bad user id",
			id:           "me",
			body:         `{"balance":"1"}`,
			prepareMock:  func(m *mocks) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := NewMock(t)
			tt.prepareMock(m)

			w := httptest.NewRecorder()
			handler.SetBalance(w, adminRequest(http.MethodPut, "/api/admin/users/"+tt.id+"/balance", tt.body, tt.id))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestSetUserStatusHandler(t *testing.T) {
	handler, m := NewMock(t)

	m.accounts.EXPECT().SetActive(gomock.Any(), 2, false).Return(nil)
	w := httptest.NewRecorder()
	handler.SetUserStatus(w, adminRequest(http.MethodPut, "/api/admin/users/2/status", `{"active":false}`, "2"))
	assert.Equal(t, http.StatusOK, w.Code)

	m.accounts.EXPECT().SetActive(gomock.Any(), 99, true).Return(domain.ErrNotFound)
	w = httptest.NewRecorder()
	handler.SetUserStatus(w, adminRequest(http.MethodPut, "/api/admin/users/99/status", `{"active":true}`, "99"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUsersHandler(t *testing.T) {
	handler, m := NewMock(t)
	username := "ann"
	page := &domain.UserPage{
		Users: []domain.UserSummary{{
			User:             domain.User{ID: 21, FullName: "Ann Lee", Username: &username},
			SpendableBalance: decimal.NewFromInt(150),
			IsActive:         true,
		}},
		Page:    2,
		PerPage: 20,
		Total:   21,
	}

	m.users.EXPECT().ListUsers(gomock.Any(), 2).Return(page, nil)
	w := httptest.NewRecorder()
	handler.ListUsers(w, adminRequest(http.MethodGet, "/api/admin/users?page=2", "", ""))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.UserListResponseDTO
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 21, resp.Total)
	assert.Equal(t, 20, resp.PerPage)
	assert.Equal(t, "ann", *resp.Users[0].Username)
	assert.Equal(t, "150", resp.Users[0].SpendableBalance.String())

	m.users.EXPECT().ListUsers(gomock.Any(), 1).Return(&domain.UserPage{Page: 1, PerPage: 20}, nil)
	w = httptest.NewRecorder()
	handler.ListUsers(w, adminRequest(http.MethodGet, "/api/admin/users", "", ""))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ListUsers(w, adminRequest(http.MethodGet, "/api/admin/users?page=0", "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.users.EXPECT().ListUsers(gomock.Any(), 3).Return(nil, errors.New("db error"))
	w = httptest.NewRecorder()
	handler.ListUsers(w, adminRequest(http.MethodGet, "/api/admin/users?page=3", "", ""))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResetPasswordHandler(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		body         string
		prepareMock  func(m *mocks)
		expectedCode int
	}{
		{
			name: "Password reset",
			id:   "5",
			body: `{"new_password":"fresh1"}`,
			prepareMock: func(m *mocks) {
				m.users.EXPECT().ResetPassword(gomock.Any(), 9, 5, "fresh1").Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Unknown user",
			id:   "6",
			body: `{"new_password":"fresh1"}`,
			prepareMock: func(m *mocks) {
				m.users.EXPECT().ResetPassword(gomock.Any(), 9, 6, "fresh1").Return(domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Short password",
			id:   "5",
			body: `{"new_password":"abc"}`,
			prepareMock: func(m *mocks) {
				m.users.EXPECT().ResetPassword(gomock.Any(), 9, 5, "abc").Return(domain.Validationf("password must be at least 6 characters"))
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "Invalid user id",
			id:           "ann",
			body:         `{"new_password":"fresh1"}`,
			prepareMock:  func(m *mocks) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := NewMock(t)
			tt.prepareMock(m)
			w := httptest.NewRecorder()

			handler.ResetPassword(w, adminRequest(http.MethodPut, "/api/admin/users/"+tt.id+"/password", tt.body, tt.id))

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
