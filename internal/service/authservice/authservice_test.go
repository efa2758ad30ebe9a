package authservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
	"github.com/GlebRadaev/playcash/pkg/auth"
)

type mocks struct {
	users    *MockUserRepo
	admins   *MockAdminRepo
	accounts *MockAccountRepo
	ledger   *MockLedgerRepo
	settings *MockSettingsResolver
	tx       *pg.MockTXManager
	hash     *auth.MockHashServiceInterface
	jwt      *auth.MockJWTServiceInterface
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		users:    NewMockUserRepo(ctrl),
		admins:   NewMockAdminRepo(ctrl),
		accounts: NewMockAccountRepo(ctrl),
		ledger:   NewMockLedgerRepo(ctrl),
		settings: NewMockSettingsResolver(ctrl),
		tx:       pg.NewMockTXManager(ctrl),
		hash:     auth.NewMockHashServiceInterface(ctrl),
		jwt:      auth.NewMockJWTServiceInterface(ctrl),
	}
	service := New(m.users, m.admins, m.accounts, m.ledger, m.settings, m.tx, m.hash, m.jwt, time.Hour)
	service.newCode = func() (string, error) { return "NEWCODE1", nil }
	return service, m
}

func (m *mocks) runTx() {
	m.tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
}

func TestRegister(t *testing.T) {
	service, m := NewMock(t)
	referrerID := 1

	tests := []struct {
		name          string
		input         RegisterInput
		prepareMock   func()
		expectedError error
		expectedUser  *domain.User
	}{
		{
			name: "Referred user gets signup bonus",
			input: RegisterInput{
				FullName:     "Ann Lee",
				Phone:        "01700000000",
				Username:     "ann",
				Password:     "secret1",
				ReferralCode: "ref00001",
			},
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01700000000").Return(nil, nil)
				m.users.EXPECT().FindByLogin(gomock.Any(), "ann").Return(nil, nil)
				m.users.EXPECT().FindByReferralCode(gomock.Any(), "REF00001").Return(&domain.User{ID: referrerID}, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), referrerID).Return(&domain.Account{UserID: referrerID, IsActive: true}, nil)
				m.hash.EXPECT().HashPassword("secret1").Return("hashed", nil)
				m.runTx()
				m.settings.EXPECT().Resolve(gomock.Any()).Return(&domain.SiteSettings{SignupBonus: decimal.NewFromInt(50)}, nil)
				m.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) (*domain.User, error) {
					u.ID = 2
					return u, nil
				})
				m.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *domain.Account) error {
					assert.Equal(t, 2, a.UserID)
					assert.Equal(t, "50", a.BonusBalance.String())
					assert.Equal(t, "0", a.SpendableBalance.String())
					assert.Equal(t, &referrerID, a.ReferredBy)
					assert.True(t, a.IsActive)
					return nil
				})
				m.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *domain.LedgerEntry) (*domain.LedgerEntry, error) {
					assert.Equal(t, 2, e.AccountID)
					assert.Equal(t, domain.KindBonus, e.Kind)
					assert.Equal(t, "50", e.Amount.String())
					return e, nil
				})
			},
			expectedUser: &domain.User{
				ID:           2,
				FullName:     "Ann Lee",
				Phone:        "01700000000",
				PasswordHash: "hashed",
				ReferralCode: "NEWCODE1",
			},
		},
		{
			name:  "No signup bonus means no ledger entry",
			input: RegisterInput{FullName: "Bob", Phone: "01800000000", Password: "secret1"},
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01800000000").Return(nil, nil)
				m.hash.EXPECT().HashPassword("secret1").Return("hashed", nil)
				m.runTx()
				m.settings.EXPECT().Resolve(gomock.Any()).Return(&domain.SiteSettings{}, nil)
				m.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) (*domain.User, error) {
					u.ID = 3
					return u, nil
				})
				m.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedUser: &domain.User{
				ID:           3,
				FullName:     "Bob",
				Phone:        "01800000000",
				PasswordHash: "hashed",
				ReferralCode: "NEWCODE1",
			},
		},
		{
			name:          "Short password",
			input:         RegisterInput{FullName: "Bob", Phone: "01800000000", Password: "123"},
			prepareMock:   func() {},
			expectedError: domain.ErrValidation,
		},
		{
			name:  "Phone already registered",
			input: RegisterInput{FullName: "Bob", Phone: "01800000000", Password: "secret1"},
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01800000000").Return(&domain.User{ID: 3}, nil)
			},
			expectedError: domain.ErrAlreadyExists,
		},
		{
			name:  "Unknown referral code",
			input: RegisterInput{FullName: "Bob", Phone: "01800000000", Password: "secret1", ReferralCode: "NOPE0000"},
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01800000000").Return(nil, nil)
				m.users.EXPECT().FindByReferralCode(gomock.Any(), "NOPE0000").Return(nil, nil)
			},
			expectedError: domain.ErrValidation,
		},
		{
			name:  "Inactive referrer",
			input: RegisterInput{FullName: "Bob", Phone: "01800000000", Password: "secret1", ReferralCode: "REF00001"},
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01800000000").Return(nil, nil)
				m.users.EXPECT().FindByReferralCode(gomock.Any(), "REF00001").Return(&domain.User{ID: referrerID}, nil)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), referrerID).Return(&domain.Account{UserID: referrerID, IsActive: false}, nil)
			},
			expectedError: domain.ErrValidation,
		},
		{
			name:  "Account creation fails",
			input: RegisterInput{FullName: "Bob", Phone: "01800000000", Password: "secret1"},
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01800000000").Return(nil, nil)
				m.hash.EXPECT().HashPassword("secret1").Return("hashed", nil)
				m.runTx()
				m.settings.EXPECT().Resolve(gomock.Any()).Return(&domain.SiteSettings{}, nil)
				m.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) (*domain.User, error) {
					u.ID = 3
					return u, nil
				})
				m.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
			},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			user, err := service.Register(context.Background(), tt.input)
			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, domain.ErrValidation) || errors.Is(tt.expectedError, domain.ErrAlreadyExists) {
					assert.ErrorIs(t, err, tt.expectedError)
				} else {
					assert.Equal(t, tt.expectedError.Error(), err.Error())
				}
				assert.Nil(t, user)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedUser.ID, user.ID)
			assert.Equal(t, tt.expectedUser.FullName, user.FullName)
			assert.Equal(t, tt.expectedUser.Phone, user.Phone)
			assert.Equal(t, tt.expectedUser.PasswordHash, user.PasswordHash)
			assert.Equal(t, tt.expectedUser.ReferralCode, user.ReferralCode)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	service, m := NewMock(t)
	user := &domain.User{ID: 2, Phone: "01700000000", PasswordHash: "hashed"}

	tests := []struct {
		name          string
		login         string
		password      string
		prepareMock   func()
		expectedError error
	}{
		{
			name:     "Successful login",
			login:    "01700000000",
			password: "secret1",
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01700000000").Return(user, nil)
				m.hash.EXPECT().ComparePassword("hashed", "secret1").Return(true)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(&domain.Account{UserID: 2, IsActive: true}, nil)
				m.users.EXPECT().UpdateLastLogin(gomock.Any(), 2, gomock.Any()).Return(nil)
			},
		},
		{
			name:     "Unknown login",
			login:    "ghost",
			password: "secret1",
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "ghost").Return(nil, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "Wrong password",
			login:    "01700000000",
			password: "wrong",
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01700000000").Return(user, nil)
				m.hash.EXPECT().ComparePassword("hashed", "wrong").Return(false)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "Deactivated account",
			login:    "01700000000",
			password: "secret1",
			prepareMock: func() {
				m.users.EXPECT().FindByLogin(gomock.Any(), "01700000000").Return(user, nil)
				m.hash.EXPECT().ComparePassword("hashed", "secret1").Return(true)
				m.accounts.EXPECT().GetByUserID(gomock.Any(), 2).Return(&domain.Account{UserID: 2, IsActive: false}, nil)
			},
			expectedError: domain.ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			got, err := service.Authenticate(context.Background(), tt.login, tt.password)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, user, got)
			}
		})
	}
}

func TestAuthenticateAdmin(t *testing.T) {
	service, m := NewMock(t)
	admin := &domain.Admin{ID: 1, Username: "root", PasswordHash: "hashed", Role: domain.RoleSuperAdmin, IsActive: true}

	m.admins.EXPECT().FindByUsername(gomock.Any(), "root").Return(admin, nil)
	m.hash.EXPECT().ComparePassword("hashed", "secret1").Return(true)
	m.admins.EXPECT().UpdateLastLogin(gomock.Any(), 1, gomock.Any()).Return(errors.New("ignored"))

	got, err := service.AuthenticateAdmin(context.Background(), "root", "secret1")
	assert.NoError(t, err)
	assert.Equal(t, admin, got)

	m.admins.EXPECT().FindByUsername(gomock.Any(), "root").Return(&domain.Admin{ID: 1, PasswordHash: "hashed", IsActive: false}, nil)
	m.hash.EXPECT().ComparePassword("hashed", "secret1").Return(true)

	_, err = service.AuthenticateAdmin(context.Background(), "root", "secret1")
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestGenerateToken(t *testing.T) {
	service, m := NewMock(t)

	m.jwt.EXPECT().GenerateJWT(2, auth.RoleUser, gomock.Any()).Return("user-token", nil)
	token, err := service.GenerateToken(2)
	assert.NoError(t, err)
	assert.Equal(t, "user-token", token)

	m.jwt.EXPECT().GenerateJWT(1, "payment_manager", gomock.Any()).Return("", errors.New("sign error"))
	_, err = service.GenerateAdminToken(&domain.Admin{ID: 1, Role: domain.RolePaymentManager})
	assert.EqualError(t, err, "sign error")
}

func TestEnsureAdmin(t *testing.T) {
	service, m := NewMock(t)

	tests := []struct {
		name        string
		username    string
		password    string
		prepareMock func()
	}{
		{
			name:        "No credentials configured",
			prepareMock: func() {},
		},
		{
			name:     "Admins already exist",
			username: "root",
			password: "secret1",
			prepareMock: func() {
				m.admins.EXPECT().Count(gomock.Any()).Return(1, nil)
			},
		},
		{
			name:     "First start",
			username: "root",
			password: "secret1",
			prepareMock: func() {
				m.admins.EXPECT().Count(gomock.Any()).Return(0, nil)
				m.hash.EXPECT().HashPassword("secret1").Return("hashed", nil)
				m.admins.EXPECT().Create(gomock.Any(), &domain.Admin{
					Username:     "root",
					PasswordHash: "hashed",
					Role:         domain.RoleSuperAdmin,
					IsActive:     true,
				}).Return(&domain.Admin{ID: 1}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			assert.NoError(t, service.EnsureAdmin(context.Background(), tt.username, tt.password))
		})
	}
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := generateReferralCode()
	assert.NoError(t, err)
	assert.Len(t, code, referralCodeLength)
	assert.Regexp(t, "^[A-Z0-9]+$", code)
}

func TestChangePassword(t *testing.T) {
	user := &domain.User{ID: 2, PasswordHash: "hashed"}

	tests := []struct {
		name        string
		current     string
		next        string
		prepareMock func(m *mocks)
		expectedErr string
	}{
		{
			name:    "Password changed",
			current: "secret1",
			next:    "secret2",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByID(gomock.Any(), 2).Return(user, nil)
				m.hash.EXPECT().ComparePassword("hashed", "secret1").Return(true)
				m.hash.EXPECT().HashPassword("secret2").Return("hashed2", nil)
				m.users.EXPECT().UpdatePassword(gomock.Any(), 2, "hashed2").Return(nil)
			},
		},
		{
			name:    "Wrong current password",
			current: "wrong",
			next:    "secret2",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByID(gomock.Any(), 2).Return(user, nil)
				m.hash.EXPECT().ComparePassword("hashed", "wrong").Return(false)
			},
			expectedErr: "validation failed: current password is incorrect",
		},
		{
			name:    "New password too short",
			current: "secret1",
			next:    "abc",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByID(gomock.Any(), 2).Return(user, nil)
				m.hash.EXPECT().ComparePassword("hashed", "secret1").Return(true)
			},
			expectedErr: "validation failed: password must be at least 6 characters",
		},
		{
			name:    "Unknown user",
			current: "secret1",
			next:    "secret2",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByID(gomock.Any(), 2).Return(nil, nil)
			},
			expectedErr: domain.ErrNotFound.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			err := service.ChangePassword(context.Background(), 2, tt.current, tt.next)
			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResetPassword(t *testing.T) {
	service, m := NewMock(t)

	m.hash.EXPECT().HashPassword("fresh1").Return("hashed", nil)
	m.users.EXPECT().UpdatePassword(gomock.Any(), 5, "hashed").Return(nil)
	assert.NoError(t, service.ResetPassword(context.Background(), 1, 5, "fresh1"))

	m.hash.EXPECT().HashPassword("fresh1").Return("hashed", nil)
	m.users.EXPECT().UpdatePassword(gomock.Any(), 9, "hashed").Return(domain.ErrNotFound)
	assert.ErrorIs(t, service.ResetPassword(context.Background(), 1, 9, "fresh1"), domain.ErrNotFound)

	err := service.ResetPassword(context.Background(), 1, 5, "abc")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateUsername(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		prepareMock func(m *mocks)
		expectedErr error
	}{
		{
			name:     "Username changed",
			username: " ann ",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByLogin(gomock.Any(), "ann").Return(nil, nil)
				m.users.EXPECT().UpdateUsername(gomock.Any(), 2, "ann").Return(nil)
			},
		},
		{
			name:     "Same username",
			username: "ann",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByLogin(gomock.Any(), "ann").Return(&domain.User{ID: 2}, nil)
			},
		},
		{
			name:     "Username taken",
			username: "ann",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByLogin(gomock.Any(), "ann").Return(&domain.User{ID: 3}, nil)
			},
			expectedErr: domain.ErrAlreadyExists,
		},
		{
			name:     "Taken between check and update",
			username: "ann",
			prepareMock: func(m *mocks) {
				m.users.EXPECT().FindByLogin(gomock.Any(), "ann").Return(nil, nil)
				m.users.EXPECT().UpdateUsername(gomock.Any(), 2, "ann").Return(domain.ErrAlreadyExists)
			},
			expectedErr: domain.ErrAlreadyExists,
		},
		{
			name:        "Blank username",
			username:    "  ",
			prepareMock: func(m *mocks) {},
			expectedErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			err := service.UpdateUsername(context.Background(), 2, tt.username)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestListUsers(t *testing.T) {
	service, m := NewMock(t)
	users := []domain.UserSummary{{User: domain.User{ID: 21}, IsActive: true}}

	m.users.EXPECT().Count(gomock.Any()).Return(41, nil)
	m.users.EXPECT().List(gomock.Any(), 20, 20).Return(users, nil)
	page, err := service.ListUsers(context.Background(), 2)
	assert.NoError(t, err)
	assert.Equal(t, &domain.UserPage{Users: users, Page: 2, PerPage: 20, Total: 41}, page)

	m.users.EXPECT().Count(gomock.Any()).Return(0, nil)
	m.users.EXPECT().List(gomock.Any(), 20, 0).Return(nil, nil)
	page, err = service.ListUsers(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Page)

	m.users.EXPECT().Count(gomock.Any()).Return(0, errors.New("db error"))
	_, err = service.ListUsers(context.Background(), 1)
	assert.EqualError(t, err, "db error")
}
