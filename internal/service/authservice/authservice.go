package authservice

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
	"github.com/GlebRadaev/playcash/pkg/auth"
)

//go:generate mockgen -source=authservice.go -destination=mock_authservice.go -package=authservice

const (
	referralCodeLength   = 8
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	minPasswordLength    = 6
	usersPerPage         = 20
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserRepo interface {
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByReferralCode(ctx context.Context, code string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	UpdateUsername(ctx context.Context, id int, username string) error
	List(ctx context.Context, limit, offset int) ([]domain.UserSummary, error)
	Count(ctx context.Context) (int, error)
}

type AdminRepo interface {
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	Count(ctx context.Context) (int, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

type AccountRepo interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByUserID(ctx context.Context, userID int) (*domain.Account, error)
}

type LedgerRepo interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
}

type SettingsResolver interface {
	Resolve(ctx context.Context) (*domain.SiteSettings, error)
}

type RegisterInput struct {
	FullName     string
	Phone        string
	Username     string
	Password     string
	ReferralCode string
}

type Service struct {
	userRepo    UserRepo
	adminRepo   AdminRepo
	accountRepo AccountRepo
	ledgerRepo  LedgerRepo
	settings    SettingsResolver
	txManager   pg.TXManager
	hashService auth.HashServiceInterface
	jwtService  auth.JWTServiceInterface
	tokenTTL    time.Duration
	newCode     func() (string, error)
}

func New(
	userRepo UserRepo,
	adminRepo AdminRepo,
	accountRepo AccountRepo,
	ledgerRepo LedgerRepo,
	settings SettingsResolver,
	txManager pg.TXManager,
	hashService auth.HashServiceInterface,
	jwtService auth.JWTServiceInterface,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		userRepo:    userRepo,
		adminRepo:   adminRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		settings:    settings,
		txManager:   txManager,
		hashService: hashService,
		jwtService:  jwtService,
		tokenTTL:    tokenTTL,
		newCode:     generateReferralCode,
	}
}

func generateReferralCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(referralCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case strings.TrimSpace(in.FullName) == "":
		return domain.Validationf("full name is required")
	case strings.TrimSpace(in.Phone) == "":
		return domain.Validationf("phone is required")
	}
	return validatePassword(in.Password)
}

// Register creates the user together with its account. The signup bonus and
// its ledger entry are written in the same transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	for _, login := range []string{in.Phone, in.Username} {
		if login == "" {
			continue
		}
		existing, err := s.userRepo.FindByLogin(ctx, login)
		if err != nil {
			zap.L().Error("can't find user", zap.Error(err))
			return nil, err
		}
		if existing != nil {
			zap.L().Info("user already exists", zap.String("login", login))
			return nil, domain.ErrAlreadyExists
		}
	}

	var referredBy *int
	if code := strings.ToUpper(strings.TrimSpace(in.ReferralCode)); code != "" {
		referrer, err := s.userRepo.FindByReferralCode(ctx, code)
		if err != nil {
			zap.L().Error("can't find referrer", zap.Error(err))
			return nil, err
		}
		if referrer == nil {
			return nil, domain.Validationf("unknown referral code %s", code)
		}
		account, err := s.accountRepo.GetByUserID(ctx, referrer.ID)
		if err != nil {
			return nil, err
		}
		if account == nil || !account.IsActive {
			return nil, domain.Validationf("referral code %s is not active", code)
		}
		referredBy = &referrer.ID
	}

	hashedPassword, err := s.hashService.HashPassword(in.Password)
	if err != nil {
		zap.L().Error("can't hash password", zap.Error(err))
		return nil, err
	}
	code, err := s.newCode()
	if err != nil {
		zap.L().Error("can't generate referral code", zap.Error(err))
		return nil, err
	}

	user := &domain.User{
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hashedPassword,
		ReferralCode: code,
	}
	if in.Username != "" {
		username := in.Username
		user.Username = &username
	}

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		settings, err := s.settings.Resolve(ctx)
		if err != nil {
			return err
		}

		if _, err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}

		account := &domain.Account{
			UserID:           user.ID,
			SpendableBalance: decimal.Zero,
			BonusBalance:     settings.SignupBonus,
			ReferralEarnings: decimal.Zero,
			ReferredBy:       referredBy,
			IsActive:         true,
		}
		if err := s.accountRepo.Create(ctx, account); err != nil {
			return err
		}

		if settings.SignupBonus.IsPositive() {
			_, err := s.ledgerRepo.Append(ctx, &domain.LedgerEntry{
				AccountID:   user.ID,
				Kind:        domain.KindBonus,
				Amount:      settings.SignupBonus,
				Description: "Signup bonus",
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		zap.L().Error("can't register user", zap.String("phone", user.Phone), zap.Error(err))
		return nil, err
	}

	zap.L().Info("user successfully registered", zap.Int("userID", user.ID), zap.Bool("referred", referredBy != nil))
	return user, nil
}

// Authenticate accepts either the phone number or the username as login.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return nil, err
	}
	if user == nil || !s.hashService.ComparePassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accountRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.IsActive {
		return nil, domain.ErrAccountInactive
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		zap.L().Warn("can't record last login", zap.Int("userID", user.ID), zap.Error(err))
	}
	zap.L().Info("user successfully authenticated", zap.Int("userID", user.ID))
	return user, nil
}

func (s *Service) AuthenticateAdmin(ctx context.Context, username, password string) (*domain.Admin, error) {
	admin, err := s.adminRepo.FindByUsername(ctx, username)
	if err != nil {
		zap.L().Error("can't find admin", zap.Error(err))
		return nil, err
	}
	if admin == nil || !s.hashService.ComparePassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, domain.ErrAccountInactive
	}

	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID, time.Now()); err != nil {
		zap.L().Warn("can't record admin last login", zap.Int("adminID", admin.ID), zap.Error(err))
	}
	zap.L().Info("admin successfully authenticated", zap.Int("adminID", admin.ID), zap.String("role", string(admin.Role)))
	return admin, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domain.Validationf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func (s *Service) setPassword(ctx context.Context, userID int, password string) error {
	hashedPassword, err := s.hashService.HashPassword(password)
	if err != nil {
		zap.L().Error("can't hash password", zap.Error(err))
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hashedPassword)
}

// ChangePassword replaces the password of a user who knows the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int, current, next string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		zap.L().Error("can't find user", zap.Int("userID", userID), zap.Error(err))
		return err
	}
	if user == nil {
		return domain.ErrNotFound
	}
	if !s.hashService.ComparePassword(user.PasswordHash, current) {
		return domain.Validationf("current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	if err := s.setPassword(ctx, userID, next); err != nil {
		return err
	}
	zap.L().Info("password changed", zap.Int("userID", userID))
	return nil
}

// ResetPassword lets an administrator set a new password without the old one.
func (s *Service) ResetPassword(ctx context.Context, adminID, userID int, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	if err := s.setPassword(ctx, userID, next); err != nil {
		return err
	}
	zap.L().Info("password reset by admin", zap.Int("adminID", adminID), zap.Int("userID", userID))
	return nil
}

// UpdateUsername fails when the name is already used as another user's login.
func (s *Service) UpdateUsername(ctx context.Context, userID int, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Validationf("username is required")
	}

	existing, err := s.userRepo.FindByLogin(ctx, username)
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return err
	}
	if existing != nil {
		if existing.ID == userID {
			return nil
		}
		return domain.ErrAlreadyExists
	}

	if err := s.userRepo.UpdateUsername(ctx, userID, username); err != nil {
		return err
	}
	zap.L().Info("username changed", zap.Int("userID", userID), zap.String("username", username))
	return nil
}

// ListUsers returns the requested page of users; pages start at 1.
func (s *Service) ListUsers(ctx context.Context, page int) (*domain.UserPage, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx, usersPerPage, (page-1)*usersPerPage)
	if err != nil {
		return nil, err
	}
	return &domain.UserPage{
		Users:   users,
		Page:    page,
		PerPage: usersPerPage,
		Total:   total,
	}, nil
}

func (s *Service) GenerateToken(userID int) (string, error) {
	token, err := s.jwtService.GenerateJWT(userID, auth.RoleUser, time.Now().Add(s.tokenTTL))
	if err != nil {
		zap.L().Error("can't generate token", zap.Error(err))
		return "", err
	}
	return token, nil
}

func (s *Service) GenerateAdminToken(admin *domain.Admin) (string, error) {
	token, err := s.jwtService.GenerateJWT(admin.ID, string(admin.Role), time.Now().Add(s.tokenTTL))
	if err != nil {
		zap.L().Error("can't generate admin token", zap.Error(err))
		return "", err
	}
	return token, nil
}

// EnsureAdmin creates a super admin when no administrator exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := s.hashService.HashPassword(password)
	if err != nil {
		return err
	}
	admin, err := s.adminRepo.Create(ctx, &domain.Admin{
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         domain.RoleSuperAdmin,
		IsActive:     true,
	})
	if err != nil {
		return err
	}

	zap.L().Info("bootstrap admin created", zap.Int("adminID", admin.ID), zap.String("username", username))
	return nil
}
