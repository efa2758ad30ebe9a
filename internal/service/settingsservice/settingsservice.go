package settingsservice

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
)

//go:generate mockgen -source=settingsservice.go -destination=mock_settingsservice.go -package=settingsservice

var maxPercentage = decimal.NewFromInt(100)

type Repo interface {
	Get(ctx context.Context) (*domain.SiteSettings, error)
	Update(ctx context.Context, s *domain.SiteSettings) error
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// Resolve reads the current settings. It is never cached so that a resolving
// transaction sees the rates committed before it started.
func (s *Service) Resolve(ctx context.Context) (*domain.SiteSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		zap.L().Error("failed to resolve site settings", zap.Error(err))
		return nil, err
	}
	return settings, nil
}

func (s *Service) Update(ctx context.Context, settings *domain.SiteSettings) (*domain.SiteSettings, error) {
	if err := validate(settings); err != nil {
		return nil, err
	}
	settings.SiteName = strings.TrimSpace(settings.SiteName)
	settings.Currency = strings.ToUpper(strings.TrimSpace(settings.Currency))

	if err := s.repo.Update(ctx, settings); err != nil {
		zap.L().Error("failed to update site settings", zap.Error(err))
		return nil, err
	}
	zap.L().Info("site settings updated",
		zap.String("signupBonus", settings.SignupBonus.String()),
		zap.String("depositBonusPercentage", settings.DepositBonusPercentage.String()),
		zap.String("referralCommissionPercentage", settings.ReferralCommissionPercentage.String()),
	)
	return settings, nil
}

func validate(s *domain.SiteSettings) error {
	switch {
	case s.SignupBonus.IsNegative():
		return domain.Validationf("signup bonus must not be negative")
	case s.DepositBonusPercentage.IsNegative() || s.DepositBonusPercentage.GreaterThan(maxPercentage):
		return domain.Validationf("deposit bonus percentage must be between 0 and 100")
	case s.ReferralCommissionPercentage.IsNegative() || s.ReferralCommissionPercentage.GreaterThan(maxPercentage):
		return domain.Validationf("referral commission percentage must be between 0 and 100")
	}
	return nil
}
