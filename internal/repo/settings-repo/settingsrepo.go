package settingsrepo

import (
	"context"

	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

// Get returns the singleton settings row, creating it with zero rates on first access.
func (r *Repository) Get(ctx context.Context) (*domain.SiteSettings, error) {
	if _, err := r.db.Exec(ctx, `INSERT INTO site_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		zap.L().Error("failed to ensure site settings", zap.Error(err))
		return nil, err
	}

	query := `
		SELECT site_name, currency, maintenance_mode, signup_bonus, deposit_bonus_percentage, referral_commission_percentage
		FROM site_settings
		WHERE id = 1
	`
	var s domain.SiteSettings
	err := r.db.QueryRow(ctx, query).Scan(
		&s.SiteName,
		&s.Currency,
		&s.MaintenanceMode,
		&s.SignupBonus,
		&s.DepositBonusPercentage,
		&s.ReferralCommissionPercentage,
	)
	if err != nil {
		zap.L().Error("failed to get site settings", zap.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *Repository) Update(ctx context.Context, s *domain.SiteSettings) error {
	query := `
		INSERT INTO site_settings (id, site_name, currency, maintenance_mode, signup_bonus, deposit_bonus_percentage, referral_commission_percentage)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET site_name = EXCLUDED.site_name,
			currency = EXCLUDED.currency,
			maintenance_mode = EXCLUDED.maintenance_mode,
			signup_bonus = EXCLUDED.signup_bonus,
			deposit_bonus_percentage = EXCLUDED.deposit_bonus_percentage,
			referral_commission_percentage = EXCLUDED.referral_commission_percentage
	`
	_, err := r.db.Exec(ctx, query,
		s.SiteName,
		s.Currency,
		s.MaintenanceMode,
		s.SignupBonus,
		s.DepositBonusPercentage,
		s.ReferralCommissionPercentage,
	)
	if err != nil {
		zap.L().Error("failed to update site settings", zap.Error(err))
		return err
	}
	return nil
}
