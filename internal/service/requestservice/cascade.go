package requestservice

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
)

// payReferral credits the direct referrer of the depositor with a commission
// on an approved deposit. Only referralEarnings moves. A referrer that is gone
// or deactivated is skipped without failing the approval.
func (s *Service) payReferral(ctx context.Context, res *resolution, depositor *domain.Account, settings *domain.SiteSettings) error {
	if depositor.ReferredBy == nil || !settings.ReferralCommissionPercentage.IsPositive() {
		return nil
	}
	commission := domain.Percent(res.req.Amount, settings.ReferralCommissionPercentage)
	if !commission.IsPositive() {
		return nil
	}

	referrerID := *depositor.ReferredBy
	referrer, err := s.accountRepo.GetForUpdate(ctx, referrerID)
	if err != nil {
		return err
	}
	if referrer == nil || !referrer.IsActive {
		zap.L().Info("referral commission skipped",
			zap.Int("referrerID", referrerID),
			zap.String("reference", res.req.Reference),
			zap.Bool("found", referrer != nil),
		)
		return nil
	}

	referrer.ReferralEarnings = referrer.ReferralEarnings.Add(commission)
	if err := s.accountRepo.UpdateBalances(ctx, referrer); err != nil {
		return err
	}

	desc := fmt.Sprintf("Referral commission from user %d on %s", depositor.UserID, res.req.Reference)
	return s.appendEntry(ctx, res, referrer.UserID, domain.KindReferral, commission, desc)
}
