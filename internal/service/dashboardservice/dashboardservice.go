package dashboardservice

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/playcash/internal/domain"
)

//go:generate mockgen -source=dashboardservice.go -destination=mock_dashboardservice.go -package=dashboardservice

const topReferrersLimit = 5

type AccountRepo interface {
	Count(ctx context.Context) (int, error)
	TopReferrers(ctx context.Context, limit int) ([]domain.Referrer, error)
}

type GameRepo interface {
	CountGames(ctx context.Context) (int, error)
}

type RequestRepo interface {
	Totals(ctx context.Context, since time.Time) (*domain.RequestTotals, error)
}

type Service struct {
	accountRepo AccountRepo
	gameRepo    GameRepo
	requestRepo RequestRepo
	now         func() time.Time
}

func New(accountRepo AccountRepo, gameRepo GameRepo, requestRepo RequestRepo) *Service {
	return &Service{
		accountRepo: accountRepo,
		gameRepo:    gameRepo,
		requestRepo: requestRepo,
		now:         time.Now,
	}
}

// Dashboard gathers the admin overview. "Today" starts at midnight UTC.
func (s *Service) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var dashboard domain.Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.accountRepo.Count(ctx)
		dashboard.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.gameRepo.CountGames(ctx)
		dashboard.TotalGames = n
		return err
	})
	g.Go(func() error {
		totals, err := s.requestRepo.Totals(ctx, startOfDay)
		if err != nil {
			return err
		}
		dashboard.Totals = *totals
		return nil
	})
	g.Go(func() error {
		referrers, err := s.accountRepo.TopReferrers(ctx, topReferrersLimit)
		dashboard.TopReferrers = referrers
		return err
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("failed to build dashboard", zap.Error(err))
		return nil, err
	}
	return &dashboard, nil
}
