package catalogservice

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
)

//go:generate mockgen -source=catalogservice.go -destination=mock_catalogservice.go -package=catalogservice

var maxWinningPercentage = decimal.NewFromInt(100)

type CatalogRepo interface {
	ListGames(ctx context.Context, filter domain.GameFilter) ([]domain.Game, error)
	GetGame(ctx context.Context, id int) (*domain.Game, error)
	CreateGame(ctx context.Context, game *domain.Game) (*domain.Game, error)
	SetGameActive(ctx context.Context, id int, active bool) error
	ListPaymentMethods(ctx context.Context, activeOnly bool) ([]domain.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, method *domain.PaymentMethod) (*domain.PaymentMethod, error)
	SetPaymentMethodActive(ctx context.Context, id int, active bool) error
}

type Service struct {
	repo CatalogRepo
}

func New(repo CatalogRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListGames(ctx context.Context, filter domain.GameFilter) ([]domain.Game, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	games, err := s.repo.ListGames(ctx, filter)
	if err != nil {
		zap.L().Error("failed to list games", zap.String("category", filter.Category), zap.Error(err))
		return nil, err
	}
	return games, nil
}

// GetActiveGame hides inactive games from players the same way it hides missing ones.
func (s *Service) GetActiveGame(ctx context.Context, id int) (*domain.Game, error) {
	game, err := s.repo.GetGame(ctx, id)
	if err != nil {
		zap.L().Error("failed to get game", zap.Int("gameID", id), zap.Error(err))
		return nil, err
	}
	if game == nil || !game.IsActive {
		return nil, domain.ErrNotFound
	}
	return game, nil
}

// CheckGame normalizes and validates a game before anything is stored for it.
func (s *Service) CheckGame(game *domain.Game) error {
	game.Title = strings.TrimSpace(game.Title)
	game.Category = strings.TrimSpace(game.Category)
	return validateGame(game)
}

func (s *Service) AddGame(ctx context.Context, game *domain.Game) (*domain.Game, error) {
	if err := s.CheckGame(game); err != nil {
		return nil, err
	}
	game.IsActive = true

	created, err := s.repo.CreateGame(ctx, game)
	if err != nil {
		zap.L().Error("failed to create game", zap.String("title", game.Title), zap.Error(err))
		return nil, err
	}
	zap.L().Info("game added", zap.Int("gameID", created.ID), zap.String("title", created.Title))
	return created, nil
}

func validateGame(g *domain.Game) error {
	switch {
	case g.Title == "":
		return domain.Validationf("game title is required")
	case g.WinningPercentage.IsNegative() || g.WinningPercentage.GreaterThan(maxWinningPercentage):
		return domain.Validationf("winning percentage must be between 0 and 100")
	case g.MinBet.IsNegative() || g.MaxBet.IsNegative():
		return domain.Validationf("bets must not be negative")
	case g.MinBet.GreaterThan(g.MaxBet):
		return domain.Validationf("min bet must not exceed max bet")
	}
	return nil
}

func (s *Service) SetGameActive(ctx context.Context, id int, active bool) error {
	if err := s.repo.SetGameActive(ctx, id, active); err != nil {
		zap.L().Error("failed to set game status", zap.Int("gameID", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) ListPaymentMethods(ctx context.Context, activeOnly bool) ([]domain.PaymentMethod, error) {
	methods, err := s.repo.ListPaymentMethods(ctx, activeOnly)
	if err != nil {
		zap.L().Error("failed to list payment methods", zap.Error(err))
		return nil, err
	}
	return methods, nil
}

func (s *Service) AddPaymentMethod(ctx context.Context, method *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	method.Name = strings.TrimSpace(method.Name)
	method.AccountNumber = strings.TrimSpace(method.AccountNumber)
	if method.Name == "" || method.AccountNumber == "" {
		return nil, domain.Validationf("name and account number are required")
	}
	method.IsActive = true

	created, err := s.repo.CreatePaymentMethod(ctx, method)
	if err != nil {
		zap.L().Error("failed to create payment method", zap.String("name", method.Name), zap.Error(err))
		return nil, err
	}
	zap.L().Info("payment method added", zap.Int("methodID", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) SetPaymentMethodActive(ctx context.Context, id int, active bool) error {
	if err := s.repo.SetPaymentMethodActive(ctx, id, active); err != nil {
		zap.L().Error("failed to set payment method status", zap.Int("methodID", id), zap.Error(err))
		return err
	}
	return nil
}
