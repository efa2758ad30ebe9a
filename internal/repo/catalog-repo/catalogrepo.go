package catalogrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
)

const gameColumns = `id, title, category, thumbnail, game_file, winning_percentage, min_bet, max_bet, is_active, created_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanGame(row pgx.Row) (*domain.Game, error) {
	var g domain.Game
	err := row.Scan(&g.ID, &g.Title, &g.Category, &g.Thumbnail, &g.GameFile,
		&g.WinningPercentage, &g.MinBet, &g.MaxBet, &g.IsActive, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) ListGames(ctx context.Context, filter domain.GameFilter) ([]domain.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE (is_active OR NOT $1) AND ($2::text = '' OR category = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, filter.ActiveOnly, filter.Category)
	if err != nil {
		zap.L().Error("can't get games", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			zap.L().Error("can't scan game row", zap.Error(err))
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func (r *Repository) GetGame(ctx context.Context, id int) (*domain.Game, error) {
	g, err := scanGame(r.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get game", zap.Int("gameID", id), zap.Error(err))
		return nil, err
	}
	return g, nil
}

func (r *Repository) CreateGame(ctx context.Context, game *domain.Game) (*domain.Game, error) {
	query := `
		INSERT INTO games (title, category, thumbnail, game_file, winning_percentage, min_bet, max_bet, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, game.Title, game.Category, game.Thumbnail, game.GameFile,
		game.WinningPercentage, game.MinBet, game.MaxBet, game.IsActive).
		Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		zap.L().Error("can't save game", zap.Error(err))
		return nil, err
	}
	return game, nil
}

func (r *Repository) SetGameActive(ctx context.Context, id int, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE games SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		zap.L().Error("failed to update game status", zap.Int("gameID", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) CountGames(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM games`).Scan(&count); err != nil {
		zap.L().Error("can't count games", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *Repository) ListPaymentMethods(ctx context.Context, activeOnly bool) ([]domain.PaymentMethod, error) {
	query := `
		SELECT id, name, account_number, instructions, is_active, created_at
		FROM payment_methods
		WHERE is_active OR NOT $1
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		zap.L().Error("can't get payment methods", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.AccountNumber, &m.Instructions, &m.IsActive, &m.CreatedAt); err != nil {
			zap.L().Error("can't scan payment method row", zap.Error(err))
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *Repository) CreatePaymentMethod(ctx context.Context, method *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	query := `
		INSERT INTO payment_methods (name, account_number, instructions, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, method.Name, method.AccountNumber, method.Instructions, method.IsActive).
		Scan(&method.ID, &method.CreatedAt)
	if err != nil {
		zap.L().Error("can't save payment method", zap.Error(err))
		return nil, err
	}
	return method, nil
}

func (r *Repository) SetPaymentMethodActive(ctx context.Context, id int, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE payment_methods SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		zap.L().Error("failed to update payment method status", zap.Int("methodID", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
