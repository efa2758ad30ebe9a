package adminrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
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

func (repo *Repository) FindByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	query := `
		SELECT id, username, password_hash, role, is_active, created_at, last_login
		FROM admins
		WHERE username = $1
	`
	var admin domain.Admin
	err := repo.db.QueryRow(ctx, query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Role,
		&admin.IsActive,
		&admin.CreatedAt,
		&admin.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find admin", zap.Error(err))
		return nil, err
	}
	return &admin, nil
}

func (repo *Repository) Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	query := `
		INSERT INTO admins (username, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := repo.db.QueryRow(ctx, query, admin.Username, admin.PasswordHash, admin.Role, admin.IsActive).
		Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		zap.L().Error("can't save admin", zap.Error(err))
		return nil, err
	}
	return admin, nil
}

func (repo *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		zap.L().Error("can't count admins", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (repo *Repository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := repo.db.Exec(ctx, `UPDATE admins SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		zap.L().Error("can't update admin last login", zap.Int("adminID", id), zap.Error(err))
		return err
	}
	return nil
}
