package userrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/pg"
)

const (
	userColumns        = `id, full_name, phone, username, password_hash, referral_code, created_at, last_login`
	uniqueViolationErr = "23505"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Phone,
		&user.Username,
		&user.PasswordHash,
		&user.ReferralCode,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *Repository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(repo.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// FindByLogin matches either the phone number or the username.
func (repo *Repository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1 OR username = $1`, login)
}

func (repo *Repository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo *Repository) FindByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return repo.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
}

func (repo *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (full_name, phone, username, password_hash, referral_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := repo.db.QueryRow(ctx, query,
		user.FullName,
		user.Phone,
		user.Username,
		user.PasswordHash,
		user.ReferralCode,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErr {
			return nil, domain.ErrAlreadyExists
		}
		zap.L().Error("can't save user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (repo *Repository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := repo.db.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		zap.L().Error("can't update last login", zap.Int("userID", id), zap.Error(err))
		return err
	}
	return nil
}

// List returns one page of users with their account state, oldest first.
func (repo *Repository) List(ctx context.Context, limit, offset int) ([]domain.UserSummary, error) {
	query := `
		SELECT u.id, u.full_name, u.phone, u.username, u.referral_code, u.created_at, u.last_login,
			a.spendable_balance, a.bonus_balance, a.is_active
		FROM users u
		JOIN accounts a ON a.user_id = u.id
		ORDER BY u.id
		LIMIT $1 OFFSET $2
	`
	rows, err := repo.db.Query(ctx, query, limit, offset)
	if err != nil {
		zap.L().Error("can't list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserSummary
	for rows.Next() {
		var u domain.UserSummary
		err := rows.Scan(&u.ID, &u.FullName, &u.Phone, &u.Username, &u.ReferralCode, &u.CreatedAt, &u.LastLogin,
			&u.SpendableBalance, &u.BonusBalance, &u.IsActive)
		if err != nil {
			zap.L().Error("can't scan user row", zap.Error(err))
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (repo *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		zap.L().Error("can't count users", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (repo *Repository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	tag, err := repo.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		zap.L().Error("can't update password", zap.Int("userID", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (repo *Repository) UpdateUsername(ctx context.Context, id int, username string) error {
	tag, err := repo.db.Exec(ctx, `UPDATE users SET username = $1 WHERE id = $2`, username, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErr {
			return domain.ErrAlreadyExists
		}
		zap.L().Error("can't update username", zap.Int("userID", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
