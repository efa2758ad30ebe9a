package catalogrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/playcash/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)

	return repo, mockDB
}

func TestRepository_ListGames(t *testing.T) {
	repo, mock := NewMock(t)
	game := domain.Game{
		ID:                1,
		Title:             "Lucky Wheel",
		Category:          "slots",
		WinningPercentage: decimal.NewFromInt(45),
		MinBet:            decimal.NewFromInt(10),
		MaxBet:            decimal.NewFromInt(1000),
		IsActive:          true,
		CreatedAt:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	query := regexp.QuoteMeta("WHERE (is_active OR NOT $1) AND ($2::text = '' OR category = $2)")

	tests := []struct {
		name      string
		filter    domain.GameFilter
		mockSetup func()
		expectErr bool
		result    []domain.Game
	}{
		{
			name:   "Active games",
			filter: domain.GameFilter{ActiveOnly: true},
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(true, "").WillReturnRows(
					pgxmock.NewRows([]string{"id", "title", "category", "thumbnail", "game_file", "winning_percentage", "min_bet", "max_bet", "is_active", "created_at"}).
						AddRow(game.ID, game.Title, game.Category, "", "", game.WinningPercentage, game.MinBet, game.MaxBet, true, game.CreatedAt))
			},
			result: []domain.Game{game},
		},
		{
			name:   "Active games in a category",
			filter: domain.GameFilter{ActiveOnly: true, Category: "cards"},
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(true, "cards").WillReturnRows(gameRows())
			},
			result: nil,
		},
		{
			name:   "Database error",
			filter: domain.GameFilter{},
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(false, "").WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.ListGames(context.Background(), tt.filter)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func gameRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "title", "category", "thumbnail", "game_file", "winning_percentage", "min_bet", "max_bet", "is_active", "created_at"})
}

func TestRepository_GetGame(t *testing.T) {
	repo, mock := NewMock(t)
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("FROM games WHERE id = $1")

	mock.ExpectQuery(query).WithArgs(5).WillReturnRows(gameRows().
		AddRow(5, "Dice", "table", "t.png", "dice.zip", decimal.NewFromInt(50), decimal.NewFromInt(1), decimal.NewFromInt(10), false, createdAt))
	game, err := repo.GetGame(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, &domain.Game{
		ID:                5,
		Title:             "Dice",
		Category:          "table",
		Thumbnail:         "t.png",
		GameFile:          "dice.zip",
		WinningPercentage: decimal.NewFromInt(50),
		MinBet:            decimal.NewFromInt(1),
		MaxBet:            decimal.NewFromInt(10),
		CreatedAt:         createdAt,
	}, game)

	mock.ExpectQuery(query).WithArgs(6).WillReturnError(pgx.ErrNoRows)
	game, err = repo.GetGame(context.Background(), 6)
	assert.NoError(t, err)
	assert.Nil(t, game)

	mock.ExpectQuery(query).WithArgs(7).WillReturnError(errors.New("database error"))
	_, err = repo.GetGame(context.Background(), 7)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetGameActive(t *testing.T) {
	repo, mock := NewMock(t)
	query := regexp.QuoteMeta("UPDATE games SET is_active = $1 WHERE id = $2")

	mock.ExpectExec(query).WithArgs(false, 1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.SetGameActive(context.Background(), 1, false))

	mock.ExpectExec(query).WithArgs(true, 9).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.SetGameActive(context.Background(), 9, true), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_PaymentMethods(t *testing.T) {
	repo, mock := NewMock(t)
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payment_methods (name, account_number, instructions, is_active)")).
		WithArgs("bkash", "01700000000", "Send money", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(3, createdAt))
	mock.ExpectQuery(regexp.QuoteMeta("FROM payment_methods WHERE is_active OR NOT $1")).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "account_number", "instructions", "is_active", "created_at"}).
			AddRow(3, "bkash", "01700000000", "Send money", true, createdAt))

	method, err := repo.CreatePaymentMethod(context.Background(), &domain.PaymentMethod{
		Name:          "bkash",
		AccountNumber: "01700000000",
		Instructions:  "Send money",
		IsActive:      true,
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, method.ID)

	methods, err := repo.ListPaymentMethods(context.Background(), true)
	assert.NoError(t, err)
	assert.Equal(t, []domain.PaymentMethod{*method}, methods)
	assert.NoError(t, mock.ExpectationsWereMet())
}
