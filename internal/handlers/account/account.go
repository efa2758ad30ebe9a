package account

import (
	"context"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/dto"
	"github.com/GlebRadaev/playcash/internal/handlers/httperr"
	"github.com/GlebRadaev/playcash/pkg/auth"
	"github.com/GlebRadaev/playcash/pkg/utils"
)

//go:generate mockgen -source=account.go -destination=mock_account.go -package=account

type Service interface {
	GetAccount(ctx context.Context, userID int) (*domain.Account, error)
	Transactions(ctx context.Context, userID, limit int) ([]domain.LedgerEntry, error)
	Referrals(ctx context.Context, userID int) ([]domain.ReferredUser, error)
}

type AccountHandler struct {
	accountService Service
}

func New(accountService Service) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// GetAccount godoc
//
//	@Summary		Get account balances
//	@Description	Spendable balance, bonus balance and referral earnings of the authenticated user.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.AccountResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Account not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/account [get]
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), userID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewAccountResponse(account))
}

// GetTransactions godoc
//
//	@Summary		Get ledger history
//	@Description	Newest ledger entries of the authenticated user.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Number of entries"
//	@Success		200		{array}		dto.LedgerEntryResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid limit"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/transactions [get]
func (h *AccountHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.accountService.Transactions(r.Context(), userID, limit)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	response := make([]dto.LedgerEntryResponseDTO, len(entries))
	for i, e := range entries {
		response[i] = dto.LedgerEntryResponseDTO{
			ID:          e.ID,
			Kind:        string(e.Kind),
			Amount:      e.Amount,
			Description: e.Description,
			RequestID:   e.RequestID,
			CreatedAt:   e.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetReferrals godoc
//
//	@Summary		Get referred users
//	@Description	Users who registered with the referral code of the authenticated user.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.ReferredUserResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/referrals [get]
func (h *AccountHandler) GetReferrals(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	referred, err := h.accountService.Referrals(r.Context(), userID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	response := make([]dto.ReferredUserResponseDTO, len(referred))
	for i, u := range referred {
		response[i] = dto.ReferredUserResponseDTO{
			UserID:    u.UserID,
			FullName:  u.FullName,
			CreatedAt: u.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
