package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/dto"
	"github.com/GlebRadaev/playcash/internal/handlers/httperr"
	"github.com/GlebRadaev/playcash/pkg/auth"
	"github.com/GlebRadaev/playcash/pkg/utils"
)

//go:generate mockgen -source=admin.go -destination=mock_admin.go -package=admin

type DashboardService interface {
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
}

type SettingsService interface {
	Resolve(ctx context.Context) (*domain.SiteSettings, error)
	Update(ctx context.Context, settings *domain.SiteSettings) (*domain.SiteSettings, error)
}

type AccountService interface {
	SetBalance(ctx context.Context, adminID, userID int, balance decimal.Decimal) (*domain.Account, error)
	SetActive(ctx context.Context, userID int, active bool) error
}

type UserService interface {
	ListUsers(ctx context.Context, page int) (*domain.UserPage, error)
	ResetPassword(ctx context.Context, adminID, userID int, next string) error
}

type AdminHandler struct {
	dashboard DashboardService
	settings  SettingsService
	accounts  AccountService
	users     UserService
}

func New(dashboard DashboardService, settings SettingsService, accounts AccountService, users UserService) *AdminHandler {
	return &AdminHandler{
		dashboard: dashboard,
		settings:  settings,
		accounts:  accounts,
		users:     users,
	}
}

// Dashboard godoc
//
//	@Summary		Back office overview
//	@Description	User and game counts, approved totals, pending counts and top referrers.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.DashboardResponseDTO
//	@Failure		401	{object}	utils.Response	"Not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Dashboard(r.Context())
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	referrers := make([]dto.ReferrerDTO, len(d.TopReferrers))
	for i, ref := range d.TopReferrers {
		referrers[i] = dto.ReferrerDTO{
			UserID:           ref.UserID,
			FullName:         ref.FullName,
			ReferralEarnings: ref.ReferralEarnings,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.DashboardResponseDTO{
		TotalUsers:               d.TotalUsers,
		TotalGames:               d.TotalGames,
		ApprovedDeposits:         d.Totals.ApprovedDeposits,
		ApprovedWithdrawals:      d.Totals.ApprovedWithdrawals,
		TodayApprovedDeposits:    d.Totals.TodayApprovedDeposits,
		TodayApprovedWithdrawals: d.Totals.TodayApprovedWithdrawals,
		PendingDeposits:          d.Totals.PendingDeposits,
		PendingWithdrawals:       d.Totals.PendingWithdrawals,
		TopReferrers:             referrers,
	})
}

func settingsResponse(s *domain.SiteSettings) dto.SettingsDTO {
	return dto.SettingsDTO{
		SiteName:                     s.SiteName,
		Currency:                     s.Currency,
		MaintenanceMode:              s.MaintenanceMode,
		SignupBonus:                  s.SignupBonus,
		DepositBonusPercentage:       s.DepositBonusPercentage,
		ReferralCommissionPercentage: s.ReferralCommissionPercentage,
	}
}

// GetSettings godoc
//
//	@Summary		Get site settings
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.SettingsDTO
//	@Failure		401	{object}	utils.Response	"Not authorized"
//	@Failure		403	{object}	utils.Response	"Role not allowed"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/settings [get]
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Resolve(r.Context())
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, settingsResponse(s))
}

// UpdateSettings godoc
//
//	@Summary		Update site settings
//	@Description	New rates apply to requests resolved after the update commits.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SettingsDTO	true	"Settings"
//	@Success		200		{object}	dto.SettingsDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		422		{object}	utils.Response	"Rate out of range"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/settings [put]
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body dto.SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s, err := h.settings.Update(r.Context(), &domain.SiteSettings{
		SiteName:                     body.SiteName,
		Currency:                     body.Currency,
		MaintenanceMode:              body.MaintenanceMode,
		SignupBonus:                  body.SignupBonus,
		DepositBonusPercentage:       body.DepositBonusPercentage,
		ReferralCommissionPercentage: body.ReferralCommissionPercentage,
	})
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, settingsResponse(s))
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}
	return userID, true
}

// SetBalance godoc
//
//	@Summary		Set a user's spendable balance
//	@Description	The difference to the current balance is recorded as a manual adjustment.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"User id"
//	@Param			request	body		dto.SetBalanceRequestDTO	true	"New balance"
//	@Success		200		{object}	dto.AccountResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"Account not found"
//	@Failure		422		{object}	utils.Response	"Negative balance"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/users/{id}/balance [put]
func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var body dto.SetBalanceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.accounts.SetBalance(r.Context(), adminID, userID, body.Balance)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewAccountResponse(account))
}

// SetUserStatus godoc
//
//	@Summary		Activate or deactivate a user account
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"User id"
//	@Param			request	body		dto.SetStatusRequestDTO	true	"New status"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"Account not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/users/{id}/status [put]
func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var body dto.SetStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.accounts.SetActive(r.Context(), userID, body.Active); err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Account status updated"})
}

// ListUsers godoc
//
//	@Summary		List users
//	@Description	Users with their balances and account status, twenty per page.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			page	query		int	false	"Page number, starting at 1"
//	@Success		200		{object}	dto.UserListResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid page"
//	@Failure		401		{object}	utils.Response	"Not authorized"
//	@Failure		403		{object}	utils.Response	"Role not allowed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		var err error
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid page")
			return
		}
	}
	users, err := h.users.ListUsers(r.Context(), page)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewUserListResponse(users))
}

// ResetPassword godoc
//
//	@Summary		Reset a user's password
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"User id"
//	@Param			request	body		dto.ResetPasswordRequestDTO	true	"New password"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/users/{id}/password [put]
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var body dto.ResetPasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.users.ResetPassword(r.Context(), adminID, userID, body.NewPassword); err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Password reset"})
}
