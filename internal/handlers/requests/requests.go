package requests

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/domain"
	"github.com/GlebRadaev/playcash/internal/dto"
	"github.com/GlebRadaev/playcash/internal/handlers/httperr"
	"github.com/GlebRadaev/playcash/pkg/auth"
	"github.com/GlebRadaev/playcash/pkg/utils"
)

//go:generate mockgen -source=requests.go -destination=mock_requests.go -package=requests

const (
	maxProofSize = 5 << 20
	// room for the text fields next to the proof file
	formOverhead = 64 << 10
)

type Service interface {
	CheckDeposit(ctx context.Context, userID int, amount decimal.Decimal, method string) error
	SubmitDeposit(ctx context.Context, userID int, amount decimal.Decimal, method, transactionRef, proofRef string) (*domain.MoneyRequest, error)
	SubmitWithdrawal(ctx context.Context, userID int, amount decimal.Decimal, method, destination string) (*domain.MoneyRequest, error)
	Resolve(ctx context.Context, adminID, requestID int, action domain.Action, notes string) (*domain.MoneyRequest, error)
	ListForUser(ctx context.Context, userID int) ([]domain.MoneyRequest, error)
	ListForAdmin(ctx context.Context, status domain.Status, direction domain.Direction) ([]domain.MoneyRequest, error)
}

type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

type RequestHandler struct {
	requestService Service
	blobs          BlobStore
}

func New(requestService Service, blobs BlobStore) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		blobs:          blobs,
	}
}

// SubmitDeposit godoc
//
//	@Summary		Submit a deposit request
//	@Description	Report a manual payment. The balance changes only after an administrator approves it.
//	@Tags			Requests
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			amount			formData	string	true	"Deposited amount"
//	@Param			method			formData	string	true	"Payment method"
//	@Param			transaction_ref	formData	string	false	"Transaction id of the transfer"
//	@Param			proof			formData	file	false	"Payment screenshot"
//	@Success		201				{object}	dto.MoneyRequestResponseDTO
//	@Failure		400				{object}	utils.Response	"Invalid form"
//	@Failure		401				{object}	utils.Response	"User not authorized"
//	@Failure		403				{object}	utils.Response	"Account inactive"
//	@Failure		413				{object}	utils.Response	"Proof file too large"
//	@Failure		422				{object}	utils.Response	"Validation failed"
//	@Failure		429				{object}	utils.Response	"Too many requests"
//	@Failure		502				{object}	utils.Response	"Proof could not be stored"
//	@Failure		500				{object}	utils.Response	"Internal server error"
//	@Router			/api/user/deposits [post]
func (h *RequestHandler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProofSize+formOverhead)
	if err := r.ParseMultipartForm(maxProofSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Proof file too large")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	amount, err := decimal.NewFromString(r.FormValue("amount"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	method := r.FormValue("method")

	var proofRef string
	file, header, err := r.FormFile("proof")
	switch {
	case err == nil:
		defer file.Close()
		if err := h.requestService.CheckDeposit(r.Context(), userID, amount, method); err != nil {
			httperr.Respond(w, err)
			return
		}
		proofRef, err = h.blobs.Put(r.Context(), header.Filename, file)
		if err != nil {
			httperr.Respond(w, err)
			return
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid proof file")
		return
	}

	req, err := h.requestService.SubmitDeposit(r.Context(), userID, amount, method, r.FormValue("transaction_ref"), proofRef)
	if err != nil {
		if proofRef != "" {
			if derr := h.blobs.Delete(context.WithoutCancel(r.Context()), proofRef); derr != nil {
				zap.L().Warn("failed to remove orphaned proof", zap.String("ref", proofRef), zap.Error(derr))
			}
		}
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewMoneyRequestResponse(req))
}

// SubmitWithdrawal godoc
//
//	@Summary		Submit a withdrawal request
//	@Description	Ask for a payout from the spendable balance. The balance is checked again on approval.
//	@Tags			Requests
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.WithdrawalRequestDTO	true	"Withdrawal request payload"
//	@Success		201		{object}	dto.MoneyRequestResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		402		{object}	utils.Response	"Insufficient balance"
//	@Failure		403		{object}	utils.Response	"Account inactive"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		429		{object}	utils.Response	"Too many requests"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/withdrawals [post]
func (h *RequestHandler) SubmitWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body dto.WithdrawalRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.requestService.SubmitWithdrawal(r.Context(), userID, body.Amount, body.Method, body.Destination)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewMoneyRequestResponse(req))
}

// ListMine godoc
//
//	@Summary		List own requests
//	@Description	Deposit and withdrawal requests of the authenticated user, newest first.
//	@Tags			Requests
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.MoneyRequestResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/requests [get]
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	requests, err := h.requestService.ListForUser(r.Context(), userID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewMoneyRequestList(requests))
}

// ListAll godoc
//
//	@Summary		List requests for review
//	@Description	All money requests, optionally filtered by status and direction.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			status		query		string	false	"pending, approved or rejected"
//	@Param			direction	query		string	false	"deposit or withdrawal"
//	@Success		200			{array}		dto.MoneyRequestResponseDTO
//	@Failure		401			{object}	utils.Response	"Not authorized"
//	@Failure		403			{object}	utils.Response	"Role not allowed"
//	@Failure		422			{object}	utils.Response	"Unknown filter value"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/requests [get]
func (h *RequestHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	requests, err := h.requestService.ListForAdmin(r.Context(),
		domain.Status(query.Get("status")),
		domain.Direction(query.Get("direction")),
	)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewMoneyRequestList(requests))
}

// Resolve godoc
//
//	@Summary		Approve or reject a request
//	@Description	Moves a pending request to approved or rejected and applies its balance effects.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Request id"
//	@Param			request	body		dto.ResolveRequestDTO	true	"Resolution"
//	@Success		200		{object}	dto.MoneyRequestResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Not authorized"
//	@Failure		402		{object}	utils.Response	"Insufficient balance"
//	@Failure		403		{object}	utils.Response	"Role not allowed"
//	@Failure		404		{object}	utils.Response	"Request not found"
//	@Failure		409		{object}	utils.Response	"Request already processed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/requests/{id}/resolve [post]
func (h *RequestHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	requestID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var body dto.ResolveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.requestService.Resolve(r.Context(), adminID, requestID, domain.Action(body.Action), body.Notes)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewMoneyRequestResponse(req))
}
