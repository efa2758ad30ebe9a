package catalog

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
	"github.com/GlebRadaev/playcash/pkg/utils"
)

//go:generate mockgen -source=catalog.go -destination=mock_catalog.go -package=catalog

const (
	maxUploadSize = 32 << 20
	formOverhead  = 64 << 10
)

type Service interface {
	ListGames(ctx context.Context, filter domain.GameFilter) ([]domain.Game, error)
	GetActiveGame(ctx context.Context, id int) (*domain.Game, error)
	CheckGame(game *domain.Game) error
	AddGame(ctx context.Context, game *domain.Game) (*domain.Game, error)
	SetGameActive(ctx context.Context, id int, active bool) error
	ListPaymentMethods(ctx context.Context, activeOnly bool) ([]domain.PaymentMethod, error)
	AddPaymentMethod(ctx context.Context, method *domain.PaymentMethod) (*domain.PaymentMethod, error)
	SetPaymentMethodActive(ctx context.Context, id int, active bool) error
}

type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

type CatalogHandler struct {
	catalogService Service
	blobs          BlobStore
	uploadLimit    int64
}

func New(catalogService Service, blobs BlobStore) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		blobs:          blobs,
		uploadLimit:    maxUploadSize,
	}
}

func gameResponse(g *domain.Game) dto.GameResponseDTO {
	return dto.GameResponseDTO{
		ID:                g.ID,
		Title:             g.Title,
		Category:          g.Category,
		Thumbnail:         g.Thumbnail,
		GameFile:          g.GameFile,
		WinningPercentage: g.WinningPercentage,
		MinBet:            g.MinBet,
		MaxBet:            g.MaxBet,
		IsActive:          g.IsActive,
	}
}

func paymentMethodResponse(m *domain.PaymentMethod) dto.PaymentMethodResponseDTO {
	return dto.PaymentMethodResponseDTO{
		ID:            m.ID,
		Name:          m.Name,
		AccountNumber: m.AccountNumber,
		Instructions:  m.Instructions,
		IsActive:      m.IsActive,
	}
}

func (h *CatalogHandler) listGames(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	filter := domain.GameFilter{ActiveOnly: activeOnly, Category: r.URL.Query().Get("category")}
	if filter.Category == "all" {
		filter.Category = ""
	}
	games, err := h.catalogService.ListGames(r.Context(), filter)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	response := make([]dto.GameResponseDTO, len(games))
	for i := range games {
		response[i] = gameResponse(&games[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// ListGames godoc
//
//	@Summary		List playable games
//	@Tags			Catalog
//	@Security		BearerAuth
//	@Produce		json
//	@Param			category	query		string	false	"Category, all for every category"
//	@Success		200			{array}		dto.GameResponseDTO
//	@Failure		401			{object}	utils.Response	"User not authorized"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/user/games [get]
func (h *CatalogHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	h.listGames(w, r, true)
}

// GetGame godoc
//
//	@Summary		Get an active game
//	@Tags			Catalog
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Game id"
//	@Success		200	{object}	dto.GameResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid id"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Game not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/games/{id} [get]
func (h *CatalogHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	game, err := h.catalogService.GetActiveGame(r.Context(), id)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, gameResponse(game))
}

// ListAllGames godoc
//
//	@Summary		List every game including disabled ones
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.GameResponseDTO
//	@Failure		401	{object}	utils.Response	"Not authorized"
//	@Failure		403	{object}	utils.Response	"Role not allowed"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/games [get]
func (h *CatalogHandler) ListAllGames(w http.ResponseWriter, r *http.Request) {
	h.listGames(w, r, false)
}

// upload stores the optional form file under field and returns its reference.
func (h *CatalogHandler) upload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", domain.Validationf("invalid %s upload", field)
	}
	defer file.Close()
	return h.blobs.Put(r.Context(), header.Filename, file)
}

// discard removes uploads whose game was never created.
func (h *CatalogHandler) discard(ctx context.Context, refs ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := h.blobs.Delete(ctx, ref); err != nil {
			zap.L().Warn("failed to remove orphaned upload", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func formDecimal(r *http.Request, field string) (decimal.Decimal, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.Validationf("%s must be a number", field)
	}
	return d, nil
}

// AddGame godoc
//
//	@Summary		Add a game to the catalog
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			title				formData	string	true	"Title"
//	@Param			category			formData	string	false	"Category"
//	@Param			winning_percentage	formData	string	false	"Winning percentage, 0 to 100"
//	@Param			min_bet				formData	string	false	"Minimum bet"
//	@Param			max_bet				formData	string	false	"Maximum bet"
//	@Param			thumbnail			formData	file	false	"Thumbnail image"
//	@Param			game_file			formData	file	false	"Game bundle"
//	@Success		201					{object}	dto.GameResponseDTO
//	@Failure		400					{object}	utils.Response	"Invalid form"
//	@Failure		401					{object}	utils.Response	"Not authorized"
//	@Failure		403					{object}	utils.Response	"Role not allowed"
//	@Failure		413					{object}	utils.Response	"Upload too large"
//	@Failure		422					{object}	utils.Response	"Validation failed"
//	@Failure		502					{object}	utils.Response	"Upload could not be stored"
//	@Failure		500					{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/games [post]
func (h *CatalogHandler) AddGame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit+formOverhead)
	if err := r.ParseMultipartForm(h.uploadLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	game := &domain.Game{
		Title:    r.FormValue("title"),
		Category: r.FormValue("category"),
	}
	var err error
	if game.WinningPercentage, err = formDecimal(r, "winning_percentage"); err != nil {
		httperr.Respond(w, err)
		return
	}
	if game.MinBet, err = formDecimal(r, "min_bet"); err != nil {
		httperr.Respond(w, err)
		return
	}
	if game.MaxBet, err = formDecimal(r, "max_bet"); err != nil {
		httperr.Respond(w, err)
		return
	}
	if err = h.catalogService.CheckGame(game); err != nil {
		httperr.Respond(w, err)
		return
	}

	if game.Thumbnail, err = h.upload(r, "thumbnail"); err != nil {
		httperr.Respond(w, err)
		return
	}
	if game.GameFile, err = h.upload(r, "game_file"); err != nil {
		h.discard(r.Context(), game.Thumbnail)
		httperr.Respond(w, err)
		return
	}

	created, err := h.catalogService.AddGame(r.Context(), game)
	if err != nil {
		h.discard(r.Context(), game.Thumbnail, game.GameFile)
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, gameResponse(created))
}

func parseStatus(w http.ResponseWriter, r *http.Request) (int, bool, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid id")
		return 0, false, false
	}
	var body dto.SetStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return 0, false, false
	}
	return id, body.Active, true
}

// SetGameStatus godoc
//
//	@Summary		Enable or disable a game
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Game id"
//	@Param			request	body		dto.SetStatusRequestDTO	true	"New status"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		404		{object}	utils.Response	"Game not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/games/{id}/status [put]
func (h *CatalogHandler) SetGameStatus(w http.ResponseWriter, r *http.Request) {
	id, active, ok := parseStatus(w, r)
	if !ok {
		return
	}
	if err := h.catalogService.SetGameActive(r.Context(), id, active); err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Game status updated"})
}

// ListPaymentMethods godoc
//
//	@Summary		List payment methods accepted for deposits
//	@Tags			Catalog
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.PaymentMethodResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/payment-methods [get]
func (h *CatalogHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.catalogService.ListPaymentMethods(r.Context(), true)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	response := make([]dto.PaymentMethodResponseDTO, len(methods))
	for i := range methods {
		response[i] = paymentMethodResponse(&methods[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// AddPaymentMethod godoc
//
//	@Summary		Add a payment method
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PaymentMethodRequestDTO	true	"Payment method"
//	@Success		201		{object}	dto.PaymentMethodResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/payment-methods [post]
func (h *CatalogHandler) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var body dto.PaymentMethodRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := h.catalogService.AddPaymentMethod(r.Context(), &domain.PaymentMethod{
		Name:          body.Name,
		AccountNumber: body.AccountNumber,
		Instructions:  body.Instructions,
	})
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, paymentMethodResponse(created))
}

// SetPaymentMethodStatus godoc
//
//	@Summary		Enable or disable a payment method
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Payment method id"
//	@Param			request	body		dto.SetStatusRequestDTO	true	"New status"
//	@Success		200		{object}	utils.Response
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		404		{object}	utils.Response	"Payment method not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/payment-methods/{id}/status [put]
func (h *CatalogHandler) SetPaymentMethodStatus(w http.ResponseWriter, r *http.Request) {
	id, active, ok := parseStatus(w, r)
	if !ok {
		return
	}
	if err := h.catalogService.SetPaymentMethodActive(r.Context(), id, active); err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Payment method status updated"})
}
