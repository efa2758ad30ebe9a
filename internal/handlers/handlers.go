package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/playcash/docs"
	"github.com/GlebRadaev/playcash/internal/domain"
	accounthandlers "github.com/GlebRadaev/playcash/internal/handlers/account"
	adminhandlers "github.com/GlebRadaev/playcash/internal/handlers/admin"
	authhandlers "github.com/GlebRadaev/playcash/internal/handlers/auth"
	cataloghandlers "github.com/GlebRadaev/playcash/internal/handlers/catalog"
	requesthandlers "github.com/GlebRadaev/playcash/internal/handlers/requests"
	"github.com/GlebRadaev/playcash/internal/service"
	"github.com/GlebRadaev/playcash/pkg/auth"
	"github.com/GlebRadaev/playcash/pkg/metrics"
	"github.com/GlebRadaev/playcash/pkg/ratelimit"
	"github.com/GlebRadaev/playcash/pkg/storage"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	AdminLogin(w http.ResponseWriter, r *http.Request)
	ChangePassword(w http.ResponseWriter, r *http.Request)
	ChangeUsername(w http.ResponseWriter, r *http.Request)
}

type AccountHandler interface {
	GetAccount(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	GetReferrals(w http.ResponseWriter, r *http.Request)
}

type RequestHandler interface {
	SubmitDeposit(w http.ResponseWriter, r *http.Request)
	SubmitWithdrawal(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListAll(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)
}

type CatalogHandler interface {
	ListGames(w http.ResponseWriter, r *http.Request)
	GetGame(w http.ResponseWriter, r *http.Request)
	ListAllGames(w http.ResponseWriter, r *http.Request)
	AddGame(w http.ResponseWriter, r *http.Request)
	SetGameStatus(w http.ResponseWriter, r *http.Request)
	ListPaymentMethods(w http.ResponseWriter, r *http.Request)
	AddPaymentMethod(w http.ResponseWriter, r *http.Request)
	SetPaymentMethodStatus(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	Dashboard(w http.ResponseWriter, r *http.Request)
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)
	SetBalance(w http.ResponseWriter, r *http.Request)
	SetUserStatus(w http.ResponseWriter, r *http.Request)
	ListUsers(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler    AuthHandler
	AccountHandler AccountHandler
	RequestHandler RequestHandler
	CatalogHandler CatalogHandler
	AdminHandler   AdminHandler

	auth    *auth.Middleware
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
}

// New builds the HTTP layer. limiter may be nil, in which case submissions
// are not throttled.
func New(
	s *service.Services,
	blobs storage.BlobStore,
	authMiddleware *auth.Middleware,
	limiter *ratelimit.Limiter,
	m *metrics.Metrics,
) *Handlers {
	return &Handlers{
		AuthHandler:    authhandlers.New(s.AuthService),
		AccountHandler: accounthandlers.New(s.AccountService),
		RequestHandler: requesthandlers.New(s.RequestService, blobs),
		CatalogHandler: cataloghandlers.New(s.CatalogService, blobs),
		AdminHandler:   adminhandlers.New(s.DashboardService, s.SettingsService, s.AccountService, s.AuthService),
		auth:           authMiddleware,
		limiter:        limiter,
		metrics:        m,
	}
}

func submissionKey(r *http.Request) string {
	if id, ok := auth.UserID(r.Context()); ok {
		return "submit:" + strconv.Itoa(id)
	}
	return "submit:" + r.RemoteAddr
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Handle("/metrics", h.metrics.Handler())

	superAdmin := string(domain.RoleSuperAdmin)
	paymentRoles := []string{superAdmin, string(domain.RolePaymentManager)}
	gameRoles := []string{superAdmin, string(domain.RoleGameManager)}

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireUser)
			r.Put("/password", h.AuthHandler.ChangePassword)
			r.Put("/username", h.AuthHandler.ChangeUsername)
			r.Get("/account", h.AccountHandler.GetAccount)
			r.Get("/transactions", h.AccountHandler.GetTransactions)
			r.Get("/referrals", h.AccountHandler.GetReferrals)
			r.Get("/requests", h.RequestHandler.ListMine)
			r.Get("/games", h.CatalogHandler.ListGames)
			r.Get("/games/{id}", h.CatalogHandler.GetGame)
			r.Get("/payment-methods", h.CatalogHandler.ListPaymentMethods)

			r.Group(func(r chi.Router) {
				r.Use(h.limiter.Middleware(submissionKey))
				r.Post("/deposits", h.RequestHandler.SubmitDeposit)
				r.Post("/withdrawals", h.RequestHandler.SubmitWithdrawal)
			})
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.AuthHandler.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin())
			r.Get("/dashboard", h.AdminHandler.Dashboard)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin(paymentRoles...))
			r.Get("/requests", h.RequestHandler.ListAll)
			r.Post("/requests/{id}/resolve", h.RequestHandler.Resolve)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin(gameRoles...))
			r.Get("/games", h.CatalogHandler.ListAllGames)
			r.Post("/games", h.CatalogHandler.AddGame)
			r.Put("/games/{id}/status", h.CatalogHandler.SetGameStatus)
			r.Post("/payment-methods", h.CatalogHandler.AddPaymentMethod)
			r.Put("/payment-methods/{id}/status", h.CatalogHandler.SetPaymentMethodStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireAdmin(superAdmin))
			r.Get("/settings", h.AdminHandler.GetSettings)
			r.Put("/settings", h.AdminHandler.UpdateSettings)
			r.Get("/users", h.AdminHandler.ListUsers)
			r.Put("/users/{id}/password", h.AdminHandler.ResetPassword)
			r.Put("/users/{id}/balance", h.AdminHandler.SetBalance)
			r.Put("/users/{id}/status", h.AdminHandler.SetUserStatus)
		})
	})

	return r
}
