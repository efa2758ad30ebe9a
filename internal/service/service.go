package service

import (
	"time"

	"github.com/GlebRadaev/playcash/internal/pg"
	"github.com/GlebRadaev/playcash/internal/repo"
	"github.com/GlebRadaev/playcash/internal/service/accountservice"
	"github.com/GlebRadaev/playcash/internal/service/authservice"
	"github.com/GlebRadaev/playcash/internal/service/catalogservice"
	"github.com/GlebRadaev/playcash/internal/service/dashboardservice"
	"github.com/GlebRadaev/playcash/internal/service/requestservice"
	"github.com/GlebRadaev/playcash/internal/service/settingsservice"
	"github.com/GlebRadaev/playcash/pkg/auth"
	"github.com/GlebRadaev/playcash/pkg/metrics"
)

type Services struct {
	AuthService      *authservice.Service
	AccountService   *accountservice.Service
	RequestService   *requestservice.Service
	SettingsService  *settingsservice.Service
	CatalogService   *catalogservice.Service
	DashboardService *dashboardservice.Service
}

func New(
	repos *repo.Repositories,
	txManager pg.TXManager,
	jwtService auth.JWTServiceInterface,
	m *metrics.Metrics,
	tokenTTL time.Duration,
) *Services {
	settingsService := settingsservice.New(repos.SettingsRepo)

	return &Services{
		AuthService: authservice.New(
			repos.UserRepo,
			repos.AdminRepo,
			repos.AccountRepo,
			repos.LedgerRepo,
			settingsService,
			txManager,
			auth.NewHashService(0),
			jwtService,
			tokenTTL,
		),
		AccountService:   accountservice.New(repos.AccountRepo, repos.LedgerRepo, txManager, m),
		RequestService:   requestservice.New(repos.RequestRepo, repos.AccountRepo, repos.LedgerRepo, settingsService, txManager, m),
		SettingsService:  settingsService,
		CatalogService:   catalogservice.New(repos.CatalogRepo),
		DashboardService: dashboardservice.New(repos.AccountRepo, repos.CatalogRepo, repos.RequestRepo),
	}
}
