package repo

import (
	"github.com/GlebRadaev/playcash/internal/pg"
	accountrepo "github.com/GlebRadaev/playcash/internal/repo/account-repo"
	adminrepo "github.com/GlebRadaev/playcash/internal/repo/admin-repo"
	catalogrepo "github.com/GlebRadaev/playcash/internal/repo/catalog-repo"
	ledgerrepo "github.com/GlebRadaev/playcash/internal/repo/ledger-repo"
	requestrepo "github.com/GlebRadaev/playcash/internal/repo/request-repo"
	settingsrepo "github.com/GlebRadaev/playcash/internal/repo/settings-repo"
	userrepo "github.com/GlebRadaev/playcash/internal/repo/user-repo"
)

type Repositories struct {
	UserRepo     *userrepo.Repository
	AdminRepo    *adminrepo.Repository
	AccountRepo  *accountrepo.Repository
	RequestRepo  *requestrepo.Repository
	LedgerRepo   *ledgerrepo.Repository
	SettingsRepo *settingsrepo.Repository
	CatalogRepo  *catalogrepo.Repository
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		UserRepo:     userrepo.New(conn),
		AdminRepo:    adminrepo.New(conn),
		AccountRepo:  accountrepo.New(conn),
		RequestRepo:  requestrepo.New(conn),
		LedgerRepo:   ledgerrepo.New(conn),
		SettingsRepo: settingsrepo.New(conn),
		CatalogRepo:  catalogrepo.New(conn),
	}
}
