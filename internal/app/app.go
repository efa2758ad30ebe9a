package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/internal/config"
	"github.com/GlebRadaev/playcash/internal/handlers"
	"github.com/GlebRadaev/playcash/internal/pg"
	"github.com/GlebRadaev/playcash/internal/reconcile"
	"github.com/GlebRadaev/playcash/internal/repo"
	"github.com/GlebRadaev/playcash/internal/service"
	"github.com/GlebRadaev/playcash/pkg/auth"
	"github.com/GlebRadaev/playcash/pkg/clients"
	"github.com/GlebRadaev/playcash/pkg/logger"
	"github.com/GlebRadaev/playcash/pkg/metrics"
	"github.com/GlebRadaev/playcash/pkg/ratelimit"
	"github.com/GlebRadaev/playcash/pkg/storage"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg     *config.Config
	api     *handlers.Handlers
	srv     *service.Services
	repo    *repo.Repositories
	checker *reconcile.Service
	redis   *redis.Client

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(ctx, pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	conn := pg.New(pool)
	m := metrics.New()
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	a.cfg = cfg
	a.repo = repo.New(conn)
	a.srv = service.New(a.repo, txManager, jwtService, m, cfg.TokenTTL)
	if err := a.srv.AuthService.EnsureAdmin(ctx, cfg.AdminLogin, cfg.AdminPassword); err != nil {
		return fmt.Errorf("can't create bootstrap admin: %w", err)
	}

	a.api = handlers.New(a.srv, a.blobStore(), auth.NewMiddleware(jwtService), a.rateLimiter(), m)
	a.checker = reconcile.New(cfg.ReconcileInterval, cfg.ReconcileWorkers, a.repo.AccountRepo, m)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startReconciler(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) blobStore() storage.BlobStore {
	if a.cfg.BlobStoreURL != "" {
		zap.L().Info("uploads go to remote blob store", zap.String("url", a.cfg.BlobStoreURL))
		return storage.NewHTTPStore(a.cfg.BlobStoreURL, clients.NewHTTPClient())
	}
	zap.L().Info("uploads go to local disk", zap.String("dir", a.cfg.UploadDir))
	return storage.NewLocalStore(a.cfg.UploadDir)
}

// rateLimiter returns nil when no redis address is configured.
func (a *Application) rateLimiter() *ratelimit.Limiter {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	return ratelimit.New(ratelimit.NewRedisStore(a.redis), a.cfg.RateLimit, a.cfg.RateWindow)
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:    a.cfg.Address,
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
		if a.redis != nil {
			a.redis.Close()
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startReconciler(ctx context.Context) {
	a.checker.Start(ctx)
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
