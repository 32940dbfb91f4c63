package factory

import (
	"context"
	"fmt"
	"net/http"

	"blogflow/internal/api"
	"blogflow/internal/auth"
	"blogflow/internal/concurrent"
	"blogflow/internal/config"
	"blogflow/internal/database"
	"blogflow/internal/domain"
	"blogflow/internal/repository"
	"blogflow/internal/repository/memory"
	"blogflow/internal/service"
	pkgdb "blogflow/pkg/database"
	"blogflow/pkg/logger"
)

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetStore() domain.Store
	GetWorkerPool() *concurrent.WorkerPool

	GetUserService() domain.UserService
	GetFollowService() domain.FollowService
	GetArticleService() domain.ArticleService

	Handler() http.Handler
	Migrate(ctx context.Context) error
	Close() error
}

type AppFactory struct {
	config      *config.Config
	logger      logger.Logger
	connManager *pkgdb.ConnectionManager
	store       domain.Store
	workerPool  *concurrent.WorkerPool

	resolver *auth.Resolver

	userService    domain.UserService
	followService  domain.FollowService
	articleService domain.ArticleService
}

// NewFactory opens the configured store and wires every component. The
// worker pool is started; Close stops it and releases the database.
func NewFactory(cfg *config.Config, log logger.Logger) (*AppFactory, error) {
	f := &AppFactory{
		config: cfg,
		logger: log,
	}

	if err := f.initStore(); err != nil {
		return nil, err
	}

	f.workerPool = concurrent.NewWorkerPool(cfg.Views.Workers, cfg.Views.QueueSize, log)
	f.workerPool.Start()

	f.initServices()

	return f, nil
}

func (f *AppFactory) initStore() error {
	if f.config.Database.Driver == config.DriverMemory {
		f.logger.Warn("Using in-memory store, data is lost on exit", nil)
		f.store = memory.NewStore()
		return nil
	}

	cm, err := pkgdb.NewConnectionManager(f.config.Database, f.logger)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	f.connManager = cm
	f.store = repository.NewSQLStore(cm.DB(), f.logger)
	return nil
}

func (f *AppFactory) initServices() {
	authCfg := f.config.Auth

	hasher := auth.NewBcryptHasher(authCfg.BcryptCost)
	accessTokens := auth.NewJWTProvider([]byte(authCfg.AccessSecret), authCfg.AccessTTL, authCfg.Issuer, auth.TokenTypeAccess)
	refreshTokens := auth.NewJWTProvider([]byte(authCfg.RefreshSecret), authCfg.RefreshTTL, authCfg.Issuer, auth.TokenTypeRefresh)

	f.resolver = auth.NewResolver(accessTokens, f.store.Users())

	auditLogService := service.NewAuditLogService(f.logger)

	f.userService = service.NewUserService(f.store, hasher, accessTokens, refreshTokens, auditLogService, f.logger)
	f.followService = service.NewFollowService(f.store, auditLogService, f.logger)
	f.articleService = service.NewArticleService(f.store, f.workerPool, auditLogService, f.logger)
}

// Migrate applies pending schema migrations. The in-memory store has no schema.
func (f *AppFactory) Migrate(ctx context.Context) error {
	if f.connManager == nil {
		return nil
	}

	dialect, err := database.DialectFor(f.connManager.Driver())
	if err != nil {
		return err
	}

	return database.NewMigrationService(f.connManager.DB(), dialect, f.logger).RunMigrations(ctx)
}

func (f *AppFactory) Handler() http.Handler {
	var dbStats func() map[string]interface{}
	if f.connManager != nil {
		dbStats = f.connManager.GetStats
	}

	return api.NewRouter(api.Handlers{
		Users:    api.NewUserHandler(f.userService, f.logger),
		Follows:  api.NewFollowHandler(f.followService, f.logger),
		Articles: api.NewArticleHandler(f.articleService, f.logger),
		Health:   api.NewHealthHandler(f.store, f.workerPool, dbStats, f.logger),
		Resolver: f.resolver,
	}, f.logger)
}

// Close drains the worker pool before closing the database so accepted
// view increments are written.
func (f *AppFactory) Close() error {
	f.workerPool.Stop()

	if f.connManager != nil {
		return f.connManager.Close()
	}
	return nil
}

func (f *AppFactory) GetLogger() logger.Logger              { return f.logger }
func (f *AppFactory) GetConfig() *config.Config             { return f.config }
func (f *AppFactory) GetStore() domain.Store                { return f.store }
func (f *AppFactory) GetWorkerPool() *concurrent.WorkerPool { return f.workerPool }

func (f *AppFactory) GetUserService() domain.UserService       { return f.userService }
func (f *AppFactory) GetFollowService() domain.FollowService   { return f.followService }
func (f *AppFactory) GetArticleService() domain.ArticleService { return f.articleService }
