// Package server wires the marketplace together: storage backend, optional
// cache, image pipeline, mailer and services, then runs the HTTP API and the
// gRPC health endpoint until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/filex"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/config"
	"github.com/dmitrijs2005/carmarket/internal/server/images"
	"github.com/dmitrijs2005/carmarket/internal/server/mailer"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/cars"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/carmarket/internal/server/rest"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/carmarket/internal/server/grpc"
)

const (
	startupTimeout = 30 * time.Second
	healthInterval = 10 * time.Second
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	repos         repomanager.RepositoryManager
	redis         *redis.Client
	userService   *services.UserService
	carService    *services.CarService
	notifications *services.NotificationService
	pipeline      *images.Pipeline
	imageStore    images.Storage
	tempDir       string
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewForEnv(c.Env, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	repos, err := openRepositories(c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	app := &App{config: c, logger: logger, repos: repos}

	var carRepo cars.Repository = repos.Cars()
	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			app.close(ctx)
			return nil, fmt.Errorf("redis url: %w", err)
		}
		app.redis = redis.NewClient(opts)
		carRepo = cars.NewCachedRepository(carRepo, app.redis, c.CacheTTL, logger)
		logger.Info(ctx, "Listing cache enabled", "ttl", c.CacheTTL)
	}

	store, err := openImageStorage(ctx, c)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("image storage init error: %w", err)
	}

	tempDir, err := filex.EnsureDir(c.TempDir)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("temp dir: %w", err)
	}

	app.imageStore = store
	app.tempDir = tempDir
	app.pipeline = images.NewPipeline(store, c.ImageMaxWidth, int64(c.ImageMaxPixels), c.ImageQuality, logger)
	app.userService = services.NewUserService(repos.Users(), c)
	app.carService = services.NewCarService(carRepo)
	app.notifications = services.NewNotificationService(mailer.NewSMTPSender(c, logger), c.MailTo)

	return app, nil
}

func openRepositories(c *config.Config) (repomanager.RepositoryManager, error) {
	if c.IsMongo() {
		return repomanager.OpenMongo(c.DatabaseDSN, c.DatabaseName)
	}
	return repomanager.OpenPostgres(c.DatabaseDSN)
}

func openImageStorage(ctx context.Context, c *config.Config) (images.Storage, error) {
	switch c.ImageStorage {
	case config.ImageStorageS3:
		return images.NewS3Storage(ctx, c)
	case config.ImageStorageLocal, "":
		return images.NewLocalStorage(c.UploadDir)
	default:
		return nil, fmt.Errorf("unknown image storage %q", c.ImageStorage)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, rest.Deps{
		Users:         app.userService,
		Cars:          app.carService,
		Notifications: app.notifications,
		Images:        app.pipeline,
		ImageStore:    app.imageStore,
		Health:        app.repos,
		HealthTimeout: app.config.HealthTimeout,
		TempDir:       app.tempDir,
		MaxFileSize:   int64(app.config.MaxUploadSize),
		Logger:        app.logger,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.repos, healthInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	app.close(closeCtx)

	app.logger.Info(closeCtx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.repos.Close(ctx); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
}
