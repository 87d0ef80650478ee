package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/pinboard/internal/api/http"
	"github.com/spec-kit/pinboard/internal/api/http/handlers"
	"github.com/spec-kit/pinboard/internal/auth"
	"github.com/spec-kit/pinboard/internal/config"
	"github.com/spec-kit/pinboard/internal/events"
	"github.com/spec-kit/pinboard/internal/observability"
	"github.com/spec-kit/pinboard/internal/persistence"
	"github.com/spec-kit/pinboard/internal/repository"
	"github.com/spec-kit/pinboard/internal/service"
	"github.com/spec-kit/pinboard/internal/session"
	"github.com/spec-kit/pinboard/internal/upload"
	"github.com/spec-kit/pinboard/internal/views"
	"github.com/spec-kit/pinboard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		userRepo repository.UserRepository
		postRepo repository.PostRepository
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pg.PoolHandle())
		postRepo = repository.NewPostRepository(pg.PoolHandle())
	} else {
		logger.Info("using in-memory user and post repositories")
		mem := repository.NewMemory()
		userRepo = mem.Users()
		postRepo = mem.Posts()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	sessions := session.NewStore(redis.Client, cfg.Auth.SessionKeyPrefix, cfg.Auth.SessionTTL())

	uploads, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes, logger)
	if err != nil {
		logger.Fatal("failed to prepare upload dir", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	activityService := service.NewActivityService(dispatcher, logger)
	worker.StartActivityWorker(activityService)
	worker.StartUploadJanitor(dispatcher, uploads, postRepo, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Sessions:   sessions,
		Dispatcher: dispatcher,
	})
	postService := service.NewPostService(service.PostDependencies{
		PostRepo:   postRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})

	cookie := auth.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	gate := auth.NewSessionGate(authService.TokenManager(), sessions, userRepo, cookie, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		Views:     views.NewEngine(),
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:    handlers.NewAuthHandler(authService, cookie),
		Pages:   handlers.NewPagesHandler(postService, cfg.Upload.PublicPath),
		Posts:   handlers.NewPostsHandler(postService, uploads, logger),
		Gate:    gate,
		Uploads: httptransport.StaticDir{Prefix: cfg.Upload.PublicPath, Root: uploads.Dir()},
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
