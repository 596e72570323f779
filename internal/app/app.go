package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mariabakes/breads-rest-api/internal/config"
	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/health"
	"github.com/mariabakes/breads-rest-api/internal/http/handler"
	"github.com/mariabakes/breads-rest-api/internal/http/middleware"
	"github.com/mariabakes/breads-rest-api/internal/http/router"
	"github.com/mariabakes/breads-rest-api/internal/mailer"
	"github.com/mariabakes/breads-rest-api/internal/observability"
	"github.com/mariabakes/breads-rest-api/internal/repository"
	"github.com/mariabakes/breads-rest-api/internal/security"
	"github.com/mariabakes/breads-rest-api/internal/service"
)

// App holds every long-lived component. Build wires them, Run drives them.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Cron          *cron.Cron
	MailWorker    *mailer.Worker
}

func Build(cfg *config.Config, runtime *observability.Runtime) (*App, error) {
	logger := runtime.Logger

	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	bakeries := repository.NewBakeryRepository(db)
	breads := repository.NewBreadRepository(db)
	tags := repository.NewTagRepository(db)

	var mailWorker *mailer.Worker
	var enqueuer mailer.Enqueuer
	if cfg.SendgridAPIKey != "" {
		sender := mailer.NewSendgridSender(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFromAddress)
		mailWorker = mailer.NewWorker(sender, cfg.MailQueueSize, logger)
		enqueuer = mailWorker
	} else {
		logger.Info("sendgrid not configured, registration emails disabled")
	}

	authSvc := service.NewAuthService(jwtMgr, users, tokens, enqueuer, service.AuthConfig{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		FailClosed: cfg.RevocationFailClosed,
	})

	checks := []health.Check{health.DatabaseCheck(db)}
	if rdb != nil {
		checks = append(checks, health.RedisCheck(rdb))
	}

	deps := router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc),
		BakeryHandler:    handler.NewBakeryHandler(service.NewBakeryService(bakeries)),
		BreadHandler:     handler.NewBreadHandler(service.NewBreadService(breads, bakeries, tags)),
		TagHandler:       handler.NewTagHandler(service.NewTagService(tags, bakeries)),
		UserHandler:      handler.NewUserHandler(service.NewUserService(users)),
		JWTManager:       jwtMgr,
		Gate:             authSvc,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		Readiness:        health.NewProbeRunner(2*time.Second, checks...),
		EnableOTelHTTP:   cfg.EnableOTelHTTP,
	}
	if rdb != nil {
		// with redis available the auth budget is shared across replicas and
		// keyed per subject where a valid bearer token is presented
		deps.AuthRateLimiter = middleware.NewDistributedRateLimiterWithKey(
			middleware.NewRedisSlidingWindowLimiter(rdb, "ratelimit:auth"),
			cfg.AuthRateLimitRPM,
			time.Minute,
			middleware.FailOpen,
			"auth",
			middleware.SubjectOrIPKeyFunc(jwtMgr),
		).Middleware()
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.LedgerSweepSchedule, func() {
		rows, err := tokens.DeleteExpired()
		if err != nil {
			logger.Error("ledger sweep failed", "error", err)
			return
		}
		observability.RecordLedgerSweep(rows)
		logger.Info("ledger sweep complete", "rows_deleted", rows)
	}); err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         rdb,
		Cron:          c,
		MailWorker:    mailWorker,
	}, nil
}

// Run serves until ctx is cancelled, then shuts everything down in order:
// HTTP drain, cron, mail queue drain, observability flush.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.Cron.Start()

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if a.MailWorker != nil {
		g.Go(func() error {
			if err := a.MailWorker.Run(gctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("http shutdown", "error", err)
		}
		<-a.Cron.Stop().Done()
		return nil
	})

	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.Redis != nil {
		if cerr := a.Redis.Close(); cerr != nil {
			a.Logger.Error("redis close", "error", cerr)
		}
	}
	if serr := a.Observability.Shutdown(flushCtx); serr != nil {
		a.Logger.Error("observability shutdown", "error", serr)
	}
	return err
}

func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Token{},
		&domain.Bakery{},
		&domain.Bread{},
		&domain.Tag{},
	)
}
