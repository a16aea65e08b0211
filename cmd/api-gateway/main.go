package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/program-catalog-api/api/swagger"
	"github.com/noah-isme/program-catalog-api/internal/authz"
	"github.com/noah-isme/program-catalog-api/internal/handler"
	"github.com/noah-isme/program-catalog-api/internal/repository"
	"github.com/noah-isme/program-catalog-api/internal/router"
	"github.com/noah-isme/program-catalog-api/internal/service"
	"github.com/noah-isme/program-catalog-api/pkg/cache"
	"github.com/noah-isme/program-catalog-api/pkg/config"
	"github.com/noah-isme/program-catalog-api/pkg/database"
	"github.com/noah-isme/program-catalog-api/pkg/events"
	"github.com/noah-isme/program-catalog-api/pkg/jobs"
	"github.com/noah-isme/program-catalog-api/pkg/logger"
)

// @title Program Catalog API
// @version 1.0.0
// @description Administration API for study programs, modules, lecturers and scheduler constraints
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var redisClient *redis.Client
	var cacheSvc *service.ListingCache
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("cache disabled: redis unavailable", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewListingCache(cacheRepo, metricsSvc, cfg.Cache.TTL, logr)
		}
	}

	publisher := newPublisher(cfg, logr)
	defer publisher.Close() //nolint:errcheck

	policy, err := authz.NewPolicy(cfg.Authz.ReadOverrides, cfg.Authz.LecturerSelfFields)
	if err != nil {
		logr.Sugar().Fatalw("invalid authorization policy", "error", err)
	}

	users := repository.NewUserRepository(db)
	audits := service.NewAuditDispatcher(repository.NewAuditRepository(db), jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: 2,
		Logger:     logr,
	})
	audits.Start(context.Background())
	defer audits.Stop()
	lecturers := repository.NewLecturerRepository(db)
	programs := repository.NewProgramRepository(db)
	specializations := repository.NewSpecializationRepository(db)
	modules := repository.NewModuleRepository(db)
	groups := repository.NewGroupRepository(db)
	rooms := repository.NewRoomRepository(db)
	domains := repository.NewDomainRepository(db)
	constraintTypes := repository.NewConstraintTypeRepository(db)
	constraints := repository.NewSchedulerConstraintRepository(db)
	availability := repository.NewAvailabilityRepository(db)

	evaluator := authz.NewEvaluator(policy, authz.NewOwnershipResolver(programs))
	authorizer := service.NewInstrumentedAuthorizer(evaluator, metricsSvc, logr)
	validate := validator.New()

	authSvc := service.NewAuthService(users, audits, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	handlers := router.Handlers{
		Auth:           handler.NewAuthHandler(authSvc),
		Account:        handler.NewAccountHandler(service.NewAccountService(users, lecturers, authorizer, validate, logr)),
		Lecturer:       handler.NewLecturerHandler(service.NewLecturerService(lecturers, domains, modules, authorizer, validate, logr)),
		Program:        handler.NewProgramHandler(service.NewProgramService(programs, lecturers, authorizer, validate, logr)),
		Specialization: handler.NewSpecializationHandler(service.NewSpecializationService(specializations, programs, authorizer, validate, logr)),
		Module:         handler.NewModuleHandler(service.NewModuleService(modules, programs, specializations, authorizer, validate, logr)),
		Group:          handler.NewGroupHandler(service.NewGroupService(groups, authorizer, validate, logr)),
		Room:           handler.NewRoomHandler(service.NewRoomService(rooms, cacheSvc, authorizer, validate, logr)),
		Domain:         handler.NewDomainHandler(service.NewDomainService(domains, authorizer, logr)),
		Constraint: handler.NewConstraintHandler(service.NewConstraintService(
			constraintTypes, constraints, cacheSvc, publisher, metricsSvc, authorizer, validate, logr,
		)),
		Availability: handler.NewAvailabilityHandler(service.NewAvailabilityService(
			availability, lecturers, publisher, metricsSvc, authorizer, logr,
		)),
		Metrics: handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient)),
	}

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
	}, handlers, router.Dependencies{
		Tokens:  authSvc,
		Audit:   audits,
		Metrics: metricsSvc,
		Logger:  logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newPublisher(cfg *config.Config, logr *zap.Logger) events.Publisher {
	if !cfg.Events.Enabled {
		return events.NopPublisher{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.Events, logr)
	if err != nil {
		logr.Warn("events disabled: broker unavailable", zap.Error(err))
		return events.NopPublisher{}
	}
	return publisher
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["cache"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
