// Command api runs the course marketplace HTTP API.
//
// @title                       Course Marketplace API
// @version                     1.0
// @description                 Users, courses, payments and enrollments with role-based access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/coursehub/marketplace/docs"
	"github.com/coursehub/marketplace/internal/api"
	"github.com/coursehub/marketplace/internal/api/handler"
	"github.com/coursehub/marketplace/internal/api/metrics"
	"github.com/coursehub/marketplace/internal/core/auth"
	"github.com/coursehub/marketplace/internal/core/ports"
	"github.com/coursehub/marketplace/internal/core/service"
	"github.com/coursehub/marketplace/internal/infrastructure/db/mongo"
	"github.com/coursehub/marketplace/internal/infrastructure/db/redis"
	"github.com/coursehub/marketplace/internal/infrastructure/payment"
	"github.com/coursehub/marketplace/internal/infrastructure/queue"
	"github.com/coursehub/marketplace/internal/pkg/config"
	"github.com/coursehub/marketplace/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("api exited")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "course-marketplace",
		Env:     cfg.Env,
	})

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(closeCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	userRepo := mongo.NewUserRepository(db)
	courseRepo := mongo.NewCourseRepository(db)
	paymentRepo := mongo.NewPaymentRepository(db)
	enrollmentRepo := mongo.NewEnrollmentRepository(db)
	if err := mongo.EnsureIndexes(ctx, userRepo, courseRepo, paymentRepo, enrollmentRepo); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}()

	// --- Auth ---
	tokenCfg, err := auth.NewTokenConfig(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("token config: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	// --- Payments and enrollments ---
	var gateway ports.PaymentGateway
	if cfg.Payment.StripeAPIKey != "" {
		gateway = payment.NewStripeGateway(cfg.Payment.StripeAPIKey)
		log.Info().Msg("payment gateway: stripe")
	} else {
		gateway = payment.NewMemoryGateway()
		log.Warn().Msg("STRIPE_API_KEY not set, payments use the in-memory gateway")
	}

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, log)
	dispatcher := queue.NewDispatcher(cfg.Enrollment.Workers, enrollmentSvc, metrics.QueueRecorder{}, log)
	dispatcher.Start(context.WithoutCancel(ctx))

	paymentSvc := service.NewPaymentService(
		paymentRepo,
		courseRepo,
		gateway,
		redis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL),
		dispatcher,
		cfg.Payment.Currency,
		log,
	)

	router := api.NewRouter(api.Dependencies{
		Auth:        service.NewAuthService(userRepo, hasher, auth.NewTokenIssuer(tokenCfg), tokenCfg.DefaultTTL(), log),
		Users:       service.NewUserService(userRepo, hasher, log),
		Courses:     service.NewCourseService(courseRepo, enrollmentRepo, log),
		Payments:    paymentSvc,
		Enrollments: enrollmentSvc,
		Tokens:      auth.NewTokenValidator(tokenCfg),
		Probes: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(mongo.Pinger(db)),
			"redis":   handler.PingFunc(redis.Pinger(rdb)),
		},
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server crashed: %w", err)
	}

	return shutdown(srv, dispatcher, log)
}

// shutdown stops taking requests first so no new grants are queued, then
// drains the dispatcher.
func shutdown(srv *http.Server, dispatcher *queue.Dispatcher, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = srv.Close()
	}
	if err := dispatcher.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("enrollment dispatcher did not drain")
	}

	log.Info().Msg("shutdown complete")
	return nil
}
