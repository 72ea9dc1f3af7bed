package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/glacierai/auth-service/internal/api"
	"github.com/glacierai/auth-service/internal/core/domain"
	"github.com/glacierai/auth-service/internal/core/ports"
	"github.com/glacierai/auth-service/internal/core/service"
	"github.com/glacierai/auth-service/internal/infrastructure/config"
	"github.com/glacierai/auth-service/internal/infrastructure/db/memory"
	mongodb "github.com/glacierai/auth-service/internal/infrastructure/db/mongo"
	redisdb "github.com/glacierai/auth-service/internal/infrastructure/db/redis"
	"github.com/glacierai/auth-service/internal/infrastructure/http/handlers"
	"github.com/glacierai/auth-service/internal/infrastructure/queue"
	"github.com/glacierai/auth-service/internal/infrastructure/security"
	"github.com/glacierai/auth-service/pkg/logger"
)

const serviceName = "auth-service"

// @title                       Auth Service API
// @version                     1.0
// @description                 Registration, login, token refresh and token validation.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	checks := make(map[string]handlers.Check)

	// --- Storage ---
	var (
		users     ports.UserDirectory
		auditRepo ports.AuditRepository
	)
	switch cfg.Store {
	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}()

		userDir := mongodb.NewUserDirectory(db)
		events := mongodb.NewAuditRepository(db)
		if err := mongodb.EnsureIndexes(ctx, userDir, events); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		users, auditRepo = userDir, events
		checks["mongodb"] = handlers.MongoCheck(db)
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	default:
		users, auditRepo = memory.NewUserDirectory(), memory.NewAuditLog()
		log.Warn().Msg("using in-memory store; users are lost on restart")
	}

	// --- Security ---
	codec, err := security.NewJWTCodec(security.JWTConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.JWT.BcryptCost)

	opts := []service.AuthOption{service.WithStrictTokenTypes(cfg.JWT.StrictTypes)}

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			// The directory's unique constraint still rejects duplicates.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, registering without email claims")
		} else {
			defer rdb.Close()
			opts = append(opts, service.WithEmailClaimer(redisdb.NewEmailClaimer(rdb, cfg.Redis.ClaimTTL)))
			checks["redis"] = handlers.RedisCheck(rdb)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		}
	}

	// --- Audit trail ---
	auditLog := logger.Component("audit")
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, cfg.Audit.Buffer, service.NewAuditService(auditRepo, auditLog), auditLog)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher.Start(workerCtx)
	opts = append(opts, service.WithAuditPublisher(dispatcher))

	authService := service.NewAuthService(users, hasher, codec, logger.Component("auth"), opts...)

	if cfg.Seed.Enabled() {
		created, err := authService.EnsureUser(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Seed.AdminName, domain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Info().Bool("created", created).Str("email", cfg.Seed.AdminEmail).Msg("admin seed checked")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		AuthService: authService,
		Checks:      checks,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger.Component("http"),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	// In-flight requests are done; flush what they published.
	dispatcher.Close()
	log.Info().Uint64("audit_dropped", dispatcher.Dropped()).Msg("server stopped")
	return nil
}
