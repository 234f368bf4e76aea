// @title        User Service API
// @version      1.0
// @description  User accounts, login and role-based administration.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	"github.com/fidcar/user-service/internal/api"
	"github.com/fidcar/user-service/internal/api/handler"
	"github.com/fidcar/user-service/internal/core/ports"
	"github.com/fidcar/user-service/internal/core/service"
	"github.com/fidcar/user-service/internal/infrastructure/auth"
	"github.com/fidcar/user-service/internal/infrastructure/config"
	mongostore "github.com/fidcar/user-service/internal/infrastructure/db/mongo"
	redisstore "github.com/fidcar/user-service/internal/infrastructure/db/redis"
	"github.com/fidcar/user-service/internal/infrastructure/db/sqlstore"
	"github.com/fidcar/user-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "user-service: %v\n", err)
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
		Pretty:  !cfg.IsProduction(),
		Service: "user-service",
	})

	repo, storeCheck, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	revoker := redisstore.NewTokenRevoker(rdb, cfg.JWTTTL)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	userService := service.NewUserService(repo, hasher, revoker, cfg.UsersPageSize, logger.Component("user_service"))
	authService := service.NewAuthService(repo, hasher, cfg.JWTSecret, cfg.JWTTTL, logger.Component("auth_service"))

	if cfg.Bootstrap.AdminEmail != "" {
		admin, created, err := userService.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info().Str("user_id", admin.ID).Bool("created", created).Msg("bootstrap admin ready")
	}

	router := api.NewRouter(api.Deps{
		Users:       userService,
		Auth:        authService,
		JWTSecret:   cfg.JWTSecret,
		Revocations: revoker,
		Checks: []handler.DependencyCheck{
			storeCheck,
			{Name: "redis", Ping: func(ctx context.Context) error {
				return redisstore.Ping(ctx, rdb, 2*time.Second)
			}},
		},
		Log: logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		log.Info().Msg("server stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	}
}

// openStore connects the User Store selected by STORE_DRIVER and returns it
// with its readiness check and a close function.
func openStore(ctx context.Context, cfg *config.Config) (ports.UserRepository, handler.DependencyCheck, func(), error) {
	log := logger.Component("store")

	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, handler.DependencyCheck{}, nil, err
		}
		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = mongostore.Disconnect(client)
			return nil, handler.DependencyCheck{}, nil, err
		}
		check := handler.DependencyCheck{Name: "mongodb", Ping: func(ctx context.Context) error {
			return mongostore.Ping(ctx, db)
		}}
		return repo, check, closer(log, "mongodb", func() error { return mongostore.Disconnect(client) }), nil

	default:
		db, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver: cfg.Store.Driver,
			DSN:    cfg.Store.DSN,
			Debug:  cfg.LogLevel == "debug" || cfg.LogLevel == "trace",
		}, log)
		if err != nil {
			return nil, handler.DependencyCheck{}, nil, err
		}
		check := handler.DependencyCheck{Name: cfg.Store.Driver, Ping: func(ctx context.Context) error {
			return sqlstore.Ping(ctx, db)
		}}
		return sqlstore.NewUserRepository(db), check, closer(log, cfg.Store.Driver, func() error { return sqlstore.Close(db) }), nil
	}
}

func closer(log zerolog.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Warn().Err(err).Str("store", name).Msg("close failed")
		}
	}
}
