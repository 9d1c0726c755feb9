// @title           Multirole Auth API
// @version         1.0
// @description     Credential authentication and role-based authorization service.
// @BasePath        /
// @securityDefinitions.basic BasicAuth
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

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/term"

	"github.com/99minutos/multirole-auth/internal/api"
	"github.com/99minutos/multirole-auth/internal/api/handler"
	"github.com/99minutos/multirole-auth/internal/api/metrics"
	"github.com/99minutos/multirole-auth/internal/core/ports"
	"github.com/99minutos/multirole-auth/internal/core/service"
	"github.com/99minutos/multirole-auth/internal/infrastructure/db/memory"
	"github.com/99minutos/multirole-auth/internal/infrastructure/db/mongo"
	"github.com/99minutos/multirole-auth/internal/infrastructure/db/redis"
	"github.com/99minutos/multirole-auth/internal/infrastructure/queue"
	"github.com/99minutos/multirole-auth/internal/infrastructure/security"
	"github.com/99minutos/multirole-auth/internal/pkg/config"
	"github.com/99minutos/multirole-auth/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "hash-password":
		if err := hashPassword(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [serve | hash-password]\n", os.Args[0])
		os.Exit(2)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "multirole-auth",
	})

	users, roles, readiness, cleanup, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	h, err := security.NewHasher(cfg.Hash.Algorithm, cfg.Hash.BcryptCost)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}
	// The pool outlives the signal context; it stops after the HTTP server
	// has drained in-flight requests.
	pool := queue.NewHashPool(cfg.Hash.Workers, h, metrics.ObserveHash, log)
	pool.Start(context.Background())
	defer pool.Stop()

	if cfg.SeedDefaults {
		if cfg.IsProduction() {
			log.Warn().Msg("seeding well-known default accounts in a production environment")
		}
		seeder := service.NewSeeder(users, roles, pool, logger.Component("seeder"))
		if err := seeder.Seed(ctx, service.DefaultRoles, service.DefaultAccounts); err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
	}

	e := api.NewRouter(api.Deps{
		AuthService: service.NewAuthService(users, roles, pool, logger.Component("auth")),
		Authorizer:  service.NewAuthorizer(),
		Readiness:   readiness,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("HTTP server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openStorage builds the user and role repositories for cfg.Storage, wraps
// roles with the Redis cache when REDIS_ADDR is set, and returns the matching
// readiness checks. cleanup releases every opened connection.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (
	ports.UserRepository, ports.RoleRepository, map[string]handler.DependencyCheck, func(), error,
) {
	var (
		users     ports.UserRepository
		roles     ports.RoleRepository
		closers   []func()
		readiness = map[string]handler.DependencyCheck{}
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage; accounts are lost on restart")
		users, roles = memory.NewUserRepository(), memory.NewRoleRepository()
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, nil, cleanup, err
		}
		closers = append(closers, func() { disconnectMongo(client, log) })

		userRepo, roleRepo := mongo.NewUserRepository(db), mongo.NewRoleRepository(db)
		if err := mongo.EnsureIndexes(ctx, userRepo, roleRepo); err != nil {
			cleanup()
			return nil, nil, nil, func() {}, err
		}
		users, roles = userRepo, roleRepo
		readiness["mongo"] = handler.MongoCheck(db)
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			cleanup()
			return nil, nil, nil, func() {}, err
		}
		closers = append(closers, func() { closeRedis(rdb, log) })

		roles = redis.NewRoleCache(rdb, roles, cfg.Redis.RoleTTL, logger.Component("role_cache")).
			WithLookupCounter(metrics.CountRoleCache)
		readiness["redis"] = handler.RedisCheck(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.RoleTTL).Msg("role cache enabled")
	}

	return users, roles, readiness, cleanup, nil
}

func disconnectMongo(client *mongodriver.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}

// hashPassword reads a password from the terminal without echo and prints
// its digest, for provisioning accounts directly in the store.
func hashPassword() error {
	cfg := config.Load()
	h, err := security.NewHasher(cfg.Hash.Algorithm, cfg.Hash.BcryptCost)
	if err != nil {
		return err
	}

	fmt.Print("Enter password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("empty password")
	}

	digest, err := h.Hash(context.Background(), string(raw))
	if err != nil {
		return err
	}
	fmt.Printf("Hashed password: %s\n", digest)
	return nil
}
