package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/primar/console/internal/api/handler"
	"github.com/primar/console/internal/core/service"
	"github.com/primar/console/internal/infrastructure/config"
	mongostore "github.com/primar/console/internal/infrastructure/db/mongo"
	redisstore "github.com/primar/console/internal/infrastructure/db/redis"
	"github.com/primar/console/internal/infrastructure/identity"
	"github.com/primar/console/internal/infrastructure/queue"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	mongo *mongo.Client
	db    *mongo.Database
	redis *redisstore.Store

	repos      *mongostore.Repositories
	bus        *identity.Bus
	identity   *identity.Provider
	dispatcher *queue.Dispatcher

	sessions  *service.SessionRegistry
	tasks     *service.TaskService
	clients   *service.ClientService
	directory *service.DirectoryService
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		Namespace: cfg.Redis.Namespace,
		PoolSize:  cfg.Redis.PoolSize,
		Attempts:  cfg.Redis.ConnectAttempts,
	})
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}

	a := &app{mongo: mongoClient, db: db, redis: rdb}
	a.repos = mongostore.NewRepositories(db)
	if err := a.repos.EnsureIndexes(ctx); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	a.bus = identity.NewBus(redisstore.NewAuthEventRelay(rdb, log.With().Str("component", "auth-relay").Logger()), log)
	a.identity = identity.NewProvider(
		a.repos.Users,
		a.repos.Profiles,
		redisstore.NewTokenBlacklist(rdb),
		a.bus,
		identity.Config{Secret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL},
		log.With().Str("component", "identity").Logger(),
	)

	recurrences := service.NewRecurrenceService(a.repos.Tasks, redisstore.NewRecurrenceGuard(rdb), log.With().Str("component", "recurrence").Logger())
	a.dispatcher = queue.NewDispatcher(cfg.Tasks.RecurrenceWorkers, recurrences, log.With().Str("component", "dispatcher").Logger())

	a.sessions = service.NewSessionRegistry(a.identity, a.repos.Profiles, a.repos.Roles, log.With().Str("component", "sessions").Logger(), cfg.Sessions.CacheSize, cfg.Sessions.CacheTTL)
	a.tasks = service.NewTaskService(a.repos.Tasks, a.repos.Profiles, a.repos.Roles, log.With().Str("component", "tasks").Logger(), service.WithScheduler(a.dispatcher))
	a.directory = service.NewDirectoryService(a.repos.Profiles, a.repos.Roles, log.With().Str("component", "directory").Logger())
	a.clients, err = service.NewClientService(a.identity, a.repos.Profiles, a.repos.Roles, log.With().Str("component", "clients").Logger(),
		service.WithRetryDelay(cfg.Clients.ProvisionRetryDelay))
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

// healthChecks are the readiness pings for the router.
func (a *app) healthChecks() map[string]handler.PingFunc {
	return map[string]handler.PingFunc{
		"mongodb": func(ctx context.Context) error {
			return a.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
		},
		"redis": func(ctx context.Context) error {
			return a.redis.Ping(ctx)
		},
	}
}

func (a *app) close(ctx context.Context) {
	if a.sessions != nil {
		a.sessions.Close()
	}
	if err := a.redis.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	if err := a.mongo.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}
}
