// Package container is the composition root. Everything is built once at
// startup and handed to the router by reference.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/identity"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-task-manager/internal/infrastructure/postgres"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/search"
	"github.com/oksasatya/go-task-manager/internal/metrics"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Infra holds external connections. Nil members switch off what depends on them.
type Infra struct {
	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	ES        *elasticsearch.Client
	Publisher helpers.JSONPublisher

	closers []func()
}

// Close releases connections in reverse order of opening.
func (in *Infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}

// Connect opens every connection the configuration asks for.
func Connect(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Infra, error) {
	in := &Infra{}

	switch cfg.StoreDriver {
	case DriverPostgres:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		in.PGPool = pool
		in.closers = append(in.closers, pool.Close)
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
			in.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	case DriverMemory:
		logger.Warn("STORE_DRIVER=memory; users and tasks are lost on restart")
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.RedisEnabled {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			in.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		in.Redis = rdb
		in.closers = append(in.closers, func() { _ = rdb.Close() })
	}

	es, err := helpers.NewESClient(helpers.ESOptions{
		Addrs:    cfg.ESAddrs(),
		Username: cfg.ElasticsearchUser,
		Password: cfg.ElasticsearchPass,
	})
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("elasticsearch: %w", err)
	}
	in.ES = es

	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			// Signup still works; confirmation links are logged instead of mailed.
			helpers.LogWarn(logger, "rabbitmq unavailable, confirmation emails disabled", err, nil)
		} else {
			in.Publisher = pub
			in.closers = append(in.closers, pub.Close)
		}
	}
	return in, nil
}

// Container is every wired component of the API process.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Infra    *Infra
	JWT      *helpers.JWTManager
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	Users    repository.UserRepository
	Tasks    repository.TaskStore
	Index    repository.TaskIndex
	Identity repository.IdentityProvider

	TaskService *application.TaskService
	AuthService *application.AuthService
}

// Build wires repositories and services on top of in.
func Build(cfg *config.Config, logger *logrus.Logger, in *Infra) (*Container, error) {
	if in == nil {
		in = &Infra{}
	}
	c := &Container{Config: cfg, Logger: logger, Infra: in}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.NewCollector(c.Registry)

	switch cfg.StoreDriver {
	case DriverPostgres:
		if in.PGPool == nil {
			return nil, errors.New("postgres driver selected without a pool")
		}
		c.Users = pginfra.NewUserRepository(in.PGPool)
		c.Tasks = pginfra.NewTaskStore(in.PGPool)
	case DriverMemory:
		c.Users = memory.NewUserRepository()
		c.Tasks = memory.NewTaskStore()
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if in.ES != nil && cfg.ESTasksIndex != "" {
		idx := search.NewTaskIndex(in.ES, cfg.ESTasksIndex)
		if err := idx.EnsureIndex(context.Background()); err != nil {
			helpers.LogWarn(logger, "search index setup failed, falling back to dynamic mapping", err, logrus.Fields{"index": cfg.ESTasksIndex})
		}
		c.Index = idx
	}

	c.JWT = helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	idp, err := identity.New(c.Users, c.JWT, in.Redis, in.Publisher, logger, identity.Options{
		AppName:             cfg.AppName,
		RequireConfirmation: cfg.AuthRequireConfirmation,
		ConfirmTokenTTL:     cfg.ConfirmTokenTTL,
		ConfirmURL:          cfg.ConfirmEmailURL,
		BcryptCost:          cfg.BcryptCost,
	})
	if err != nil {
		return nil, err
	}
	c.Identity = idp

	c.TaskService = application.NewTaskService(c.Tasks, c.Index, logger, c.Metrics)
	c.AuthService = application.NewAuthService(c.Identity, logger, c.Metrics)
	return c, nil
}

// Close releases the underlying connections.
func (c *Container) Close() {
	if c.Infra != nil {
		c.Infra.Close()
	}
}
