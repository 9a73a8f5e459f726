// Package svc builds every long-lived dependency from the config.
package svc

import (
	"context"
	"fmt"

	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/mq"
	"agora/internal/services"
	"agora/internal/store"
	"agora/internal/store/memory"
	"agora/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stores interface {
	store.ContentStore
	store.ThreadStore
	store.UserStore
	store.NotificationStore
}

type ServiceContext struct {
	Config *config.Config
	Log    *zap.Logger

	DB     *gorm.DB // nil with the memory driver
	Store  stores
	Cache  *cache.RedisCache
	Rabbit *mq.RabbitMQ

	Verifier *utils.JWTVerifier
	Runner   *services.AsyncRunner
	Karma    services.KarmaSink
	Direct   *services.DirectKarma

	Votes    *services.VoteService
	Content  *services.ContentService
	Accounts *services.AccountService
}

// NewServiceContext connects the store and the optional Redis and
// RabbitMQ backends. Redis and RabbitMQ failures degrade to in-store dedup
// and direct karma writes.
func NewServiceContext(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ServiceContext, error) {
	if log == nil {
		log = zap.L()
	}
	s := &ServiceContext{Config: cfg, Log: log}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memory.New()
		seedMemory(mem)
		s.Store = mem
		log.Warn("using in-memory store, data is lost on exit")
	default:
		gdb, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.DB = gdb
		s.Store = store.NewGormStore(gdb)
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("Redis connection failed, continuing without Redis", zap.Error(err))
		} else {
			log.Info("Redis connected successfully")
			s.Cache = rc
		}
	}

	s.Direct = services.NewDirectKarma(s.Store)
	s.Karma = s.Direct
	if cfg.AMQPURL != "" {
		if err := s.connectRabbit(); err != nil {
			log.Warn("RabbitMQ unavailable, applying karma directly", zap.Error(err))
		} else {
			s.Karma = mq.NewKarmaPublisher(s.Rabbit, cfg.KarmaQueue, s.Direct)
		}
	}

	notifierOpts := []services.NotifierOption{
		services.WithDedupWindow(cfg.NotifyDedupWindow),
		services.WithNotifierLogger(log),
	}
	if s.Cache != nil {
		notifierOpts = append(notifierOpts, services.WithDedupGuard(s.Cache))
	}
	notifier := services.NewNotifier(s.Store, s.Store, notifierOpts...)

	s.Runner = services.NewAsyncRunner(cfg.SideEffectTimeout, log)
	s.Verifier = utils.NewJWTVerifier(cfg.JWTSecretKey, cfg.JWTIssuer)
	s.Votes = services.NewVoteService(s.Store, s.Karma, notifier,
		services.WithRunner(s.Runner),
		services.WithMaxAttempts(cfg.VoteMaxAttempts),
		services.WithVoteLogger(log),
	)
	s.Content = services.NewContentService(s.Store, s.Store, notifier, services.NewProjector(s.Store), s.Runner)
	s.Accounts = services.NewAccountService(s.Store, s.Store)
	return s, nil
}

func (s *ServiceContext) connectRabbit() error {
	r, err := mq.New(s.Config.AMQPURL)
	if err != nil {
		return err
	}
	if err := r.DeclareQueue(s.Config.KarmaQueue); err != nil {
		r.Close()
		return err
	}
	s.Rabbit = r
	s.Log.Info("RabbitMQ connected successfully", zap.String("queue", s.Config.KarmaQueue))
	return nil
}

// KarmaConsumer returns a consumer that applies events directly to the
// store. It needs a RabbitMQ connection.
func (s *ServiceContext) KarmaConsumer() (*mq.KarmaConsumer, error) {
	if s.Rabbit == nil {
		return nil, fmt.Errorf("karma worker needs AMQP_URL")
	}
	return mq.NewKarmaConsumer(s.Direct, s.Log), nil
}

// Close drains pending side effects and releases connections.
func (s *ServiceContext) Close() {
	if s.Runner != nil {
		s.Runner.Wait()
	}
	if s.Rabbit != nil {
		s.Rabbit.Close()
		s.Log.Info("RabbitMQ closed")
	}
	if s.Cache != nil {
		_ = s.Cache.Close()
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func seedMemory(mem *memory.Store) {
	for _, name := range []string{"alice", "bob", "carol"} {
		mem.AddUser(models.User{Username: name, Email: name + "@example.com"})
	}
}
