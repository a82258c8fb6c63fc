package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("cart not found in storage")

// CartStorage persists the single cart document of this process.
// Only the cart store writes to it.
type CartStorage interface {
	Load(ctx context.Context) (*domain.CartDocument, error)
	Save(ctx context.Context, doc domain.CartDocument) error
	Clear(ctx context.Context) error
	Close() error
}

// Open connects the driver selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (CartStorage, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return NewFileStorage(cfg.FilePath), nil
	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return NewRedisStorage(client, cfg.Key, cfg.RedisTTL), nil
	case config.DriverMongo:
		db, err := ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		s := NewMongoStorage(db, cfg.Key)
		if err := s.CreateIndexes(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.DriverSQLite, config.DriverPostgres:
		s, err := NewSQLStorage(cfg.Driver, cfg.DSN, cfg.Key)
		if err != nil {
			return nil, err
		}
		if err := s.RunMigrations(); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
