package service

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var redisLogger = log.WithFields(log.Fields{
	"persistence": "redis",
})

// RedisPersistenceService keeps snapshots in redis, the right backend when
// several processes share state or the filesystem is ephemeral.
type RedisPersistenceService struct {
	redis  *redis.Client
	prefix string
}

func NewRedisPersistenceService(config *RedisPersistenceConfig) *RedisPersistenceService {
	opts := &redis.Options{
		Addr:     net.JoinHostPort(config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	}

	return &RedisPersistenceService{
		redis:  redis.NewClient(opts),
		prefix: config.Namespace,
	}
}

func (s *RedisPersistenceService) NewStore(id string, subIDs ...string) Store {
	parts := make([]string, 0, len(subIDs)+2)
	if s.prefix != "" {
		parts = append(parts, s.prefix)
	}
	parts = append(parts, id)
	parts = append(parts, subIDs...)

	return RedisStore{
		redis: s.redis,
		Key:   strings.Join(parts, ":"),
	}
}

type RedisStore struct {
	redis *redis.Client

	Key string
}

func (store RedisStore) Load(val interface{}) error {
	if store.redis == nil {
		return errors.New("can not load from redis, the redis persistence is not configured")
	}

	data, err := store.redis.Get(context.Background(), store.Key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrPersistenceNotExists
	} else if err != nil {
		return err
	}

	redisLogger.Debugf("get key %q, data = %s", store.Key, data)

	// an empty or literal null payload counts as absent
	if len(data) == 0 || data == "null" {
		return ErrPersistenceNotExists
	}

	return json.Unmarshal([]byte(data), val)
}

func (store RedisStore) Save(val interface{}) error {
	if val == nil {
		return nil
	}

	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	// values carrying their own TTL expire server side
	var ttl time.Duration
	if expiring, ok := val.(Expirable); ok {
		ttl = expiring.Expiration()
	}

	redisLogger.Debugf("set key %q, data = %s, ttl = %s", store.Key, data, ttl)

	return store.redis.Set(context.Background(), store.Key, data, ttl).Err()
}

func (store RedisStore) Reset() error {
	return store.redis.Del(context.Background(), store.Key).Err()
}
