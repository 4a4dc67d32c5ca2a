package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures the redis medium.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// KeyPrefix namespaces all keys. Defaults to "memgraph:".
	KeyPrefix string `yaml:"key_prefix"`
}

// RedisMedium is a redis-backed Medium. Documents live in plain keys; a set
// per collection tracks membership for listing.
type RedisMedium struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisMedium connects to redis and verifies connectivity.
func NewRedisMedium(cfg RedisConfig, logger *zap.Logger) (*RedisMedium, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "memgraph:"
	}

	return &RedisMedium{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger.With(zap.String("component", "redis_medium")),
	}, nil
}

// Close closes the underlying client.
func (m *RedisMedium) Close() error {
	return m.client.Close()
}

func (m *RedisMedium) docKey(collection, id string) string {
	return m.keyPrefix + collection + ":doc:" + id
}

func (m *RedisMedium) idsKey(collection string) string {
	return m.keyPrefix + collection + ":ids"
}

// Write upserts docs into the collection.
func (m *RedisMedium) Write(ctx context.Context, collection string, docs []Document) error {
	pipe := m.client.TxPipeline()
	for _, doc := range docs {
		pipe.Set(ctx, m.docKey(collection, doc.ID), string(doc.Body), 0)
		pipe.SAdd(ctx, m.idsKey(collection), doc.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	return nil
}

// Read returns every document in the collection, ordered by ID.
func (m *RedisMedium) Read(ctx context.Context, collection string) ([]Document, error) {
	ids, err := m.client.SMembers(ctx, m.idsKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}
	sort.Strings(ids)

	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		body, err := m.client.Get(ctx, m.docKey(collection, id)).Result()
		if err == redis.Nil {
			// Membership set out of step with the data key; skip.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read document %q: %w", id, err)
		}
		out = append(out, Document{ID: id, Body: json.RawMessage(body)})
	}
	return out, nil
}

// Delete removes the identified documents.
func (m *RedisMedium) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pipe := m.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, m.docKey(collection, id))
		pipe.SRem(ctx, m.idsKey(collection), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}
