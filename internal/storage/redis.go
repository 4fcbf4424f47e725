package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"github.com/dshills/blockedit/internal/document"
)

// DefaultRedisURL is used when no URL is configured.
const DefaultRedisURL = "redis://localhost:6379/0"

// Redis is a Store that keeps each document as a JSON string key and the
// set of ids in a second key.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to url and checks the connection.
func OpenRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	if url == "" {
		url = DefaultRedisURL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps a connected client. Keys are prefix:doc:<id>.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) documentKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, Key(id))
}

func (r *Redis) listKey() string {
	return fmt.Sprintf("%s:docs", r.prefix)
}

// LoadDocument implements Storage.
func (r *Redis) LoadDocument(ctx context.Context, id string) (*document.Document, error) {
	data, err := r.client.Get(ctx, r.documentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}

	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &doc, nil
}

// SaveDocument implements Storage.
func (r *Redis) SaveDocument(ctx context.Context, id string, doc document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.documentKey(id), data, 0)
		pipe.SAdd(ctx, r.listKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return nil
}

// ListDocuments implements Store.
func (r *Redis) ListDocuments(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.listKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
