// Package redisstore backs the document store with Redis: one JSON value
// per document plus a per-collection id set. Redis has no secondary
// indexes, so ordered listing is unsupported and callers sort client-side.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/promptsim/backend/internal/docstore"
	"github.com/promptsim/backend/pkg/logger"
	"github.com/promptsim/backend/pkg/retry"
)

type Client struct {
	client      *redis.Client
	retryConfig retry.Config
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	retryConfig := retry.DefaultConfig()
	retryConfig.Logger = logger.GetLogger()

	logger.Info("Document store initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, retryConfig: retryConfig}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func docKey(collection, id string) string {
	return fmt.Sprintf("doc:%s:%s", collection, id)
}

func idsKey(collection string) string {
	return fmt.Sprintf("docs:%s", collection)
}

func (c *Client) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	return retry.DoWithResult(ctx, c.retryConfig, func() (json.RawMessage, error) {
		data, err := c.client.Get(ctx, docKey(collection, id)).Bytes()
		if err == redis.Nil {
			return nil, docstore.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get document: %w", err)
		}
		return json.RawMessage(data), nil
	})
}

func (c *Client) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	return retry.Do(ctx, c.retryConfig, func() error {
		pipe := c.client.TxPipeline()
		pipe.Set(ctx, docKey(collection, id), []byte(data), 0)
		pipe.SAdd(ctx, idsKey(collection), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to set document: %w", err)
		}
		return nil
	})
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return retry.Do(ctx, c.retryConfig, func() error {
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, docKey(collection, id))
		pipe.SRem(ctx, idsKey(collection), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return nil
	})
}

func (c *Client) Exists(ctx context.Context, collection, id string) (bool, error) {
	return retry.DoWithResult(ctx, c.retryConfig, func() (bool, error) {
		n, err := c.client.Exists(ctx, docKey(collection, id)).Result()
		if err != nil {
			return false, fmt.Errorf("failed to check document: %w", err)
		}
		return n > 0, nil
	})
}

func (c *Client) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	ids, err := retry.DoWithResult(ctx, c.retryConfig, func() ([]string, error) {
		return c.client.SMembers(ctx, idsKey(collection)).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list collection ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}

	values, err := retry.DoWithResult(ctx, c.retryConfig, func() ([]interface{}, error) {
		return c.client.MGet(ctx, keys...).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection documents: %w", err)
	}

	docs := make([]docstore.Document, 0, len(ids))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Id set member whose document was deleted concurrently.
			continue
		}
		docs = append(docs, docstore.Document{ID: ids[i], Data: json.RawMessage(s)})
	}

	return docs, nil
}

func (c *Client) SupportsOrderedList() bool {
	return false
}

func (c *Client) ListOrdered(ctx context.Context, collection, field string) ([]docstore.Document, error) {
	return nil, fmt.Errorf("redis document store does not support ordered listing")
}
