package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"calsync/core/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TypeInboundSync = "sync:inbound"

type InboundSyncPayload struct {
	UserID string `json:"user_id"`
}

func NewInboundSyncTask(userID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(InboundSyncPayload{UserID: userID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInboundSync, payload, asynq.MaxRetry(3)), nil
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Client enqueues background tasks.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) EnqueueInboundSync(ctx context.Context, userID uuid.UUID) error {
	task, err := NewInboundSyncTask(userID)
	if err != nil {
		return fmt.Errorf("build inbound sync task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue inbound sync: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
