package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"calsync/core/logger"
	"calsync/core/queue"
	"calsync/modules/sync/service"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// InboundHandler processes queued inbound sync tasks.
type InboundHandler struct {
	inbound service.InboundService
}

func NewInboundHandler(inbound service.InboundService) *InboundHandler {
	return &InboundHandler{inbound: inbound}
}

func (h *InboundHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload queue.InboundSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A malformed payload will never succeed; don't retry it.
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("parse user id %q: %w: %w", payload.UserID, err, asynq.SkipRetry)
	}

	report, err := h.inbound.SyncIn(ctx, userID)
	if err != nil {
		return err
	}

	logger.Info("InboundHandler:Handle:Done", "user_id", userID, "inserted", len(report.Inserted))
	return nil
}
