package controller

import (
	"net/http"

	"calsync/core/controller"
	"calsync/core/errors"
	"calsync/core/middleware"
	"calsync/core/queue"
	"calsync/modules/sync/dto"
	"calsync/modules/sync/service"

	"github.com/labstack/echo/v4"
)

type SyncController struct {
	controller.BaseController
	inbound service.InboundService
	queue   *queue.Client
}

func NewSyncController(inbound service.InboundService, q *queue.Client) *SyncController {
	return &SyncController{
		BaseController: controller.NewBaseController(),
		inbound:        inbound,
		queue:          q,
	}
}

// Trigger queues a background import of remote events
// POST /api/v1/private/sync
func (c *SyncController) Trigger(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	if err := c.queue.EnqueueInboundSync(ctx.Request().Context(), userID); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to queue sync")
	}

	return ctx.JSON(http.StatusAccepted,
		controller.NewSuccessResponse(http.StatusAccepted, dto.EnqueueResponse{Queued: true}, "Sync queued"))
}

// SyncNow imports remote events synchronously and returns the report
// POST /api/v1/private/sync/now
func (c *SyncController) SyncNow(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	report, err := c.inbound.SyncIn(ctx.Request().Context(), userID)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Sync failed")
	}

	return c.SuccessResponse(ctx, report, "Sync completed")
}
