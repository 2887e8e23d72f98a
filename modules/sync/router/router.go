package router

import (
	"calsync/core/middleware"
	"calsync/modules/sync/controller"

	"github.com/labstack/echo/v4"
)

type SyncRouter struct {
	controller *controller.SyncController
}

func NewSyncRouter(controller *controller.SyncController) *SyncRouter {
	return &SyncRouter{controller: controller}
}

func (r *SyncRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	private := e.Group("/api/v1/private/sync")
	private.Use(mw.AuthMiddleware())
	private.POST("", r.controller.Trigger)
	private.POST("/now", r.controller.SyncNow)
}
