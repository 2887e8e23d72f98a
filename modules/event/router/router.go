package router

import (
	"calsync/core/middleware"
	"calsync/modules/event/controller"

	"github.com/labstack/echo/v4"
)

type EventRouter struct {
	controller *controller.EventController
}

func NewEventRouter(controller *controller.EventController) *EventRouter {
	return &EventRouter{controller: controller}
}

func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	private := e.Group("/api/v1/private")
	private.Use(mw.AuthMiddleware())

	private.POST("/calendars", r.controller.CreateCalendar)
	private.GET("/calendars", r.controller.ListCalendars)

	private.POST("/events", r.controller.CreateEvent)
	private.GET("/events", r.controller.ListEvents)
	private.GET("/events/:id", r.controller.GetEvent)
	private.PUT("/events/:id", r.controller.UpdateEvent)
	private.DELETE("/events/:id", r.controller.DeleteEvent)
}
