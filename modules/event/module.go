package event

import (
	"calsync/core/config"
	"calsync/core/database"
	"calsync/core/middleware"
	"calsync/modules/event/controller"
	"calsync/modules/event/repository"
	"calsync/modules/event/router"
	"calsync/modules/event/service"
	syncmodule "calsync/modules/sync"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.IDatabase) {
	cfg := config.Get()

	events := repository.NewEventRepository(db)
	calendars := repository.NewCalendarRepository(db)
	eventService := service.NewEventService(events, calendars, syncmodule.NewOutbound(db))
	eventController := controller.NewEventController(eventService)

	mw := middleware.NewMiddleware(cfg.Server.JWTSecret)

	router.NewEventRouter(eventController).Setup(e, mw)
}
