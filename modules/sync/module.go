package sync

import (
	"calsync/core/config"
	"calsync/core/database"
	"calsync/core/middleware"
	"calsync/core/queue"
	eventRepository "calsync/modules/event/repository"
	integrationRepository "calsync/modules/integration/repository"
	integrationService "calsync/modules/integration/service"
	"calsync/modules/sync/controller"
	"calsync/modules/sync/provider"
	"calsync/modules/sync/repository"
	"calsync/modules/sync/router"
	"calsync/modules/sync/service"
	"calsync/modules/sync/worker"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// buildServices assembles the full sync graph from a database handle. The
// HTTP module, the event module and the background worker all share this
// wiring so they dispatch through identical adapters.
func buildServices(db database.IDatabase) (service.OutboundService, service.InboundService) {
	cfg := config.Get()

	credentials := integrationRepository.NewCredentialRepository(db)
	tokens := integrationService.NewTokenService(credentials, cfg.OAuth)

	mappings := repository.NewMappingRepository(db)
	calendarMappings := repository.NewCalendarMappingRepository(db)
	calendars := eventRepository.NewCalendarRepository(db)
	events := eventRepository.NewEventRepository(db)

	resolver := service.NewCalendarResolver(calendarMappings, calendars)
	registry := provider.NewRegistry(
		provider.NewGoogleAdapter(cfg.OAuth.Google, mappings, resolver),
		provider.NewOutlookAdapter(cfg.OAuth.Outlook, mappings, resolver),
		provider.NewCalDAVAdapter(cfg.CalDAV, mappings, resolver),
	)

	outbound := service.NewOutboundService(tokens, registry)
	inbound := service.NewInboundService(tokens, registry, events, mappings)
	return outbound, inbound
}

func Init(e *echo.Echo, db database.IDatabase, q *queue.Client) {
	cfg := config.Get()

	_, inbound := buildServices(db)
	syncController := controller.NewSyncController(inbound, q)

	mw := middleware.NewMiddleware(cfg.Server.JWTSecret)

	router.NewSyncRouter(syncController).Setup(e, mw)
}

// NewOutbound exposes the outbound service to other modules.
func NewOutbound(db database.IDatabase) service.OutboundService {
	outbound, _ := buildServices(db)
	return outbound
}

// RegisterWorker mounts the background task handlers.
func RegisterWorker(mux *asynq.ServeMux, db database.IDatabase) {
	_, inbound := buildServices(db)
	mux.HandleFunc(queue.TypeInboundSync, worker.NewInboundHandler(inbound).Handle)
}
