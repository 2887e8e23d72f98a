package integration

import (
	"calsync/core/cache"
	"calsync/core/config"
	"calsync/core/database"
	"calsync/core/middleware"
	"calsync/modules/integration/controller"
	"calsync/modules/integration/repository"
	"calsync/modules/integration/router"
	"calsync/modules/integration/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.IDatabase, c cache.Cache) {
	cfg := config.Get()

	repo := repository.NewCredentialRepository(db)
	tokenService := service.NewTokenService(repo, cfg.OAuth)
	oauthService := service.NewOAuthService(tokenService, c, cfg.OAuth)
	integrationController := controller.NewIntegrationController(oauthService)

	mw := middleware.NewMiddleware(cfg.Server.JWTSecret)

	router.NewIntegrationRouter(integrationController).Setup(e, mw)
}
