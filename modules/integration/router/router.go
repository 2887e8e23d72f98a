package router

import (
	"calsync/core/middleware"
	"calsync/modules/integration/controller"

	"github.com/labstack/echo/v4"
)

type IntegrationRouter struct {
	controller *controller.IntegrationController
}

func NewIntegrationRouter(controller *controller.IntegrationController) *IntegrationRouter {
	return &IntegrationRouter{controller: controller}
}

func (r *IntegrationRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// The OAuth callback is hit by the provider redirect, not by our client.
	v1.GET("/integrations/:provider/callback", r.controller.Callback)

	private := v1.Group("/private/integrations")
	private.Use(mw.AuthMiddleware())
	private.GET("", r.controller.List)
	private.GET("/:provider/url", r.controller.AuthURL)
	private.POST("/caldav", r.controller.ConnectCalDAV)
	private.DELETE("/:provider", r.controller.Disconnect)
}
