package controller

import (
	"calsync/core/controller"
	"calsync/core/errors"
	"calsync/core/middleware"
	"calsync/modules/integration/dto"
	"calsync/modules/integration/service"
	"calsync/modules/sync/provider"

	"github.com/labstack/echo/v4"
)

type IntegrationController struct {
	controller.BaseController
	service service.OAuthService
}

func NewIntegrationController(svc service.OAuthService) *IntegrationController {
	return &IntegrationController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// List returns the user's connected providers
// GET /api/v1/private/integrations
func (c *IntegrationController) List(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	integrations, err := c.service.List(ctx.Request().Context(), userID)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to list integrations")
	}

	return c.SuccessResponse(ctx, dto.IntegrationListResponse{Integrations: integrations}, "Integrations retrieved successfully")
}

// AuthURL builds the provider consent-screen URL
// GET /api/v1/private/integrations/:provider/url
func (c *IntegrationController) AuthURL(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	p, ok := provider.Parse(ctx.Param("provider"))
	if !ok {
		return c.BadRequest(errors.ErrInvalidInput, "Unknown provider")
	}

	resp, appErr := c.service.AuthURL(ctx.Request().Context(), p, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, resp, "Authorization URL created successfully")
}

// Callback completes the OAuth flow
// GET /api/v1/integrations/:provider/callback?state=...&code=...
func (c *IntegrationController) Callback(ctx echo.Context) error {
	p, ok := provider.Parse(ctx.Param("provider"))
	if !ok {
		return c.BadRequest(errors.ErrInvalidInput, "Unknown provider")
	}

	state := ctx.QueryParam("state")
	code := ctx.QueryParam("code")
	if state == "" || code == "" {
		return c.BadRequest(errors.ErrInvalidRequestData, "state and code are required")
	}

	if appErr := c.service.HandleCallback(ctx.Request().Context(), p, state, code); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Connected successfully")
}

// ConnectCalDAV stores an app-specific password credential
// POST /api/v1/private/integrations/caldav
func (c *IntegrationController) ConnectCalDAV(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ConnectCalDAVRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	if appErr := c.service.ConnectCalDAV(ctx.Request().Context(), userID, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Connected successfully")
}

// Disconnect removes the credential for a provider
// DELETE /api/v1/private/integrations/:provider
func (c *IntegrationController) Disconnect(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	p, ok := provider.Parse(ctx.Param("provider"))
	if !ok {
		return c.BadRequest(errors.ErrInvalidInput, "Unknown provider")
	}

	if err := c.service.Disconnect(ctx.Request().Context(), userID, p); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to disconnect")
	}

	return c.SuccessResponse(ctx, nil, "Disconnected successfully")
}
