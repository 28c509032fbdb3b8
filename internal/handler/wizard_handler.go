package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/middleware"
	"github.com/jalanria/service-rental/internal/common/response"
)

// WizardHandler handles HTTP requests for the booking wizard.
type WizardHandler struct {
	service *application.WizardService
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(service *application.WizardService) *WizardHandler {
	return &WizardHandler{service: service}
}

// RegisterRoutes registers all wizard routes.
func (h *WizardHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	customerRole := middleware.RequireRole(auth.RoleCustomer)

	wizards := r.Group("/api/v1/wizards")
	wizards.Use(authMW, customerRole)
	{
		wizards.POST("", h.CreateWizard)
		wizards.GET("/:id", h.GetWizard)
		wizards.PUT("/:id/location", h.UpdateLocation)
		wizards.PUT("/:id/schedule", h.UpdateSchedule)
		wizards.PUT("/:id/vehicle-type", h.SelectVehicleType)
		wizards.PUT("/:id/vehicle", h.SelectVehicle)
		wizards.PUT("/:id/details", h.UpdateDetails)
		wizards.POST("/:id/next", h.Next)
		wizards.POST("/:id/back", h.Back)
		wizards.POST("/:id/finalize", h.Finalize)
	}
}

// CreateWizard handles POST /api/v1/wizards.
func (h *WizardHandler) CreateWizard(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.CreateWizard(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetWizard handles GET /api/v1/wizards/:id.
func (h *WizardHandler) GetWizard(c *gin.Context) {
	h.run(c, h.service.GetWizard)
}

// UpdateLocation handles PUT /api/v1/wizards/:id/location.
func (h *WizardHandler) UpdateLocation(c *gin.Context) {
	var req application.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.run(c, func(ctx context.Context, userID, id uuid.UUID) (*application.WizardDTO, error) {
		return h.service.UpdateLocation(ctx, userID, id, req)
	})
}

// UpdateSchedule handles PUT /api/v1/wizards/:id/schedule.
func (h *WizardHandler) UpdateSchedule(c *gin.Context) {
	var req application.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.run(c, func(ctx context.Context, userID, id uuid.UUID) (*application.WizardDTO, error) {
		return h.service.UpdateSchedule(ctx, userID, id, req)
	})
}

// SelectVehicleType handles PUT /api/v1/wizards/:id/vehicle-type.
func (h *WizardHandler) SelectVehicleType(c *gin.Context) {
	var req application.SelectVehicleTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.run(c, func(ctx context.Context, userID, id uuid.UUID) (*application.WizardDTO, error) {
		return h.service.SelectVehicleType(ctx, userID, id, req)
	})
}

// SelectVehicle handles PUT /api/v1/wizards/:id/vehicle.
func (h *WizardHandler) SelectVehicle(c *gin.Context) {
	var req application.SelectVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.run(c, func(ctx context.Context, userID, id uuid.UUID) (*application.WizardDTO, error) {
		return h.service.SelectVehicle(ctx, userID, id, req)
	})
}

// UpdateDetails handles PUT /api/v1/wizards/:id/details.
func (h *WizardHandler) UpdateDetails(c *gin.Context) {
	var req application.UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.run(c, func(ctx context.Context, userID, id uuid.UUID) (*application.WizardDTO, error) {
		return h.service.UpdateDetails(ctx, userID, id, req)
	})
}

// Next handles POST /api/v1/wizards/:id/next.
func (h *WizardHandler) Next(c *gin.Context) {
	h.run(c, h.service.Next)
}

// Back handles POST /api/v1/wizards/:id/back.
func (h *WizardHandler) Back(c *gin.Context) {
	h.run(c, h.service.Back)
}

// Finalize handles POST /api/v1/wizards/:id/finalize.
func (h *WizardHandler) Finalize(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	id, ok := pathID(c, "id", "wizard")
	if !ok {
		return
	}

	result, err := h.service.Finalize(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

type wizardCall func(ctx context.Context, userID, id uuid.UUID) (*application.WizardDTO, error)

func (h *WizardHandler) run(c *gin.Context, call wizardCall) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	id, ok := pathID(c, "id", "wizard")
	if !ok {
		return
	}

	result, err := call(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
