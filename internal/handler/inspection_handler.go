package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/middleware"
	"github.com/jalanria/service-rental/internal/common/response"
)

// InspectionHandler handles HTTP requests for vehicle inspections.
type InspectionHandler struct {
	service *application.InspectionService
}

// NewInspectionHandler creates a new InspectionHandler.
func NewInspectionHandler(service *application.InspectionService) *InspectionHandler {
	return &InspectionHandler{service: service}
}

// RegisterRoutes registers the inspection routes.
func (h *InspectionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	inspectorRole := middleware.RequireRole(auth.RoleDriver, auth.RoleAdmin)

	inspections := r.Group("/api/v1/bookings")
	inspections.Use(authMW, inspectorRole)
	{
		inspections.POST("/:id/inspections", h.RecordInspection)
		inspections.GET("/:id/inspections", h.ListInspections)
	}
}

// RecordInspection handles POST /api/v1/bookings/:id/inspections.
func (h *InspectionHandler) RecordInspection(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req application.RecordInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RecordInspection(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListInspections handles GET /api/v1/bookings/:id/inspections.
func (h *InspectionHandler) ListInspections(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	result, err := h.service.ListInspections(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
