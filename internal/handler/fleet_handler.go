package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/middleware"
	"github.com/jalanria/service-rental/internal/common/response"
	"github.com/jalanria/service-rental/internal/domain/fleet"
)

// FleetHandler handles admin HTTP requests for vehicles and drivers.
type FleetHandler struct {
	service *application.FleetService
}

// NewFleetHandler creates a new FleetHandler.
func NewFleetHandler(service *application.FleetService) *FleetHandler {
	return &FleetHandler{service: service}
}

// RegisterRoutes registers the fleet management routes.
func (h *FleetHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	vehicles := r.Group("/api/v1/admin/vehicles")
	vehicles.Use(authMW, adminRole)
	{
		vehicles.POST("", h.RegisterVehicle)
		vehicles.GET("", h.ListVehicles)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.PUT("/:id/status", h.ChangeVehicleStatus)
		vehicles.PUT("/:id/driver", h.AssignDriver)
		vehicles.DELETE("/:id/driver", h.UnassignDriver)
	}

	drivers := r.Group("/api/v1/admin/drivers")
	drivers.Use(authMW, adminRole)
	{
		drivers.POST("", h.RegisterDriver)
		drivers.GET("", h.ListDrivers)
		drivers.PUT("/:id/active", h.SetDriverActive)
	}
}

// RegisterVehicle handles POST /api/v1/admin/vehicles.
func (h *FleetHandler) RegisterVehicle(c *gin.Context) {
	var req application.RegisterVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RegisterVehicle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListVehicles handles GET /api/v1/admin/vehicles?status=&vehicle_type=.
func (h *FleetHandler) ListVehicles(c *gin.Context) {
	page, limit := parsePagination(c)
	filter := fleet.VehicleFilter{
		Status:      fleet.VehicleStatus(c.Query("status")),
		VehicleType: c.Query("vehicle_type"),
	}

	result, err := h.service.ListVehicles(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetVehicle handles GET /api/v1/admin/vehicles/:id.
func (h *FleetHandler) GetVehicle(c *gin.Context) {
	id, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	result, err := h.service.GetVehicle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateVehicle handles PUT /api/v1/admin/vehicles/:id.
func (h *FleetHandler) UpdateVehicle(c *gin.Context) {
	id, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	var req application.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateVehicle(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ChangeVehicleStatus handles PUT /api/v1/admin/vehicles/:id/status.
func (h *FleetHandler) ChangeVehicleStatus(c *gin.Context) {
	id, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeVehicleStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AssignDriver handles PUT /api/v1/admin/vehicles/:id/driver.
func (h *FleetHandler) AssignDriver(c *gin.Context) {
	id, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	var body struct {
		DriverID uuid.UUID `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AssignVehicleDriver(c.Request.Context(), id, body.DriverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UnassignDriver handles DELETE /api/v1/admin/vehicles/:id/driver.
func (h *FleetHandler) UnassignDriver(c *gin.Context) {
	id, ok := pathID(c, "id", "vehicle")
	if !ok {
		return
	}

	result, err := h.service.UnassignVehicleDriver(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RegisterDriver handles POST /api/v1/admin/drivers.
func (h *FleetHandler) RegisterDriver(c *gin.Context) {
	var req application.RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RegisterDriver(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListDrivers handles GET /api/v1/admin/drivers?active=true.
func (h *FleetHandler) ListDrivers(c *gin.Context) {
	page, limit := parsePagination(c)
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	result, err := h.service.ListDrivers(c.Request.Context(), activeOnly, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// SetDriverActive handles PUT /api/v1/admin/drivers/:id/active.
func (h *FleetHandler) SetDriverActive(c *gin.Context) {
	id, ok := pathID(c, "id", "driver")
	if !ok {
		return
	}

	var body struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SetDriverActive(c.Request.Context(), id, *body.Active)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
