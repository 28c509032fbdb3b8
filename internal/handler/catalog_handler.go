package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/middleware"
	"github.com/jalanria/service-rental/internal/common/response"
)

// CatalogHandler serves fare quotes, vehicle types and bookable units.
type CatalogHandler struct {
	tariffs *application.TariffService
	fleet   *application.FleetService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(tariffs *application.TariffService, fleet *application.FleetService) *CatalogHandler {
	return &CatalogHandler{tariffs: tariffs, fleet: fleet}
}

// RegisterRoutes registers the public catalog routes and the unit listing.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	public := r.Group("/api/v1")
	{
		public.POST("/quotes", h.Quote)
		public.GET("/vehicle-types", h.ListVehicleTypes)
	}

	units := r.Group("/api/v1/units")
	units.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleCustomer, auth.RoleAdmin))
	{
		units.GET("", h.ListUnits)
	}
}

// Quote handles POST /api/v1/quotes.
func (h *CatalogHandler) Quote(c *gin.Context) {
	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.tariffs.Quote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListVehicleTypes handles GET /api/v1/vehicle-types.
func (h *CatalogHandler) ListVehicleTypes(c *gin.Context) {
	result, err := h.tariffs.ListTariffs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListUnits handles GET /api/v1/units?vehicle_type=.
func (h *CatalogHandler) ListUnits(c *gin.Context) {
	result, err := h.fleet.ListUnits(c.Request.Context(), c.Query("vehicle_type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
