package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/middleware"
	"github.com/jalanria/service-rental/internal/common/response"
	bookingDomain "github.com/jalanria/service-rental/internal/domain/booking"
)

// AdminBookingHandler handles admin HTTP requests for bookings and tariffs.
type AdminBookingHandler struct {
	service *application.BookingService
	tariffs *application.TariffService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService, tariffs *application.TariffService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service, tariffs: tariffs}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.POST("/bookings/:id/confirm", h.ConfirmBooking)
		admin.POST("/bookings/:id/assign", h.AssignDriver)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/tariffs", h.ListTariffs)
		admin.PUT("/tariffs", h.UpsertTariff)
	}
}

// ListBookings handles GET /api/v1/admin/bookings?status=&driver_id=.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	filter := bookingDomain.ListFilter{Status: bookingDomain.BookingStatus(c.Query("status"))}
	if raw := c.Query("driver_id"); raw != "" {
		driverID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid driver ID")
			return
		}
		filter.DriverID = &driverID
	}

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// ConfirmBooking handles POST /api/v1/admin/bookings/:id/confirm.
func (h *AdminBookingHandler) ConfirmBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}

	result, err := h.service.ConfirmBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AssignDriver handles POST /api/v1/admin/bookings/:id/assign.
func (h *AdminBookingHandler) AssignDriver(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}

	var req application.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AssignDriver(c.Request.Context(), bookingID, req.DriverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ListTariffs handles GET /api/v1/admin/tariffs.
func (h *AdminBookingHandler) ListTariffs(c *gin.Context) {
	result, err := h.tariffs.ListTariffs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpsertTariff handles PUT /api/v1/admin/tariffs.
func (h *AdminBookingHandler) UpsertTariff(c *gin.Context) {
	var req application.UpsertTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.tariffs.UpsertTariff(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
