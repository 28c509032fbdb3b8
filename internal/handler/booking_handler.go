package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jalanria/service-rental/internal/application"
	"github.com/jalanria/service-rental/internal/common/auth"
	"github.com/jalanria/service-rental/internal/common/middleware"
	"github.com/jalanria/service-rental/internal/common/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", middleware.RequireRole(auth.RoleCustomer, auth.RoleAdmin), h.CancelBooking)
	}
}

// ListBookings handles GET /api/v1/bookings. Customers see their own
// bookings and drivers the trips assigned to them.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListMyBookings(c.Request.Context(), actor, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := pathID(c, "id", "booking")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var body application.CancelBookingRequest
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelBooking(c.Request.Context(), actor, bookingID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
