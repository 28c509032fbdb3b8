package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jalanria/service-rental/internal/common/domain"
)

// Envelope is the uniform JSON body for every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *PageMeta   `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// PageMeta carries pagination details for list responses.
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &PageMeta{Total: total, Page: page, Limit: limit, TotalPages: pages},
	})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, "bad_request", message, false)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, "unauthorized", message, false)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, "forbidden", message, false)
}

// Error maps a domain error to the matching HTTP status.
func Error(c *gin.Context, err error) {
	var (
		validation  *domain.ValidationError
		notFound    *domain.NotFoundError
		conflict    *domain.ConflictError
		forbidden   *domain.ForbiddenError
		state       *domain.InvalidStateError
		unavailable *domain.UnavailableError
	)

	switch {
	case errors.As(err, &validation):
		abort(c, http.StatusBadRequest, "validation_error", validation.Message, false)
	case errors.As(err, &notFound):
		abort(c, http.StatusNotFound, "not_found", notFound.Error(), false)
	case errors.As(err, &conflict):
		abort(c, http.StatusConflict, "conflict", conflict.Message, true)
	case errors.As(err, &forbidden):
		abort(c, http.StatusForbidden, "forbidden", forbidden.Message, false)
	case errors.As(err, &state):
		abort(c, http.StatusUnprocessableEntity, "invalid_state", state.Error(), false)
	case errors.As(err, &unavailable):
		abort(c, http.StatusServiceUnavailable, "unavailable", unavailable.Message, true)
	default:
		abort(c, http.StatusInternalServerError, "internal_error", "internal server error", false)
	}
}

func abort(c *gin.Context, status int, code, message string, retryable bool) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Retryable: retryable},
	})
}
