package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Handler serves liveness and readiness probes.
type Handler struct {
	db       *gorm.DB
	service  string
	checkers []Checker
}

// NewHandler creates a Handler. Extra checkers are evaluated on /ready.
func NewHandler(db *gorm.DB, service string, checkers ...Checker) *Handler {
	return &Handler{db: db, service: service, checkers: checkers}
}

// RegisterRoutes mounts /health and /ready.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// Health always answers ok while the process is serving.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready checks the database and every registered dependency.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		checks["database"] = status(err)
		ready = ready && err == nil
	}

	for _, chk := range h.checkers {
		err := chk.Check(ctx)
		checks[chk.Name()] = status(err)
		ready = ready && err == nil
	}

	code := http.StatusOK
	state := "ready"
	if !ready {
		code = http.StatusServiceUnavailable
		state = "not_ready"
	}
	c.JSON(code, gin.H{"status": state, "service": h.service, "checks": checks})
}

func status(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
