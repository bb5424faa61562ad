package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/erp/resale/internal/interfaces/http/dto"
	"github.com/erp/resale/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one dependency. *sql.DB satisfies it through PingContext.
type ReadinessCheck interface {
	PingContext(ctx context.Context) error
}

// ReadinessCheckFunc adapts a function to ReadinessCheck
type ReadinessCheckFunc func(ctx context.Context) error

// PingContext calls f
func (f ReadinessCheckFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler serves liveness, readiness and build information
type HealthHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]ReadinessCheck
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(name, version string) *HealthHandler {
	return &HealthHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]ReadinessCheck),
	}
}

// AddCheck registers a dependency probed by Ready
func (h *HealthHandler) AddCheck(name string, check ReadinessCheck) *HealthHandler {
	h.checks[name] = check
	return h
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status    string            `json:"status" example:"ok"`
	Name      string            `json:"name" example:"resale-erp"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version,omitempty" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Live godoc
// @ID           getHealth
// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready godoc
// @ID           getHealthReady
// @Summary      Readiness probe
// @Description  Pings the database and the other registered dependencies
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			results[name] = err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	resp := HealthResponse{
		Status:  "ok",
		Name:    h.name,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  results,
	}
	if !ready {
		resp.Status = "unavailable"
		body := dto.NewErrorResponseWithRequestID(dto.ErrCodeUnavailable, "Service is not ready", middleware.GetRequestID(c))
		body.Data = resp
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes mounts the probes at the engine root
func (h *HealthHandler) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/health", h.Live)
	rg.GET("/health/ready", h.Ready)
}
