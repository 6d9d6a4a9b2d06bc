package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/effluent-watch/internal/store"
)

// ReadinessProbe reports whether the monitor has evaluated a snapshot.
type ReadinessProbe interface {
	Ready() bool
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	pinger  store.Pinger
	monitor ReadinessProbe
}

// NewHealthHandler creates a new HealthHandler. Either dependency may be nil.
func NewHealthHandler(p store.Pinger, m ReadinessProbe) *HealthHandler {
	return &HealthHandler{pinger: p, monitor: m}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 once the threshold backend answers and at least one
// snapshot has been evaluated, 503 otherwise.
func (h *HealthHandler) Readyz(c echo.Context) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
		}
	}
	if h.monitor != nil && !h.monitor.Ready() {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "waiting for first snapshot"})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}

// RegisterHealthRoutes mounts the probes on e.
func RegisterHealthRoutes(e *echo.Echo, h *HealthHandler) {
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
}
