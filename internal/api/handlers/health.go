package handlers

import (
	"context"
	"net/http"
	"time"

	"chat-backend/internal/fanout"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Health godoc
// @Summary Health check
// @Description Reports the status of each backing store
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[name] = err.Error()
			continue
		}
		body[name] = "ok"
	}
	c.JSON(status, body)
}

// ConnectionCounter reports live websocket connections
type ConnectionCounter interface {
	ClientCount() int
}

// DispatchMetrics reports aggregated fan-out counters
type DispatchMetrics interface {
	Metrics() fanout.MetricsSnapshot
}

type StatsResponse struct {
	Connections int                    `json:"connections"`
	Fanout      fanout.MetricsSnapshot `json:"fanout"`
}

type StatsHandler struct {
	conns    ConnectionCounter
	dispatch DispatchMetrics
}

func NewStatsHandler(conns ConnectionCounter, dispatch DispatchMetrics) *StatsHandler {
	return &StatsHandler{conns: conns, dispatch: dispatch}
}

// Stats godoc
// @Summary Realtime stats
// @Description Live connections and fan-out counters since start
// @Tags health
// @Produce json
// @Success 200 {object} handlers.StatsResponse
// @Router /stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	var resp StatsResponse
	if h.conns != nil {
		resp.Connections = h.conns.ClientCount()
	}
	if h.dispatch != nil {
		resp.Fanout = h.dispatch.Metrics()
	}
	c.JSON(http.StatusOK, resp)
}
