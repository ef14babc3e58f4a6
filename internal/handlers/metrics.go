package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dealerflow/dealerflow/internal/metrics"
)

type MetricsHandler struct {
	counters *metrics.Counters
	logger   *slog.Logger
}

func NewMetricsHandler(log *slog.Logger, counters *metrics.Counters) *MetricsHandler {
	return &MetricsHandler{
		counters: counters,
		logger:   log.With(slog.String("handler", "metrics")),
	}
}

func (h *MetricsHandler) Register(e *echo.Echo) {
	e.GET("/metrics", h.GetMetrics)
}

// GetMetrics godoc
// @Summary Process counters
// @Description Returns the in-process pipeline counters
// @Tags metrics
// @Success 200 {object} map[string]int64
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.counters.Snapshot())
}
