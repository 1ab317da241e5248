package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/holi87/hardware-registry/prometheus"
)

const serviceVersion = "0.1.0"

// HealthCheck reports service liveness
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Version returns the service version
func Version(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"version": serviceVersion})
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
