package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wicara-ai/wicara/internal/gateway"
)

// InitRoutes initializes the gateway's HTTP routes.
func InitRoutes(e *echo.Echo, handler *gateway.Handler) {
	// Service info
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "wicara gateway",
			"status":  "running",
			"ws":      "/ws",
		})
	})

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// WebSocket endpoint
	e.GET("/ws", handler.HandleWebSocket)
}
