package devrelay

import (
	"github.com/labstack/echo/v4"
)

// SetupRouter registers the relay's routes.
func SetupRouter(e *echo.Echo, handler *Handler) {
	e.GET("/ws", handler.HandleWebSocket)
	e.GET("/health", handler.HandleHealth)
}
