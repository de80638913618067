package routes

import (
	"github.com/gin-gonic/gin"

	"sysmonitor/internal/controllers"
)

// RegisterStreamRoutes registers the WebSocket endpoint.
// Tokens are issued from the command line only; there is no HTTP endpoint for them.
func RegisterStreamRoutes(r *gin.Engine, wc *controllers.WebSocketController) {
	r.GET("/ws", wc.HandleWebSocket)
}
