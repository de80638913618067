// Package routes assembles the optional HTTP surface.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sysmonitor/internal/config"
	"sysmonitor/internal/controllers"
	"sysmonitor/internal/logging"
	"sysmonitor/internal/middleware"
	"sysmonitor/internal/services"
)

// Deps holds everything the router serves from
type Deps struct {
	Config config.ServerConfig
	Store  *services.SnapshotStore
	Hub    *services.WebSocketHub
	Auth   *services.AuthService // nil disables stream authentication
	Log    zerolog.Logger
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	httpLog := logging.Component(d.Log, "http")
	security := middleware.NewSecurityLogger(logging.Component(d.Log, "security"))
	tls := d.Config.TLSCert != "" && d.Config.TLSKey != ""

	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(httpLog),
		middleware.SecurityHeadersMiddleware(tls),
		middleware.CORSMiddleware(d.Config.AllowedOrigins),
		middleware.IPWhitelistMiddleware(middleware.NewIPWhitelist(d.Config.AllowedIPs), security),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(d.Config.RateLimit, d.Config.RateBurst), security),
	)

	RegisterMonitorRoutes(r, controllers.NewSnapshotController(d.Store), services.NewRegistry(services.NewSnapshotExporter(d.Store)))

	var validator controllers.TokenValidator
	if d.Auth != nil {
		validator = d.Auth
	}
	RegisterStreamRoutes(r, controllers.NewWebSocketController(
		d.Hub, validator, d.Config.AllowedOrigins, security, logging.Component(d.Log, "ws"),
	))

	return r
}
