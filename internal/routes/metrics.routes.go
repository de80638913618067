package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sysmonitor/internal/controllers"
)

// RegisterMonitorRoutes registers the snapshot and Prometheus endpoints
func RegisterMonitorRoutes(r *gin.Engine, sc *controllers.SnapshotController, reg *prometheus.Registry) {
	r.GET("/healthz", sc.GetHealth)

	api := r.Group("/api")
	{
		api.GET("/snapshot", sc.GetSnapshot)
		api.GET("/snapshot/text", sc.GetSnapshotText)
	}

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}
