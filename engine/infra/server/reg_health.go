package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allyplatform/ally-config/engine/configsvc"
)

// registerHealthRoutes exposes health both at the versioned API path and at
// /healthz for orchestrator probes.
func registerHealthRoutes(r *gin.Engine, api *gin.RouterGroup, service *configsvc.Service) {
	handler := createHealthHandler(service)
	api.GET("/config/health", handler)
	r.GET("/healthz", handler)
}

func createHealthHandler(service *configsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := service.HealthCheck(c.Request.Context())
		// Degraded still serves reads, so the probe stays 200 and reports
		// the detail for operators.
		c.JSON(http.StatusOK, gin.H{
			"data":    health,
			"message": "Success",
		})
	}
}
