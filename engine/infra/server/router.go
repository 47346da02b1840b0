package server

import (
	"github.com/gin-gonic/gin"

	authmiddleware "github.com/allyplatform/ally-config/engine/infra/server/middleware/auth"
	"github.com/allyplatform/ally-config/engine/infra/server/middleware/reqlog"
)

// APIBase is the versioned route prefix.
const APIBase = "/api/v1"

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqlog.Middleware(s.ctx))
	if s.cfg.Server.CORSEnabled {
		r.Use(corsMiddleware())
	}

	api := r.Group(APIBase)
	registerConfigRoutes(api, s.service)
	registerHealthRoutes(r, api, s.service)

	authManager := authmiddleware.NewManager(s.cfg.Server.AdminToken)
	admin := api.Group("/admin", authManager.RequireAdmin())
	registerAdminRoutes(admin, s.controller)
	return r
}

// corsMiddleware allows browser clients on other origins to fetch
// configuration. The read surface carries no credentials, so a permissive
// policy is acceptable; the admin surface is still token-gated.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Tenant-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
