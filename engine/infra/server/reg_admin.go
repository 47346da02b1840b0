package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allyplatform/ally-config/engine/configsvc"
)

func registerAdminRoutes(admin *gin.RouterGroup, controller *configsvc.Controller) {
	group := admin.Group("/config")
	group.POST("/reload", handleReload(controller))
	group.POST("/clear-cache", handleClearCache(controller))
}

// handleReload re-reads the base document and returns the audit diff.
// Unlike the read surface, admin operations fail loudly: a broken store or
// cache yields a 500 so the operator knows the reload did not take effect.
func handleReload(controller *configsvc.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := controller.Reload(c.Request.Context())
		if err != nil {
			respondAdminError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":    result,
			"message": "Configuration reloaded",
		})
	}
}

// handleClearCache purges cache entries, optionally scoped to one section
// via ?section=.
func handleClearCache(controller *configsvc.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		section := c.Query("section")
		purged, err := controller.ClearCache(c.Request.Context(), section)
		if err != nil {
			respondAdminError(c, err)
			return
		}
		if purged == nil {
			purged = []string{}
		}
		c.JSON(http.StatusOK, gin.H{
			"data": gin.H{
				"purged_keys": purged,
				"section":     section,
			},
			"message": "Cache cleared",
		})
	}
}

func respondAdminError(c *gin.Context, err error) {
	var adminErr *configsvc.AdminOperationError
	details := err.Error()
	operation := "admin operation"
	if errors.As(err, &adminErr) {
		operation = adminErr.Op
		details = adminErr.Err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Admin operation failed",
		"details": details,
		"op":      operation,
	})
}
