package server

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/allyplatform/ally-config/engine/configsvc"
)

// TenantHeader selects the tenant scope for a read. Absent means base scope.
const TenantHeader = "X-Tenant-ID"

var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

// sectionRoutes are the top-level document sections served as dedicated
// endpoints.
var sectionRoutes = []string{"branding", "features", "ui", "ai"}

func registerConfigRoutes(api *gin.RouterGroup, service *configsvc.Service) {
	group := api.Group("/config")
	group.GET("", handleFullConfig(service))
	for _, section := range sectionRoutes {
		group.GET("/"+section, handleSection(service, section))
	}
	group.GET("/feature/:name", handleFeatureFlag(service))
	group.GET("/company", handleCompany(service))
}

// handleFullConfig serves the fully resolved document for the request's
// scope. Reads never fail: a degraded pipeline still returns the best
// available document with the degraded marker set.
func handleFullConfig(service *configsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantScope(c)
		if !ok {
			return
		}
		doc, degraded := service.Resolve(c.Request.Context(), tenantID)
		respondData(c, doc, degraded)
	}
}

func handleSection(service *configsvc.Service, section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantScope(c)
		if !ok {
			return
		}
		doc, found, degraded := service.Section(c.Request.Context(), tenantID, section)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Section not found",
				"details": "The resolved configuration has no section named " + section,
			})
			return
		}
		respondData(c, doc, degraded)
	}
}

func handleFeatureFlag(service *configsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantScope(c)
		if !ok {
			return
		}
		name := c.Param("name")
		enabled, degraded := service.FeatureFlag(c.Request.Context(), tenantID, name)
		respondData(c, gin.H{"feature": name, "enabled": enabled}, degraded)
	}
}

func handleCompany(service *configsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantScope(c)
		if !ok {
			return
		}
		company, degraded := service.Company(c.Request.Context(), tenantID)
		respondData(c, company, degraded)
	}
}

// tenantScope extracts and validates the tenant header. A malformed value
// is the one read-path client error: it gets a 400 instead of silently
// resolving the wrong scope.
func tenantScope(c *gin.Context) (string, bool) {
	tenantID := c.GetHeader(TenantHeader)
	if tenantID == "" {
		return "", true
	}
	if !tenantIDPattern.MatchString(tenantID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid tenant identifier",
			"details": "Tenant identifiers are 3-50 characters of letters, digits, underscore or dash",
		})
		return "", false
	}
	return tenantID, true
}

func respondData(c *gin.Context, data any, degraded bool) {
	response := gin.H{
		"data":    data,
		"message": "Success",
	}
	if degraded {
		response["degraded"] = true
	}
	c.JSON(http.StatusOK, response)
}
