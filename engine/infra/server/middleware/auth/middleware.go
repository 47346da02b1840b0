package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allyplatform/ally-config/pkg/logger"
)

// Manager guards the admin endpoints with a static bearer token. Reads stay
// open; only mutating operations pass through here.
type Manager struct {
	adminToken string
}

// NewManager creates the auth middleware manager. An empty token disables
// the admin surface entirely.
func NewManager(adminToken string) *Manager {
	return &Manager{adminToken: adminToken}
}

// RequireAdmin returns middleware that rejects the request before any
// handler logic runs unless it carries the configured admin token.
func (m *Manager) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())
		if m.adminToken == "" {
			c.JSON(403, gin.H{
				"error":   "Admin access disabled",
				"details": "No admin token is configured for this deployment",
			})
			c.Abort()
			return
		}
		token, err := extractBearerToken(c)
		if err != nil {
			log.Debug("Admin authentication failed", "reason", err.Error())
			c.JSON(401, gin.H{
				"error":   "Authentication failed",
				"details": "Invalid or missing credentials",
			})
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.adminToken)) != 1 {
			log.Debug("Admin authentication failed", "reason", "token mismatch")
			c.JSON(401, gin.H{
				"error":   "Authentication failed",
				"details": "Invalid or missing credentials",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", &authError{message: "no authorization header"}
	}
	// Case-insensitive bearer check, tolerant of extra spaces.
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", &authError{message: "invalid format"}
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", &authError{message: "empty token"}
	}
	return token, nil
}

type authError struct {
	message string
}

func (e *authError) Error() string {
	return e.message
}
