package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/churchops/backend/internal/interfaces/http/dto"
)

// CapabilityConfig holds configuration for capability middleware
type CapabilityConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredCaps []string)
}

// RequireCapability creates middleware that requires a specific capability.
// The application services authorize again before any write; this gate only
// rejects obviously unqualified requests at the edge.
func RequireCapability(capability string) gin.HandlerFunc {
	return RequireAnyCapability(capability)
}

// RequireAnyCapability creates middleware that passes when the caller holds at
// least one of the listed capabilities
func RequireAnyCapability(capabilities ...string) gin.HandlerFunc {
	return RequireAnyCapabilityWithConfig(CapabilityConfig{}, capabilities...)
}

// RequireAnyCapabilityWithConfig creates capability middleware with custom config
func RequireAnyCapabilityWithConfig(cfg CapabilityConfig, capabilities ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleCapabilityDenied(c, cfg, capabilities, "No authentication claims found")
			return
		}

		granted := false
		for _, capability := range capabilities {
			if claims.HasCapability(capability) {
				granted = true
				break
			}
		}
		if !granted {
			handleCapabilityDenied(c, cfg, capabilities, "User lacks required capability")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Capability check passed",
				zap.String("user_id", claims.UserID),
				zap.Strings("required_any", capabilities),
			)
		}

		c.Next()
	}
}

// HasCapability reports whether the authenticated caller holds the capability
func HasCapability(c *gin.Context, capability string) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	return claims.HasCapability(capability)
}

// handleCapabilityDenied handles capability denied scenarios
func handleCapabilityDenied(c *gin.Context, cfg CapabilityConfig, requiredCaps []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredCaps)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		userID := ""
		userCaps := []string{}
		if claims != nil {
			userID = claims.UserID
			userCaps = claims.Capabilities
		}

		cfg.Logger.Warn("Capability denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.Strings("required_capabilities", requiredCaps),
			zap.Strings("user_capabilities", userCaps),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
		dto.ErrCodeForbidden,
		"Access denied: insufficient capabilities",
	))
}
