package api

import (
	"errors"
	"fitformula/api/internal/domain"
	"fitformula/api/internal/service"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Constants for context keys
const (
	ContextIdentityKey = "identity"
	ContextTokenKey    = "token"
)

// AuthMiddleware creates a Gin middleware that requires a valid bearer token.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return authenticate(authService, true)
}

// OptionalAuthMiddleware authenticates the caller when a token is sent and
// lets anonymous requests through. A token that is sent but invalid is still rejected.
func OptionalAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return authenticate(authService, false)
}

func authenticate(authService service.AuthService, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
				return
			}
			c.Next()
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		id, err := authService.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			} else {
				_ = c.Error(err)
				abortWithError(c, http.StatusServiceUnavailable, "Could not verify session")
			}
			return
		}

		// --- Token is valid ---
		c.Set(ContextIdentityKey, id)
		c.Set(ContextTokenKey, tokenString)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// identityFromContext returns the authenticated caller, or nil for anonymous requests.
func identityFromContext(c *gin.Context) *domain.Identity {
	raw, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	id, _ := raw.(*domain.Identity)
	return id
}

// RequestLogger logs one line per request once the handler chain has finished.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := identityFromContext(c); id != nil {
			fields = append(fields, zap.String("user_id", id.UserID))
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// CORS allows the web client origins to call the API with bearer tokens.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
