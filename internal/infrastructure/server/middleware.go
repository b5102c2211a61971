package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/gameloans/core/internal/adapters/http"
	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/ports"
)

// authMiddleware validates JWT tokens
func (s *Server) authMiddleware(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(httpHandlers.ClaimsKey, claims)

			return next(c)
		}
	}
}

// requireRole checks if user has required role
func (s *Server) requireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(httpHandlers.ClaimsKey).(*ports.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing credentials")
			}

			for _, requiredRole := range roles {
				if claims.Role == requiredRole {
					return next(c)
				}
			}

			s.logger.LogSecurityEvent("insufficient_permissions",
				claims.UserID,
				c.RealIP(),
				map[string]interface{}{
					"required_roles": roles,
					"user_role":      claims.Role,
					"endpoint":       c.Request().URL.Path,
				})

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}
