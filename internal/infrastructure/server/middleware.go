package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	httpHandlers "github.com/bekkerfineart/gallery/internal/adapters/http"
	"github.com/bekkerfineart/gallery/internal/application/services"
)

// authMiddleware validates admin bearer tokens
func (s *Server) authMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error":    err.Error(),
					"endpoint": c.Request().URL.Path,
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(httpHandlers.AdminContextKey, claims.Username)
			return next(c)
		}
	}
}

// auditMiddleware logs every successful dashboard mutation
func (s *Server) auditMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil || c.Request().Method == http.MethodGet {
				return err
			}
			admin, _ := c.Get(httpHandlers.AdminContextKey).(string)
			s.logger.
				WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				LogAdminAction(admin, c.Request().Method+" "+c.Path(), map[string]interface{}{
					"status": c.Response().Status,
				})
			return nil
		}
	}
}

// isStreaming reports whether the request is a websocket upgrade, which must bypass
// the timeout and rate limit middleware
func isStreaming(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
}
