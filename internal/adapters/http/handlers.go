package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bekkerfineart/gallery/internal/application/services"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// AdminContextKey holds the username of the authenticated admin in the echo context
const AdminContextKey = "admin"

// AuthHandler handles dashboard login
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Admin login
// @Description Exchange the dashboard credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.LogSecurityEvent("login_failed", req.Username, c.RealIP(), nil)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}

// ActivityHandler serves the dashboard activity feed
type ActivityHandler struct {
	activityService *services.ActivityService
	logger          *logger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *services.ActivityService, logger *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// ListActivities godoc
// @Summary Recent activity
// @Description The newest dashboard activities, at most 50
// @Tags activities
// @Produce json
// @Success 200 {array} ports.ActivityEntry
// @Security BearerAuth
// @Router /activities [get]
func (h *ActivityHandler) ListActivities(c echo.Context) error {
	activities, err := h.activityService.Feed(c.Request().Context())
	if err != nil {
		h.logger.WithError(err).Error("List activities failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load activities")
	}
	return c.JSON(http.StatusOK, activities)
}

// Request/Response types

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrArtworkNotFound),
		errors.Is(err, entities.ErrSaleNotFound),
		errors.Is(err, entities.ErrContactNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, entities.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, entities.ErrMissingID),
		errors.Is(err, entities.ErrValidation),
		errors.Is(err, entities.ErrArtworkUnavailable),
		errors.Is(err, entities.ErrEmptyCart),
		errors.Is(err, entities.ErrInvalidSettings),
		errors.Is(err, entities.ErrUnsupportedFileType),
		errors.Is(err, entities.ErrFileTooLarge),
		errors.Is(err, entities.ErrAmountMismatch),
		errors.Is(err, entities.ErrInvalidSignature),
		errors.Is(err, entities.ErrInvalidMerchant):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail logs err and converts it to an HTTP error. Server errors get the generic
// message; client errors carry the domain error text.
func fail(log *logger.Logger, err error, message string) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.WithError(err).Error(message)
		return echo.NewHTTPError(code, message).SetInternal(err)
	}
	log.Debugw(message, "error", err.Error(), "status", code)
	return echo.NewHTTPError(code, rootMessage(err))
}

// rootMessage returns the text of the innermost domain error wrapped in err, or the
// full error text when none is known.
func rootMessage(err error) string {
	known := []error{
		entities.ErrArtworkNotFound,
		entities.ErrSaleNotFound,
		entities.ErrContactNotFound,
		entities.ErrDuplicateID,
		entities.ErrMissingID,
		entities.ErrInvalidCredentials,
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return err.Error()
}

func adminFromContext(c echo.Context) string {
	if name, ok := c.Get(AdminContextKey).(string); ok {
		return name
	}
	return ""
}
