package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bekkerfineart/gallery/internal/application/services"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// ContactHandler handles the contact form and the dashboard inbox
type ContactHandler struct {
	contactService *services.ContactService
	logger         *logger.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *services.ContactService, logger *logger.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

type ContactResponse struct {
	Success bool                     `json:"success"`
	Contact *entities.ContactMessage `json:"contact"`
}

// SubmitContact godoc
// @Summary Send a message
// @Description Store a storefront contact form submission
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body ports.ContactSubmission true "Message"
// @Success 200 {object} ContactResponse
// @Failure 400 {object} ErrorResponse
// @Router /contacts [post]
func (h *ContactHandler) SubmitContact(c echo.Context) error {
	var req ports.ContactSubmission
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact, err := h.contactService.Submit(c.Request().Context(), req)
	if err != nil {
		return fail(h.logger, err, "Failed to create contact")
	}

	return c.JSON(http.StatusOK, ContactResponse{Success: true, Contact: contact})
}

// ListContacts godoc
// @Summary List messages
// @Description The inbox, newest first
// @Tags contacts
// @Produce json
// @Success 200 {array} entities.ContactMessage
// @Security BearerAuth
// @Router /contacts [get]
func (h *ContactHandler) ListContacts(c echo.Context) error {
	contacts, err := h.contactService.List(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to load contacts")
	}
	return c.JSON(http.StatusOK, contacts)
}

// UpdateContact godoc
// @Summary Replace a message
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body entities.ContactMessage true "Message"
// @Success 200 {object} ContactResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts [put]
func (h *ContactHandler) UpdateContact(c echo.Context) error {
	var contact entities.ContactMessage
	if err := c.Bind(&contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.contactService.Update(c.Request().Context(), &contact)
	if err != nil {
		return fail(h.logger, err, "Failed to update contact")
	}

	return c.JSON(http.StatusOK, ContactResponse{Success: true, Contact: updated})
}

// PatchContact godoc
// @Summary Patch a message
// @Description Update only the fields present in the body
// @Tags contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body entities.ContactPatch true "Fields"
// @Success 200 {object} ContactResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id} [patch]
func (h *ContactHandler) PatchContact(c echo.Context) error {
	var patch entities.ContactPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contact, err := h.contactService.Patch(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return fail(h.logger, err, "Failed to update contact")
	}

	return c.JSON(http.StatusOK, ContactResponse{Success: true, Contact: contact})
}

// MarkRead godoc
// @Summary Mark a message read
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} ContactResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id}/read [post]
func (h *ContactHandler) MarkRead(c echo.Context) error {
	contact, err := h.contactService.MarkRead(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(h.logger, err, "Failed to update contact")
	}
	return c.JSON(http.StatusOK, ContactResponse{Success: true, Contact: contact})
}

// DeleteContact godoc
// @Summary Delete a message
// @Tags contacts
// @Produce json
// @Param id query string true "Contact ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts [delete]
func (h *ContactHandler) DeleteContact(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Contact ID required")
	}

	if err := h.contactService.Delete(c.Request().Context(), id); err != nil {
		return fail(h.logger, err, "Failed to delete contact")
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
