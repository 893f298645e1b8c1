package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bekkerfineart/gallery/internal/application/services"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
)

const maxSettingsBody = 64 * 1024

// ContentHandler handles storefront copy, hero slides, the collage and settings
type ContentHandler struct {
	contentService  *services.ContentService
	settingsService *services.SettingsService
	logger          *logger.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService *services.ContentService, settingsService *services.SettingsService, logger *logger.Logger) *ContentHandler {
	return &ContentHandler{
		contentService:  contentService,
		settingsService: settingsService,
		logger:          logger,
	}
}

type ContentResponse struct {
	Success bool              `json:"success"`
	Content *entities.Content `json:"content"`
}

type HeroSlidesResponse struct {
	Success bool                 `json:"success"`
	Slides  []entities.HeroSlide `json:"slides"`
}

type CollageResponse struct {
	Success bool              `json:"success"`
	Collage *entities.Collage `json:"collage"`
}

type SettingsResponse struct {
	Success  bool               `json:"success"`
	Settings *entities.Settings `json:"settings"`
}

// GetContent godoc
// @Summary Storefront copy
// @Tags content
// @Produce json
// @Success 200 {object} entities.Content
// @Router /content [get]
func (h *ContentHandler) GetContent(c echo.Context) error {
	content, err := h.contentService.GetContent(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to load content")
	}
	return c.JSON(http.StatusOK, content)
}

// SaveContent godoc
// @Summary Save storefront copy
// @Tags content
// @Accept json
// @Produce json
// @Param request body entities.Content true "Content"
// @Success 200 {object} ContentResponse
// @Security BearerAuth
// @Router /content [put]
func (h *ContentHandler) SaveContent(c echo.Context) error {
	var content entities.Content
	if err := c.Bind(&content); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.contentService.SaveContent(c.Request().Context(), &content); err != nil {
		return fail(h.logger, err, "Failed to save content")
	}
	return c.JSON(http.StatusOK, ContentResponse{Success: true, Content: &content})
}

// GetHeroSlides godoc
// @Summary Hero carousel slides
// @Tags content
// @Produce json
// @Success 200 {array} entities.HeroSlide
// @Router /hero-slides [get]
func (h *ContentHandler) GetHeroSlides(c echo.Context) error {
	slides, err := h.contentService.GetHeroSlides(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to load hero slides")
	}
	return c.JSON(http.StatusOK, slides)
}

// SaveHeroSlides godoc
// @Summary Replace the hero slides
// @Tags content
// @Accept json
// @Produce json
// @Param request body []entities.HeroSlide true "Slides"
// @Success 200 {object} HeroSlidesResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /hero-slides [put]
func (h *ContentHandler) SaveHeroSlides(c echo.Context) error {
	var slides []entities.HeroSlide
	if err := c.Bind(&slides); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if slides == nil {
		slides = []entities.HeroSlide{}
	}
	for i := range slides {
		if err := c.Validate(&slides[i]); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	if err := h.contentService.SaveHeroSlides(c.Request().Context(), slides); err != nil {
		return fail(h.logger, err, "Failed to save hero slides")
	}
	return c.JSON(http.StatusOK, HeroSlidesResponse{Success: true, Slides: slides})
}

// GetCollage godoc
// @Summary Home page collage
// @Tags content
// @Produce json
// @Success 200 {object} entities.Collage
// @Router /collage [get]
func (h *ContentHandler) GetCollage(c echo.Context) error {
	collage, err := h.contentService.GetCollage(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to load collage")
	}
	return c.JSON(http.StatusOK, collage)
}

// SaveCollage godoc
// @Summary Replace the collage
// @Tags content
// @Accept json
// @Produce json
// @Param request body entities.Collage true "Collage"
// @Success 200 {object} CollageResponse
// @Security BearerAuth
// @Router /collage [put]
func (h *ContentHandler) SaveCollage(c echo.Context) error {
	var collage entities.Collage
	if err := c.Bind(&collage); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.contentService.SaveCollage(c.Request().Context(), &collage); err != nil {
		return fail(h.logger, err, "Failed to save collage")
	}
	return c.JSON(http.StatusOK, CollageResponse{Success: true, Collage: &collage})
}

// GetSettings godoc
// @Summary Dashboard settings
// @Description Stored settings merged over the defaults
// @Tags settings
// @Produce json
// @Success 200 {object} entities.Settings
// @Router /settings [get]
func (h *ContentHandler) GetSettings(c echo.Context) error {
	settings, err := h.settingsService.Get(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to load settings")
	}
	return c.JSON(http.StatusOK, settings)
}

// SaveSettings godoc
// @Summary Save settings
// @Description Merge a partial settings object over the defaults
// @Tags settings
// @Accept json
// @Produce json
// @Success 200 {object} SettingsResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /settings [put]
func (h *ContentHandler) SaveSettings(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSettingsBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	settings, err := h.settingsService.Save(c.Request().Context(), raw)
	if err != nil {
		return fail(h.logger, err, "Failed to save settings")
	}
	return c.JSON(http.StatusOK, SettingsResponse{Success: true, Settings: settings})
}

// ResetSettings godoc
// @Summary Reset settings
// @Tags settings
// @Produce json
// @Success 200 {object} SettingsResponse
// @Security BearerAuth
// @Router /settings [post]
func (h *ContentHandler) ResetSettings(c echo.Context) error {
	settings, err := h.settingsService.Reset(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to reset settings")
	}
	return c.JSON(http.StatusOK, SettingsResponse{Success: true, Settings: settings})
}
