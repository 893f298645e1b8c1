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

// UploadHandler handles artwork image uploads
type UploadHandler struct {
	uploadService *services.UploadService
	logger        *logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *services.UploadService, logger *logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// Upload godoc
// @Summary Upload an image
// @Description Store an artwork image on the CDN, inline as a data URL when the CDN is unavailable
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (jpeg, png or webp, 10MB max)"
// @Success 200 {object} ports.UploadResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	file, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	defer file.Close()

	resp, err := h.uploadService.Upload(c.Request().Context(), ports.UploadFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	switch {
	case errors.Is(err, entities.ErrUnsupportedFileType):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file type")
	case errors.Is(err, entities.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusBadRequest, "File too large. Max size: 10MB.")
	case err != nil:
		return fail(h.logger, err, "Upload failed. Please try again.")
	}

	return c.JSON(http.StatusOK, resp)
}
