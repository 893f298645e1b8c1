package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bekkerfineart/gallery/internal/application/services"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// InventoryHandler handles artwork and sale requests
type InventoryHandler struct {
	inventoryService *services.InventoryService
	logger           *logger.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *services.InventoryService, logger *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

type ArtworkResponse struct {
	Success bool              `json:"success"`
	Artwork *entities.Artwork `json:"artwork"`
}

type ArtworksResetResponse struct {
	Success  bool               `json:"success"`
	Message  string             `json:"message"`
	Artworks []entities.Artwork `json:"artworks"`
}

type SaleResponse struct {
	Success bool           `json:"success"`
	Sale    *entities.Sale `json:"sale"`
}

type SalesResetResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Sales   []entities.Sale `json:"sales"`
}

type RecordSaleResponse struct {
	Success bool              `json:"success"`
	Sale    *entities.Sale    `json:"sale"`
	Artwork *entities.Artwork `json:"artwork"`
}

// ListArtworks godoc
// @Summary List artworks
// @Description Every artwork in inventory order, sold pieces included
// @Tags artworks
// @Produce json
// @Success 200 {array} entities.Artwork
// @Router /artworks [get]
func (h *InventoryHandler) ListArtworks(c echo.Context) error {
	artworks, err := h.inventoryService.ListArtworks(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to load artworks")
	}
	return c.JSON(http.StatusOK, artworks)
}

// CreateArtwork godoc
// @Summary Create artwork
// @Description Add an artwork. An id is generated when none is given.
// @Tags artworks
// @Accept json
// @Produce json
// @Param request body entities.Artwork true "Artwork"
// @Success 200 {object} ArtworkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /artworks [post]
func (h *InventoryHandler) CreateArtwork(c echo.Context) error {
	var artwork entities.Artwork
	if err := c.Bind(&artwork); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	created, err := h.inventoryService.CreateArtwork(c.Request().Context(), &artwork)
	if err != nil {
		return fail(h.logger, err, "Failed to create artwork")
	}

	return c.JSON(http.StatusOK, ArtworkResponse{Success: true, Artwork: created})
}

// UpdateArtwork godoc
// @Summary Update artwork
// @Description Replace the artwork with the same id
// @Tags artworks
// @Accept json
// @Produce json
// @Param request body entities.Artwork true "Artwork"
// @Success 200 {object} ArtworkResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /artworks [put]
func (h *InventoryHandler) UpdateArtwork(c echo.Context) error {
	var artwork entities.Artwork
	if err := c.Bind(&artwork); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	updated, err := h.inventoryService.UpdateArtwork(c.Request().Context(), &artwork)
	if err != nil {
		return fail(h.logger, err, "Failed to update artwork")
	}

	return c.JSON(http.StatusOK, ArtworkResponse{Success: true, Artwork: updated})
}

// DeleteArtwork godoc
// @Summary Delete artwork
// @Tags artworks
// @Produce json
// @Param id query string true "Artwork ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /artworks [delete]
func (h *InventoryHandler) DeleteArtwork(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Artwork ID required")
	}

	if err := h.inventoryService.DeleteArtwork(c.Request().Context(), id); err != nil {
		return fail(h.logger, err, "Failed to delete artwork")
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ResetArtworks godoc
// @Summary Reset artworks
// @Description Overwrite the inventory with the seed artworks
// @Tags artworks
// @Produce json
// @Success 200 {object} ArtworksResetResponse
// @Security BearerAuth
// @Router /artworks/reset [post]
func (h *InventoryHandler) ResetArtworks(c echo.Context) error {
	artworks, err := h.inventoryService.ResetArtworks(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to reset artworks")
	}

	return c.JSON(http.StatusOK, ArtworksResetResponse{
		Success:  true,
		Message:  "Artworks reset to initial state",
		Artworks: artworks,
	})
}

// ListSales godoc
// @Summary List sales
// @Tags sales
// @Produce json
// @Success 200 {array} entities.Sale
// @Security BearerAuth
// @Router /sales [get]
func (h *InventoryHandler) ListSales(c echo.Context) error {
	sales, err := h.inventoryService.ListSales(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to load sales")
	}
	return c.JSON(http.StatusOK, sales)
}

// CreateSale godoc
// @Summary Create a sale
// @Description Store a sale as is. Use /sales/record to also mark the artwork sold.
// @Tags sales
// @Accept json
// @Produce json
// @Param request body entities.Sale true "Sale"
// @Success 200 {object} SaleResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales [post]
func (h *InventoryHandler) CreateSale(c echo.Context) error {
	var sale entities.Sale
	if err := c.Bind(&sale); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	created, err := h.inventoryService.CreateSale(c.Request().Context(), &sale)
	if err != nil {
		return fail(h.logger, err, "Failed to create sale")
	}

	return c.JSON(http.StatusOK, SaleResponse{Success: true, Sale: created})
}

// UpdateSale godoc
// @Summary Update a sale
// @Tags sales
// @Accept json
// @Produce json
// @Param request body entities.Sale true "Sale"
// @Success 200 {object} SaleResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales [put]
func (h *InventoryHandler) UpdateSale(c echo.Context) error {
	var sale entities.Sale
	if err := c.Bind(&sale); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	updated, err := h.inventoryService.UpdateSale(c.Request().Context(), &sale)
	if err != nil {
		return fail(h.logger, err, "Failed to update sale")
	}

	return c.JSON(http.StatusOK, SaleResponse{Success: true, Sale: updated})
}

// DeleteSale godoc
// @Summary Delete a sale
// @Tags sales
// @Produce json
// @Param id query string true "Sale ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales [delete]
func (h *InventoryHandler) DeleteSale(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Sale ID required")
	}

	if err := h.inventoryService.DeleteSale(c.Request().Context(), id); err != nil {
		return fail(h.logger, err, "Failed to delete sale")
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ResetSales godoc
// @Summary Reset sales
// @Description Overwrite the sales ledger with the seed sales
// @Tags sales
// @Produce json
// @Success 200 {object} SalesResetResponse
// @Security BearerAuth
// @Router /sales/reset [post]
func (h *InventoryHandler) ResetSales(c echo.Context) error {
	sales, err := h.inventoryService.ResetSales(c.Request().Context())
	if err != nil {
		return fail(h.logger, err, "Failed to reset sales")
	}

	return c.JSON(http.StatusOK, SalesResetResponse{
		Success: true,
		Message: "Sales reset to initial state",
		Sales:   sales,
	})
}

// RecordSale godoc
// @Summary Record a sale
// @Description Store a completed sale and mark the artwork sold
// @Tags sales
// @Accept json
// @Produce json
// @Param request body ports.RecordSaleRequest true "Sale"
// @Success 200 {object} RecordSaleResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /sales/record [post]
func (h *InventoryHandler) RecordSale(c echo.Context) error {
	var req ports.RecordSaleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sale, artwork, err := h.inventoryService.RecordSale(c.Request().Context(), req)
	if err != nil {
		return fail(h.logger, err, "Failed to record sale")
	}

	h.logger.LogAdminAction(adminFromContext(c), "record_sale", map[string]interface{}{
		"sale_id":    sale.ID,
		"artwork_id": artwork.ID,
	})

	return c.JSON(http.StatusOK, RecordSaleResponse{Success: true, Sale: sale, Artwork: artwork})
}
