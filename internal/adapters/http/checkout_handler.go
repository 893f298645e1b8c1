package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bekkerfineart/gallery/internal/application/services"
	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// CheckoutHandler handles cart pricing, purchase inquiries and PayFast payments
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	paymentService  *services.PaymentService
	logger          *logger.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *services.CheckoutService, paymentService *services.PaymentService, logger *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		paymentService:  paymentService,
		logger:          logger,
	}
}

type NotifyResponse struct {
	Status string `json:"status"`
}

// Quote godoc
// @Summary Price a cart
// @Description Price cart lines against the current inventory, framing included
// @Tags checkout
// @Accept json
// @Produce json
// @Param request body entities.Cart true "Cart"
// @Success 200 {object} entities.Quote
// @Failure 400 {object} ErrorResponse
// @Router /cart/quote [post]
func (h *CheckoutHandler) Quote(c echo.Context) error {
	var cart entities.Cart
	if err := c.Bind(&cart); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&cart); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	quote, err := h.checkoutService.Quote(c.Request().Context(), cart.Lines)
	if err != nil {
		return fail(h.logger, err, "Failed to price cart")
	}
	return c.JSON(http.StatusOK, quote)
}

// Checkout godoc
// @Summary Submit a purchase inquiry
// @Tags checkout
// @Accept json
// @Produce json
// @Param request body ports.CheckoutRequest true "Checkout"
// @Success 200 {object} ports.CheckoutResponse
// @Failure 400 {object} ErrorResponse
// @Router /checkout [post]
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	var req ports.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.checkoutService.Checkout(c.Request().Context(), req)
	if err != nil {
		return fail(h.logger, err, "Failed to submit inquiry")
	}
	return c.JSON(http.StatusOK, resp)
}

// CreatePayment godoc
// @Summary Start a PayFast payment
// @Description Build the signed form the browser posts to PayFast
// @Tags payment
// @Accept json
// @Produce json
// @Param request body ports.PaymentRequest true "Payment"
// @Success 200 {object} ports.PaymentResponse
// @Failure 400 {object} ErrorResponse
// @Router /payment [post]
func (h *CheckoutHandler) CreatePayment(c echo.Context) error {
	var req ports.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}

	resp, err := h.paymentService.CreatePayment(c.Request().Context(), req, c.Request().Header.Get(echo.HeaderOrigin))
	if err != nil {
		return fail(h.logger, err, "Failed to create payment")
	}
	return c.JSON(http.StatusOK, resp)
}

// Notify godoc
// @Summary PayFast ITN callback
// @Description Verify an Instant Transaction Notification
// @Tags payment
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} NotifyResponse
// @Failure 400 {object} ErrorResponse
// @Router /payment/notify [post]
func (h *CheckoutHandler) Notify(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification")
	}

	if _, err := h.paymentService.HandleNotification(c.Request().Context(), form); err != nil {
		h.logger.LogSecurityEvent("payment_notification_rejected", "", c.RealIP(), map[string]interface{}{
			"error": err.Error(),
		})
		if code := statusFor(err); code != http.StatusInternalServerError {
			return echo.NewHTTPError(code, capitalize(err.Error()))
		}
		return fail(h.logger, err, "Processing failed")
	}

	return c.JSON(http.StatusOK, NotifyResponse{Status: "OK"})
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
