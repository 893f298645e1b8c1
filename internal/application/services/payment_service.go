package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/metrics"
	"github.com/bekkerfineart/gallery/internal/infrastructure/payfast"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// PaymentService starts PayFast checkouts and receives their notifications
type PaymentService struct {
	cfg        config.PayFastConfig
	baseURL    string
	checkout   *CheckoutService
	activities *ActivityService
	logger     *logger.Logger
}

// NewPaymentService creates a new payment service. baseURL may be empty, in which case
// the caller passes the request origin to CreatePayment.
func NewPaymentService(cfg config.PayFastConfig, baseURL string, checkout *CheckoutService, activities *ActivityService, logger *logger.Logger) *PaymentService {
	return &PaymentService{
		cfg:        cfg,
		baseURL:    baseURL,
		checkout:   checkout,
		activities: activities,
		logger:     logger.WithComponent("payfast"),
	}
}

// CreatePayment builds the signed form the browser posts to PayFast. When the request
// carries a cart breakdown the amount must match the server-side quote.
func (s *PaymentService) CreatePayment(ctx context.Context, req ports.PaymentRequest, origin string) (*ports.PaymentResponse, error) {
	if len(req.CartItems) > 0 {
		if err := s.verifyAmount(ctx, req); err != nil {
			return nil, err
		}
	}

	baseURL := s.baseURL
	if baseURL == "" {
		baseURL = origin
	}
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	data := payfast.BuildPayment(s.cfg, baseURL, req)

	s.logger.Infow("Payment initiated",
		"payment_id", req.PaymentID,
		"amount", data["amount"],
		"items", len(req.CartItems),
	)
	_, _ = s.activities.Record(ctx, entities.ActivityPaymentInitiated,
		fmt.Sprintf("Payment initiated: %s", data["item_name"]),
		fmt.Sprintf("R%s by %s %s", data["amount"], req.FirstName, req.LastName),
		map[string]interface{}{"paymentId": req.PaymentID, "amount": data["amount"]},
	)

	return &ports.PaymentResponse{
		Success:     true,
		PaymentURL:  s.cfg.ProcessURL,
		PaymentData: data,
	}, nil
}

func (s *PaymentService) verifyAmount(ctx context.Context, req ports.PaymentRequest) error {
	lines := make([]entities.CartLine, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		framing, err := parseFraming(item.Framing)
		if err != nil {
			return err
		}
		lines = append(lines, entities.CartLine{ID: item.ID, Framing: framing, Quantity: item.Quantity})
	}

	quote, err := s.checkout.Quote(ctx, lines)
	if err != nil {
		return err
	}
	if math.Abs(quote.Total-req.Amount.Float64()) > 0.005 {
		s.logger.Warnw("Payment amount does not match cart",
			"payment_id", req.PaymentID,
			"amount", req.Amount.Float64(),
			"quote", quote.Total,
		)
		return fmt.Errorf("%w: expected %s", entities.ErrAmountMismatch, payfast.FormatAmount(quote.Total))
	}
	return nil
}

func parseFraming(s string) (entities.Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null":
		return entities.FramingNone, nil
	}
	f := entities.Framing(strings.TrimSpace(s))
	if !f.IsValid() {
		return entities.FramingNone, fmt.Errorf("unknown framing %q", s)
	}
	return f, nil
}

// HandleNotification verifies an ITN callback and records it. Nothing else is updated;
// reconciling the payment with sales stays a manual dashboard step.
func (s *PaymentService) HandleNotification(ctx context.Context, form url.Values) (*payfast.Notification, error) {
	n := payfast.ParseNotification(form)

	if err := n.Verify(s.cfg.NotifyMerchantID, s.cfg.NotifyPassphrase); err != nil {
		metrics.PaymentNotifications.WithLabelValues(n.Status, "rejected").Inc()
		s.logger.Warnw("PayFast notification rejected",
			"payment_id", n.PaymentID,
			"merchant_id", n.MerchantID,
			"error", err.Error(),
		)
		return nil, err
	}
	metrics.PaymentNotifications.WithLabelValues(n.Status, "accepted").Inc()

	fields := []interface{}{
		"payment_id", n.PaymentID,
		"pf_payment_id", n.PfPaymentID,
		"status", n.Status,
		"amount", n.AmountGross,
	}
	switch n.Status {
	case payfast.StatusComplete:
		s.logger.Infow("Payment completed", fields...)
	case payfast.StatusFailed:
		s.logger.Warnw("Payment failed", fields...)
	case payfast.StatusPending:
		s.logger.Infow("Payment pending", fields...)
	default:
		s.logger.Infow("Payment notification with unknown status", fields...)
	}

	_, _ = s.activities.Record(ctx, entities.ActivityPaymentNotified,
		fmt.Sprintf("Payment %s: %s", strings.ToLower(n.Status), n.ItemName),
		fmt.Sprintf("R%s (%s)", n.AmountGross, n.PaymentID),
		map[string]interface{}{
			"paymentId":   n.PaymentID,
			"pfPaymentId": n.PfPaymentID,
			"status":      n.Status,
			"amount":      n.AmountGross,
		},
	)
	return n, nil
}
