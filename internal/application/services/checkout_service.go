package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// InquiryType tags forwarded checkout inquiries
const InquiryType = "checkout"

// CheckoutService prices carts and turns checkouts into purchase inquiries
type CheckoutService struct {
	artworkRepo ports.ArtworkRepository
	contacts    *ContactService
	forwarder   ports.InquiryForwarder
	formType    string
	logger      *logger.Logger
	now         func() time.Time
}

// NewCheckoutService creates a new checkout service. forwarder may be nil.
func NewCheckoutService(artworkRepo ports.ArtworkRepository, contacts *ContactService, forwarder ports.InquiryForwarder, formType string, logger *logger.Logger) *CheckoutService {
	return &CheckoutService{
		artworkRepo: artworkRepo,
		contacts:    contacts,
		forwarder:   forwarder,
		formType:    formType,
		logger:      logger,
		now:         time.Now,
	}
}

// Quote prices the cart lines against the current inventory
func (s *CheckoutService) Quote(ctx context.Context, lines []entities.CartLine) (*entities.Quote, error) {
	artworks, err := s.artworkRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load artworks: %w", err)
	}

	cart := entities.Cart{Lines: lines}
	quote, err := cart.Price(artworks)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// Checkout stores a purchase inquiry for the cart and forwards it to the external
// collector when one is configured. Forwarding failures are logged only.
func (s *CheckoutService) Checkout(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutResponse, error) {
	quote, err := s.Quote(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	info := req.CustomerInfo
	requests := strings.TrimSpace(info.SpecialRequests)
	if requests == "" {
		requests = "No special requests."
	}
	total := quote.Total

	contact, err := s.contacts.Submit(ctx, ports.ContactSubmission{
		Type:               entities.ContactTypePurchaseInquiry,
		Name:               info.Name,
		Email:              info.Email,
		Phone:              info.Phone,
		Message:            fmt.Sprintf("Purchase inquiry for %d %s. %s", len(quote.Lines), pluralItems(len(quote.Lines)), requests),
		ArtworkIDs:         quote.ArtworkIDs(),
		TotalAmount:        &total,
		DeliveryPreference: info.DeliveryPreference,
		SpecialRequests:    info.SpecialRequests,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store inquiry: %w", err)
	}

	if s.forwarder != nil {
		payload := &ports.InquiryPayload{
			FormType:     s.formType,
			Type:         InquiryType,
			CustomerInfo: &info,
			Items:        ports.NewInquiryItems(quote.Lines),
			Total:        quote.Total,
			Timestamp:    entities.Timestamp(s.now()),
		}
		if err := s.forwarder.Forward(ctx, payload); err != nil {
			s.logger.Warnw("Failed to forward checkout inquiry",
				"contact_id", contact.ID,
				"error", err.Error(),
			)
		}
	}

	s.logger.Infow("Checkout inquiry stored",
		"contact_id", contact.ID,
		"items", quote.ItemCount,
		"total", quote.Total,
	)

	return &ports.CheckoutResponse{
		Success: true,
		Contact: contact,
		Quote:   quote,
	}, nil
}

func pluralItems(n int) string {
	if n == 1 {
		return "item"
	}
	return "items"
}
