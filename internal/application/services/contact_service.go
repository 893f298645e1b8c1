package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// ContactService handles the storefront message inbox
type ContactService struct {
	repo       ports.ContactRepository
	activities *ActivityService
	forwarder  ports.InquiryForwarder
	formType   string
	logger     *logger.Logger
	now        func() time.Time
}

// ContactFormType tags forwarded storefront contact messages
const ContactFormType = "contact"

// NewContactService creates a new contact service
func NewContactService(repo ports.ContactRepository, activities *ActivityService, logger *logger.Logger) *ContactService {
	return &ContactService{
		repo:       repo,
		activities: activities,
		logger:     logger,
		now:        time.Now,
	}
}

// WithForwarder relays general contact messages to the external collector
func (s *ContactService) WithForwarder(forwarder ports.InquiryForwarder, formType string) *ContactService {
	s.forwarder = forwarder
	s.formType = formType
	return s
}

// List returns the inbox, newest first
func (s *ContactService) List(ctx context.Context) ([]entities.ContactMessage, error) {
	contacts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// Submit stores a new message with status new
func (s *ContactService) Submit(ctx context.Context, req ports.ContactSubmission) (*entities.ContactMessage, error) {
	contact := &entities.ContactMessage{
		ID:                 req.ID,
		Type:               req.Type,
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Message:            req.Message,
		Timestamp:          entities.Timestamp(s.now()),
		Status:             entities.ContactStatusNew,
		ArtworkIDs:         req.ArtworkIDs,
		TotalAmount:        req.TotalAmount,
		DeliveryPreference: req.DeliveryPreference,
		SpecialRequests:    req.SpecialRequests,
	}
	if contact.ID == "" {
		contact.ID = entities.NewContactID()
	}
	if contact.Type == "" {
		contact.Type = entities.ContactTypeGeneral
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to store contact: %w", err)
	}

	s.logger.Infow("Contact message received", "contact_id", contact.ID, "type", contact.Type)
	s.forward(ctx, contact)

	title := fmt.Sprintf("New message from %s", contact.Name)
	if contact.Type == entities.ContactTypePurchaseInquiry {
		title = fmt.Sprintf("Purchase inquiry from %s", contact.Name)
	}
	_, _ = s.activities.Record(ctx, entities.ActivityContactReceived, title, contact.Email,
		map[string]interface{}{"contactId": contact.ID, "type": string(contact.Type)},
	)
	return contact, nil
}

// Update replaces a stored message
func (s *ContactService) Update(ctx context.Context, contact *entities.ContactMessage) (*entities.ContactMessage, error) {
	if contact.ID == "" {
		return nil, entities.ErrMissingID
	}
	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

// Patch merges the non-nil fields of patch into the stored message
func (s *ContactService) Patch(ctx context.Context, id string, patch entities.ContactPatch) (*entities.ContactMessage, error) {
	contact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contact not found: %w", err)
	}

	patch.Apply(contact)

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

// MarkRead sets the status of a message to read
func (s *ContactService) MarkRead(ctx context.Context, id string) (*entities.ContactMessage, error) {
	status := entities.ContactStatusRead
	return s.Patch(ctx, id, entities.ContactPatch{Status: &status})
}

// Delete removes a message. Unknown ids are ignored.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return entities.ErrMissingID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// forward is best-effort. Purchase inquiries are relayed by checkout with their items.
func (s *ContactService) forward(ctx context.Context, contact *entities.ContactMessage) {
	if s.forwarder == nil || contact.Type != entities.ContactTypeGeneral {
		return
	}
	payload := &ports.InquiryPayload{
		FormType:  s.formType,
		Type:      ContactFormType,
		Name:      contact.Name,
		Email:     contact.Email,
		Message:   contact.Message,
		Timestamp: contact.Timestamp,
	}
	if err := s.forwarder.Forward(ctx, payload); err != nil {
		s.logger.Warnw("Failed to forward contact message",
			"contact_id", contact.ID,
			"error", err.Error(),
		)
	}
}
