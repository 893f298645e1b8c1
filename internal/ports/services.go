package ports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
)

// Auth related types
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Username    string `json:"username"`
}

// Claims are the validated contents of an admin token
type Claims struct {
	Username string `json:"username"`
}

// RecordSaleRequest records a sale and marks the artwork sold in one step
type RecordSaleRequest struct {
	ArtworkID      string  `json:"artworkId" validate:"required"`
	ArtworkTitle   string  `json:"artworkTitle"`
	SaleDate       string  `json:"saleDate" validate:"required"`
	OriginalPrice  float64 `json:"originalPrice" validate:"gte=0"`
	SalePrice      float64 `json:"salePrice" validate:"gte=0"`
	CustomerName   string  `json:"customerName" validate:"required"`
	CustomerEmail  string  `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone  string  `json:"customerPhone"`
	PaymentMethod  string  `json:"paymentMethod"`
	DeliveryMethod string  `json:"deliveryMethod"`
	Notes          string  `json:"notes"`
}

// ActivityEntry is an activity with the relative age the dashboard shows next to it
type ActivityEntry struct {
	entities.Activity
	TimeAgo string `json:"timeAgo"`
}

// ContactSubmission is what the storefront contact form posts
type ContactSubmission struct {
	ID                 string               `json:"id"`
	Type               entities.ContactType `json:"type" validate:"omitempty,oneof=general purchase_inquiry"`
	Name               string               `json:"name" validate:"required,max=200"`
	Email              string               `json:"email" validate:"required,email"`
	Phone              string               `json:"phone"`
	Message            string               `json:"message" validate:"required,max=5000"`
	ArtworkIDs         []string             `json:"artworkIds"`
	TotalAmount        *float64             `json:"totalAmount"`
	DeliveryPreference string               `json:"deliveryPreference"`
	SpecialRequests    string               `json:"specialRequests"`
}

// CustomerInfo is the checkout form's customer block
type CustomerInfo struct {
	Name               string `json:"name" validate:"required,max=200"`
	Email              string `json:"email" validate:"required,email"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	City               string `json:"city"`
	PostalCode         string `json:"postalCode"`
	DeliveryPreference string `json:"deliveryPreference"`
	SpecialRequests    string `json:"specialRequests"`
	HearAbout          string `json:"hearAbout"`
}

// CheckoutRequest submits a purchase inquiry for the cart contents
type CheckoutRequest struct {
	CustomerInfo CustomerInfo        `json:"customerInfo" validate:"required"`
	Items        []entities.CartLine `json:"items" validate:"required,min=1,dive"`
}

// CheckoutResponse reports the stored inquiry and the server-side quote
type CheckoutResponse struct {
	Success bool                     `json:"success"`
	Contact *entities.ContactMessage `json:"contact"`
	Quote   *entities.Quote          `json:"quote"`
}

// InquiryItem is one checkout line as the inquiry webhook expects it
type InquiryItem struct {
	ArtworkID string  `json:"artworkId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Framing   string  `json:"framing"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// NewInquiryItems converts priced cart lines to webhook items
func NewInquiryItems(lines []entities.PricedLine) []InquiryItem {
	items := make([]InquiryItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, InquiryItem{
			ArtworkID: line.ID,
			Title:     line.Title,
			Price:     line.Price,
			Framing:   string(line.Framing),
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
		})
	}
	return items
}

// InquiryPayload is forwarded to the external inquiry webhook. Checkout inquiries
// carry customer info and items; contact messages carry name, email and message.
type InquiryPayload struct {
	FormType     string        `json:"formType"`
	Type         string        `json:"type"`
	Name         string        `json:"name,omitempty"`
	Email        string        `json:"email,omitempty"`
	Message      string        `json:"message,omitempty"`
	CustomerInfo *CustomerInfo `json:"customerInfo,omitempty"`
	Items        []InquiryItem `json:"items,omitempty"`
	Total        float64       `json:"total,omitempty"`
	Timestamp    string        `json:"timestamp"`
}

// InquiryForwarder relays inquiries and contact messages to an external collector
type InquiryForwarder interface {
	Forward(ctx context.Context, payload *InquiryPayload) error
}

// PaymentCartItem is the optional cart breakdown sent with a payment request
type PaymentCartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Framing  string  `json:"framing"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// PaymentRequest starts a hosted PayFast checkout
type PaymentRequest struct {
	FirstName       string            `json:"firstName" validate:"required"`
	LastName        string            `json:"lastName" validate:"required"`
	Email           string            `json:"email" validate:"required,email"`
	Phone           string            `json:"phone"`
	Amount          Amount            `json:"amount" validate:"required,gt=0"`
	ItemName        string            `json:"itemName" validate:"required"`
	ItemDescription string            `json:"itemDescription"`
	PaymentID       string            `json:"paymentId" validate:"required"`
	CartItems       []PaymentCartItem `json:"cartItems"`
}

// Amount is a rand value posted either as a JSON number or as a numeric string
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return fmt.Errorf("invalid amount %s: %w", text, err)
		}
		text = unquoted
		if text == "" {
			*a = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", text, err)
	}
	*a = Amount(v)
	return nil
}

func (a Amount) Float64() float64 { return float64(a) }

// PaymentResponse carries the form the browser posts to PayFast
type PaymentResponse struct {
	Success     bool              `json:"success"`
	PaymentURL  string            `json:"paymentUrl"`
	PaymentData map[string]string `json:"paymentData"`
}

// UploadFile is an uploaded image handed to the upload service
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResponse mirrors the upload endpoint payload
type UploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Storage  string `json:"storage"`
}

// ImageUploader stores an image on the hosted CDN and returns its public URL
type ImageUploader interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
}
