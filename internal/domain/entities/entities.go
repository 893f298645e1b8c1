package entities

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrArtworkNotFound     = errors.New("artwork not found")
	ErrSaleNotFound        = errors.New("sale not found")
	ErrContactNotFound     = errors.New("contact not found")
	ErrDuplicateID         = errors.New("record with this id already exists")
	ErrMissingID           = errors.New("id is required")
	ErrArtworkUnavailable  = errors.New("artwork is not available")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidMerchant     = errors.New("invalid merchant")
	ErrUnsupportedFileType = errors.New("invalid file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUploadUnavailable   = errors.New("image upload backend unavailable")
	ErrInvalidSettings     = errors.New("invalid settings")
	ErrAmountMismatch      = errors.New("payment amount does not match cart total")
	ErrValidation          = errors.New("validation failed")
)

// Enums and types
type ArtworkStatus string

const (
	ArtworkStatusAvailable ArtworkStatus = "available"
	ArtworkStatusSold      ArtworkStatus = "sold"
)

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCancelled SaleStatus = "cancelled"
)

type ContactType string

const (
	ContactTypeGeneral         ContactType = "general"
	ContactTypePurchaseInquiry ContactType = "purchase_inquiry"
)

type ContactStatus string

const (
	ContactStatusNew      ContactStatus = "new"
	ContactStatusRead     ContactStatus = "read"
	ContactStatusArchived ContactStatus = "archived"
)

type ActivityType string

const (
	ActivityArtworkAdded     ActivityType = "artwork_added"
	ActivityArtworkUpdated   ActivityType = "artwork_updated"
	ActivityArtworkSold      ActivityType = "artwork_sold"
	ActivitySaleAdded        ActivityType = "sale_added"
	ActivityContactReceived  ActivityType = "contact_received"
	ActivityContentUpdated   ActivityType = "content_updated"
	ActivityPaymentInitiated ActivityType = "payment_initiated"
	ActivityPaymentNotified  ActivityType = "payment_notified"
)

// MaxActivities caps the activity log.
const MaxActivities = 50

// Artwork is a single piece in the gallery inventory
type Artwork struct {
	ID            string        `json:"id" validate:"required"`
	Title         string        `json:"title" validate:"required,max=200"`
	Price         float64       `json:"price" validate:"gte=0"`
	Size          string        `json:"size"`
	Medium        string        `json:"medium"`
	Status        ArtworkStatus `json:"status" validate:"required,oneof=available sold"`
	Category      string        `json:"category"`
	Images        []string      `json:"images"`
	SoldDate      string        `json:"soldDate,omitempty"`
	SoldPrice     *float64      `json:"soldPrice,omitempty"`
	CustomerName  string        `json:"customerName,omitempty"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
	SaleNotes     string        `json:"saleNotes,omitempty"`
}

// GetID implements the keyed record contract of the JSON store
func (a Artwork) GetID() string { return a.ID }

// IsAvailable reports whether the artwork can still be bought
func (a *Artwork) IsAvailable() bool {
	return a.Status == ArtworkStatusAvailable
}

// MarkSold applies the sale details to the artwork
func (a *Artwork) MarkSold(sale *Sale) {
	price := sale.SalePrice
	a.Status = ArtworkStatusSold
	a.SoldDate = sale.SaleDate
	a.SoldPrice = &price
	a.CustomerName = sale.CustomerName
	a.CustomerEmail = sale.CustomerEmail
	a.SaleNotes = sale.Notes
}

// Sale records a completed (or pending) sale of an artwork
type Sale struct {
	ID             string     `json:"id"`
	ArtworkID      string     `json:"artworkId" validate:"required"`
	ArtworkTitle   string     `json:"artworkTitle"`
	SaleDate       string     `json:"saleDate" validate:"required"`
	OriginalPrice  float64    `json:"originalPrice" validate:"gte=0"`
	SalePrice      float64    `json:"salePrice" validate:"gte=0"`
	CustomerName   string     `json:"customerName"`
	CustomerEmail  string     `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone  string     `json:"customerPhone"`
	PaymentMethod  string     `json:"paymentMethod"`
	DeliveryMethod string     `json:"deliveryMethod"`
	Notes          string     `json:"notes"`
	Status         SaleStatus `json:"status"`
}

func (s Sale) GetID() string { return s.ID }

// ContactMessage is a storefront enquiry, either general or a checkout inquiry
type ContactMessage struct {
	ID                 string        `json:"id"`
	Type               ContactType   `json:"type" validate:"required,oneof=general purchase_inquiry"`
	Name               string        `json:"name" validate:"required,max=200"`
	Email              string        `json:"email" validate:"required,email"`
	Phone              string        `json:"phone,omitempty"`
	Message            string        `json:"message" validate:"required"`
	Timestamp          string        `json:"timestamp"`
	Status             ContactStatus `json:"status"`
	ArtworkIDs         []string      `json:"artworkIds,omitempty"`
	TotalAmount        *float64      `json:"totalAmount,omitempty"`
	DeliveryPreference string        `json:"deliveryPreference,omitempty"`
	SpecialRequests    string        `json:"specialRequests,omitempty"`
}

func (c ContactMessage) GetID() string { return c.ID }

// ContactPatch carries a partial contact update; nil fields are left untouched
type ContactPatch struct {
	Status             *ContactStatus `json:"status" validate:"omitempty,oneof=new read archived"`
	Name               *string        `json:"name"`
	Email              *string        `json:"email" validate:"omitempty,email"`
	Phone              *string        `json:"phone"`
	Message            *string        `json:"message"`
	DeliveryPreference *string        `json:"deliveryPreference"`
	SpecialRequests    *string        `json:"specialRequests"`
}

// Apply merges the patch into the message
func (p ContactPatch) Apply(c *ContactMessage) {
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Message != nil {
		c.Message = *p.Message
	}
	if p.DeliveryPreference != nil {
		c.DeliveryPreference = *p.DeliveryPreference
	}
	if p.SpecialRequests != nil {
		c.SpecialRequests = *p.SpecialRequests
	}
}

// Activity is one entry of the admin dashboard feed
type Activity struct {
	ID          string                 `json:"id"`
	Type        ActivityType           `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   string                 `json:"timestamp"`
}

func (a Activity) GetID() string { return a.ID }

// Time parses the activity timestamp, returning the zero time when malformed
func (a *Activity) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, a.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HeroSlide is one frame of the storefront hero slider
type HeroSlide struct {
	ID       string `json:"id" validate:"required"`
	Image    string `json:"image" validate:"required"`
	Headline string `json:"headline"`
	Sub      string `json:"sub"`
	CTA      string `json:"cta"`
	CTALink  string `json:"ctaLink"`
}

// Collage is the "glance at the work" mosaic block
type Collage struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// Content holds the editable copy of the storefront sections
type Content struct {
	Gallery GallerySection `json:"gallery"`
	About   AboutSection   `json:"about"`
	Contact ContactSection `json:"contact"`
}

type GallerySection struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AboutSection struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	ArtistImage string `json:"artistImage"`
}

type ContactSection struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Instagram   string `json:"instagram"`
}
